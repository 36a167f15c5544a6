package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/0xmirasol/ammguard/internal/amm"
)

var pairRefRe = regexp.MustCompile(`^[A-Z0-9]{2,10}-[A-Z0-9]{2,10}$`)

// SwapRequest carries one caller-supplied swap attempt
type SwapRequest struct {
	// Identity and routing
	Trader string
	Pair   string // directional reference, e.g. "ETH-USDC" sells ETH for USDC

	// Amounts
	AmountIn     uint64
	MinAmountOut uint64

	// Optional caller bounds. They can only tighten the system ceilings,
	// never loosen them.
	MaxSlippageBps    *uint16
	MaxPriceImpactBps *uint16
}

// Validate checks request shape before any pricing happens
func (r *SwapRequest) Validate() error {
	if strings.TrimSpace(r.Trader) == "" {
		return fmt.Errorf("trader is required")
	}
	if !pairRefRe.MatchString(r.Pair) {
		return fmt.Errorf("invalid pair reference: %q", r.Pair)
	}
	tokenIn, tokenOut, ok := strings.Cut(r.Pair, "-")
	if !ok || tokenIn == tokenOut {
		return fmt.Errorf("invalid pair reference: %q", r.Pair)
	}
	if r.AmountIn == 0 {
		return fmt.Errorf("%w: amount_in must be positive", amm.ErrInsufficientInput)
	}
	if r.MinAmountOut == 0 {
		return fmt.Errorf("%w: min_amount_out must be positive", amm.ErrInsufficientInput)
	}
	if r.MaxSlippageBps != nil && *r.MaxSlippageBps > 10000 {
		return fmt.Errorf("max_slippage_bps must be at most 10000")
	}
	if r.MaxPriceImpactBps != nil && *r.MaxPriceImpactBps > 10000 {
		return fmt.Errorf("max_price_impact_bps must be at most 10000")
	}
	return nil
}

// QuoteResult contains detailed quote information for a forward swap
type QuoteResult struct {
	Pair         string
	AmountIn     uint64
	AmountOut    uint64
	MinAmountOut uint64
	ImpactBps    uint64
	FeeBps       uint16
	ReserveIn    uint64
	ReserveOut   uint64
	Price        string // output per input, decimal string
	QuotedAt     time.Time
}

// InverseQuote answers "how much must I pay to receive amountOut"
type InverseQuote struct {
	Pair       string
	AmountOut  uint64
	AmountIn   uint64
	ReserveIn  uint64
	ReserveOut uint64
	FeeBps     uint16
	Price      string
	QuotedAt   time.Time
}

// LiquidityQuote is the proportional deposit amount for the other side of a
// pair. No fee applies.
type LiquidityQuote struct {
	Pair     string
	AmountA  uint64
	AmountB  uint64
	ReserveA uint64
	ReserveB uint64
	QuotedAt time.Time
}

// SwapReceipt is the final result returned to the caller after a settled
// trade.
type SwapReceipt struct {
	ID     string
	Trader string
	Pair   string

	// Quote vs realized
	AmountIn    uint64
	ExpectedOut uint64
	AmountOut   uint64

	ImpactBps uint64
	FeeBps    uint16
	Price     string // realized output per input

	Duration   time.Duration
	ExecutedAt time.Time
}
