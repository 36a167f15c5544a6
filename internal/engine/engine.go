package engine

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/0xmirasol/ammguard/internal/amm"
	"github.com/0xmirasol/ammguard/internal/models"
	"github.com/0xmirasol/ammguard/internal/storage"
)

var (
	// ErrTradingHalted means the pair is administratively paused.
	ErrTradingHalted = errors.New("trading halted")

	// ErrTradeLimitExceeded means a per-swap or rolling daily cap would be breached.
	ErrTradeLimitExceeded = errors.New("trade limit exceeded")
)

// ReserveReader reads current pool balances for a directional pair reference
type ReserveReader interface {
	Reserves(ctx context.Context, ref string) (reserveIn, reserveOut uint64, err error)
}

// SwapExecutor settles a trade. It must re-derive the realized output from
// its own state at execution time and fail if that output lands below
// minAmountOut.
type SwapExecutor interface {
	ExecuteSwap(ctx context.Context, trader, ref string, amountIn, minAmountOut uint64) (uint64, error)
}

// HaltReader reports whether a pair is administratively halted
type HaltReader interface {
	IsHalted(ctx context.Context, pair string) (bool, error)
}

// Engine is the main orchestrator for swap operations. It composes the
// pricing math with reserve reads, guard checks, and execution delegation,
// and serializes trades per pair so the checked snapshot is the state the
// trade settles against.
type Engine struct {
	reserves ReserveReader
	executor SwapExecutor
	guard    amm.Config
	logger   *logrus.Logger

	halts  HaltReader
	cache  storage.TradeCache
	store  storage.TradeStore
	limits TradeLimits
	volume *volumeTracker

	mu        sync.Mutex
	pairLocks map[string]*sync.Mutex
}

// New creates a swap engine over a reserve reader and executor
func New(reserves ReserveReader, executor SwapExecutor, guard amm.Config, logger *logrus.Logger) (*Engine, error) {
	if reserves == nil {
		return nil, fmt.Errorf("reserve reader is required")
	}
	if executor == nil {
		return nil, fmt.Errorf("swap executor is required")
	}
	if err := guard.Validate(); err != nil {
		return nil, fmt.Errorf("invalid guard config: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		reserves:  reserves,
		executor:  executor,
		guard:     guard,
		logger:    logger,
		volume:    newVolumeTracker(),
		pairLocks: make(map[string]*sync.Mutex),
	}, nil
}

// WithHalts wires an administrative halt store
func (e *Engine) WithHalts(h HaltReader) *Engine {
	if h != nil {
		e.halts = h
	}
	return e
}

// WithTradeCache wires a cache for recent trades, prices, and live publishing
func (e *Engine) WithTradeCache(c storage.TradeCache) *Engine {
	if c != nil {
		e.cache = c
	}
	return e
}

// WithTradeStore wires a durable store for settled trades
func (e *Engine) WithTradeStore(s storage.TradeStore) *Engine {
	if s != nil {
		e.store = s
	}
	return e
}

// WithLimits wires per-trader throughput caps
func (e *Engine) WithLimits(l TradeLimits) *Engine {
	e.limits = l
	return e
}

// Guards returns the active guard configuration
func (e *Engine) Guards() amm.Config {
	return e.guard
}

// SafeSwap performs a protected trade as a strict sequence: validate the
// request, check halts and limits, snapshot reserves, bound price impact,
// bound slippage, then delegate settlement. The executor is never called
// when any check fails. The whole sequence runs under the pair's lock so a
// concurrent trade cannot move reserves between the checks and settlement.
func (e *Engine) SafeSwap(ctx context.Context, req *SwapRequest) (*SwapReceipt, error) {
	start := time.Now()

	if req == nil {
		return nil, fmt.Errorf("request is nil")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxSlippage := e.guard.MaxSlippageBps
	if req.MaxSlippageBps != nil && *req.MaxSlippageBps < maxSlippage {
		maxSlippage = *req.MaxSlippageBps
	}
	maxImpact := e.guard.MaxPriceImpactBps
	if req.MaxPriceImpactBps != nil && *req.MaxPriceImpactBps < maxImpact {
		maxImpact = *req.MaxPriceImpactBps
	}

	if err := e.checkHalted(ctx, req.Pair); err != nil {
		return nil, err
	}
	if err := e.checkLimits(req.Trader, req.AmountIn); err != nil {
		return nil, err
	}

	lock := e.pairLock(req.Pair)
	lock.Lock()
	defer lock.Unlock()

	reserveIn, reserveOut, err := e.reserves.Reserves(ctx, req.Pair)
	if err != nil {
		return nil, err
	}

	impact, err := amm.PriceImpactBps(req.AmountIn, reserveIn, reserveOut, e.guard.FeeBpsComplement, e.guard.FeeScale)
	if err != nil {
		return nil, err
	}
	if impact > uint64(maxImpact) {
		return nil, fmt.Errorf("%w: %d bps over max %d bps", amm.ErrPriceImpactExceeded, impact, maxImpact)
	}

	expected, err := amm.QuoteOut(req.AmountIn, reserveIn, reserveOut, e.guard.FeeBpsComplement, e.guard.FeeScale)
	if err != nil {
		return nil, err
	}

	if err := amm.ValidateSlippage(expected, req.MinAmountOut, maxSlippage); err != nil {
		return nil, err
	}

	// Execution-time failures are surfaced unchanged; no retry, no partial
	// application.
	out, err := e.executor.ExecuteSwap(ctx, req.Trader, req.Pair, req.AmountIn, req.MinAmountOut)
	if err != nil {
		return nil, err
	}

	e.volume.record(req.Trader, req.AmountIn)

	receipt := &SwapReceipt{
		ID:          newReceiptID(),
		Trader:      req.Trader,
		Pair:        req.Pair,
		AmountIn:    req.AmountIn,
		ExpectedOut: expected,
		AmountOut:   out,
		ImpactBps:   impact,
		FeeBps:      e.guard.FeeBps(),
		Price:       formatPrice(out, req.AmountIn),
		Duration:    time.Since(start),
		ExecutedAt:  time.Now(),
	}

	e.publishTrade(ctx, receipt)

	e.logger.WithFields(logrus.Fields{
		"receipt_id": receipt.ID,
		"trader":     receipt.Trader,
		"pair":       receipt.Pair,
		"amount_in":  receipt.AmountIn,
		"amount_out": receipt.AmountOut,
		"impact_bps": receipt.ImpactBps,
	}).Info("Swap settled")

	return receipt, nil
}

// Quote prices a forward swap without executing. slippageBps is the caller's
// tolerance used to derive the suggested minimum output; it is capped at the
// system ceiling.
func (e *Engine) Quote(ctx context.Context, ref string, amountIn uint64, slippageBps uint16) (*QuoteResult, error) {
	if slippageBps > e.guard.MaxSlippageBps {
		slippageBps = e.guard.MaxSlippageBps
	}

	reserveIn, reserveOut, err := e.reserves.Reserves(ctx, ref)
	if err != nil {
		return nil, err
	}

	amountOut, err := amm.QuoteOut(amountIn, reserveIn, reserveOut, e.guard.FeeBpsComplement, e.guard.FeeScale)
	if err != nil {
		return nil, err
	}

	impact, err := amm.PriceImpactBps(amountIn, reserveIn, reserveOut, e.guard.FeeBpsComplement, e.guard.FeeScale)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Pair:         ref,
		AmountIn:     amountIn,
		AmountOut:    amountOut,
		MinAmountOut: amm.MinAmountOut(amountOut, slippageBps),
		ImpactBps:    impact,
		FeeBps:       e.guard.FeeBps(),
		ReserveIn:    reserveIn,
		ReserveOut:   reserveOut,
		Price:        formatPrice(amountOut, amountIn),
		QuotedAt:     time.Now(),
	}, nil
}

// QuoteIn prices the inverse direction: the input required for a desired
// output.
func (e *Engine) QuoteIn(ctx context.Context, ref string, amountOut uint64) (*InverseQuote, error) {
	reserveIn, reserveOut, err := e.reserves.Reserves(ctx, ref)
	if err != nil {
		return nil, err
	}

	amountIn, err := amm.QuoteIn(amountOut, reserveIn, reserveOut, e.guard.FeeBpsComplement, e.guard.FeeScale)
	if err != nil {
		return nil, err
	}

	return &InverseQuote{
		Pair:       ref,
		AmountOut:  amountOut,
		AmountIn:   amountIn,
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		FeeBps:     e.guard.FeeBps(),
		Price:      formatPrice(amountOut, amountIn),
		QuotedAt:   time.Now(),
	}, nil
}

// QuoteLiquidity prices the proportional other-side deposit for adding
// liquidity to a pair.
func (e *Engine) QuoteLiquidity(ctx context.Context, ref string, amountA uint64) (*LiquidityQuote, error) {
	reserveA, reserveB, err := e.reserves.Reserves(ctx, ref)
	if err != nil {
		return nil, err
	}

	amountB, err := amm.QuoteLiquidity(amountA, reserveA, reserveB)
	if err != nil {
		return nil, err
	}

	return &LiquidityQuote{
		Pair:     ref,
		AmountA:  amountA,
		AmountB:  amountB,
		ReserveA: reserveA,
		ReserveB: reserveB,
		QuotedAt: time.Now(),
	}, nil
}

// Reserves exposes the underlying reserve reader
func (e *Engine) Reserves(ctx context.Context, ref string) (reserveIn, reserveOut uint64, err error) {
	return e.reserves.Reserves(ctx, ref)
}

// DailyVolume returns a trader's input volume over the rolling 24h window
func (e *Engine) DailyVolume(trader string) uint64 {
	return e.volume.used(trader)
}

// checkHalted checks both orientations so a halt on "ETH-USDC" also blocks
// "USDC-ETH".
func (e *Engine) checkHalted(ctx context.Context, ref string) error {
	if e.halts == nil {
		return nil
	}

	tokenIn, tokenOut, _ := strings.Cut(ref, "-")
	for _, candidate := range []string{ref, tokenOut + "-" + tokenIn} {
		halted, err := e.halts.IsHalted(ctx, candidate)
		if err != nil {
			return fmt.Errorf("halt check failed: %w", err)
		}
		if halted {
			return fmt.Errorf("%w: %s", ErrTradingHalted, ref)
		}
	}
	return nil
}

func (e *Engine) checkLimits(trader string, amountIn uint64) error {
	if e.limits.MaxAmountInPerSwap > 0 && amountIn > e.limits.MaxAmountInPerSwap {
		return fmt.Errorf("%w: amount %d over per-swap max %d",
			ErrTradeLimitExceeded, amountIn, e.limits.MaxAmountInPerSwap)
	}

	if e.limits.DailyVolumeCap > 0 {
		used := e.volume.used(trader)
		if used > e.limits.DailyVolumeCap || e.limits.DailyVolumeCap-used < amountIn {
			return fmt.Errorf("%w: daily volume %d + %d over cap %d",
				ErrTradeLimitExceeded, used, amountIn, e.limits.DailyVolumeCap)
		}
	}
	return nil
}

// pairLock returns the lock guarding a pair's swap sequence. The key is
// orientation-independent so "ETH-USDC" and "USDC-ETH" serialize against
// each other.
func (e *Engine) pairLock(ref string) *sync.Mutex {
	key := canonicalLockKey(ref)

	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.pairLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		e.pairLocks[key] = lock
	}
	return lock
}

func canonicalLockKey(ref string) string {
	symbols := strings.Split(ref, "-")
	sort.Strings(symbols)
	return strings.Join(symbols, "-")
}

// publishTrade pushes a settled trade to the cache and store, best effort
func (e *Engine) publishTrade(ctx context.Context, receipt *SwapReceipt) {
	if e.cache == nil && e.store == nil {
		return
	}

	tokenIn, tokenOut, _ := strings.Cut(receipt.Pair, "-")
	event := &models.TradeEvent{
		ID:        receipt.ID,
		Timestamp: receipt.ExecutedAt,
		Pair:      receipt.Pair,
		Trader:    receipt.Trader,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		AmountIn:  receipt.AmountIn,
		AmountOut: receipt.AmountOut,
		Price:     receipt.Price,
		FeeBps:    receipt.FeeBps,
		ImpactBps: receipt.ImpactBps,
	}

	if e.cache != nil {
		if err := e.cache.AddRecentTrade(ctx, event); err != nil {
			e.logger.WithError(err).Warn("Failed to cache trade")
		}
		if err := e.cache.UpdatePrice(ctx, event.Pair, event.Price); err != nil {
			e.logger.WithError(err).Warn("Failed to update cached price")
		}
		if err := e.cache.PublishTrade(ctx, event); err != nil {
			e.logger.WithError(err).Warn("Failed to publish trade")
		}
	}
	if e.store != nil {
		if err := e.store.InsertTrade(ctx, event); err != nil {
			e.logger.WithError(err).Warn("Failed to persist trade")
		}
	}
}

// formatPrice renders output per input as a decimal string
func formatPrice(amountOut, amountIn uint64) string {
	if amountIn == 0 {
		return "0"
	}
	return decimal.NewFromUint64(amountOut).
		DivRound(decimal.NewFromUint64(amountIn), 12).
		String()
}

func newReceiptID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("swap_%d", time.Now().UnixNano())
	}
	return base58.Encode(buf)
}
