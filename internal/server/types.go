package server

import "time"

// ErrorResponse is the standardized error envelope
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK    bool `json:"ok"`    // Service health status
	Pairs int  `json:"pairs"` // Number of registered pairs
}

// SwapRequestBody is the POST /v1/swap payload
type SwapRequestBody struct {
	Trader            string  `json:"trader"`
	Pair              string  `json:"pair"` // directional, e.g. "ETH-USDC" sells ETH
	AmountIn          uint64  `json:"amount_in"`
	MinAmountOut      uint64  `json:"min_amount_out"`
	MaxSlippageBps    *uint16 `json:"max_slippage_bps,omitempty"`
	MaxPriceImpactBps *uint16 `json:"max_price_impact_bps,omitempty"`
}

// SwapResponse is the settled-trade receipt returned to the caller
type SwapResponse struct {
	ID          string    `json:"id"`
	Trader      string    `json:"trader"`
	Pair        string    `json:"pair"`
	AmountIn    uint64    `json:"amount_in"`
	ExpectedOut uint64    `json:"expected_out"`
	AmountOut   uint64    `json:"amount_out"`
	ImpactBps   uint64    `json:"impact_bps"`
	FeeBps      uint16    `json:"fee_bps"`
	Price       string    `json:"price"` // realized output per input, decimal string
	TookMs      int64     `json:"took_ms"`
	ExecutedAt  time.Time `json:"executed_at"`
}

// QuoteOutResponse prices a forward swap without executing it
type QuoteOutResponse struct {
	Pair         string    `json:"pair"`
	AmountIn     uint64    `json:"amount_in"`
	AmountOut    uint64    `json:"amount_out"`
	MinAmountOut uint64    `json:"min_amount_out"`
	ImpactBps    uint64    `json:"impact_bps"`
	FeeBps       uint16    `json:"fee_bps"`
	ReserveIn    uint64    `json:"reserve_in"`
	ReserveOut   uint64    `json:"reserve_out"`
	Price        string    `json:"price"`
	QuotedAt     time.Time `json:"quoted_at"`
}

// QuoteInResponse prices the input required for a desired output
type QuoteInResponse struct {
	Pair       string    `json:"pair"`
	AmountOut  uint64    `json:"amount_out"`
	AmountIn   uint64    `json:"amount_in"`
	FeeBps     uint16    `json:"fee_bps"`
	ReserveIn  uint64    `json:"reserve_in"`
	ReserveOut uint64    `json:"reserve_out"`
	Price      string    `json:"price"`
	QuotedAt   time.Time `json:"quoted_at"`
}

// QuoteLiquidityResponse is the proportional other-side deposit amount
type QuoteLiquidityResponse struct {
	Pair     string    `json:"pair"`
	AmountA  uint64    `json:"amount_a"`
	AmountB  uint64    `json:"amount_b"`
	ReserveA uint64    `json:"reserve_a"`
	ReserveB uint64    `json:"reserve_b"`
	QuotedAt time.Time `json:"quoted_at"`
}

// PairResponse describes a registered pair with its live reserves
type PairResponse struct {
	ID           string `json:"id"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	BaseReserve  uint64 `json:"base_reserve"`
	QuoteReserve uint64 `json:"quote_reserve"`
}

// PriceResponse is the last executed price for a pair
type PriceResponse struct {
	Pair  string `json:"pair"`
	Price string `json:"price"` // decimal string, "0" when unknown
}

// HaltUpsertRequest creates or updates a trading halt
type HaltUpsertRequest struct {
	Pair   string `json:"pair"`
	Halted bool   `json:"halted"`
	Reason string `json:"reason,omitempty"`
}

// HaltUpdateRequest updates an existing trading halt
type HaltUpdateRequest struct {
	Halted bool   `json:"halted"`
	Reason string `json:"reason,omitempty"`
}
