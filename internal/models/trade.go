// ============================================================================
// models/trade.go
// ============================================================================
package models

import "time"

// TradeEvent is the wire model for a completed swap, published to the cache
// and persisted to the history store.
type TradeEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`
	Trader    string    `json:"trader"`
	TokenIn   string    `json:"token_in"`
	TokenOut  string    `json:"token_out"`
	AmountIn  uint64    `json:"amount_in"`
	AmountOut uint64    `json:"amount_out"`
	Price     string    `json:"price"` // output per input, decimal string
	FeeBps    uint16    `json:"fee_bps"`
	ImpactBps uint64    `json:"impact_bps"`
}
