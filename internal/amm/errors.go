package amm

import "errors"

var (
	// ErrZeroLiquidity means one or both reserve sides are empty, so pricing is undefined.
	ErrZeroLiquidity = errors.New("zero liquidity")

	// ErrInsufficientInput means a supplied amount is zero, or a requested output
	// is not strictly below the available reserve.
	ErrInsufficientInput = errors.New("insufficient input amount")

	// ErrPriceImpactExceeded means the projected trade would move the pool price
	// beyond the configured ceiling.
	ErrPriceImpactExceeded = errors.New("price impact exceeded")

	// ErrSlippageExceeded means the quoted output violates the caller's tolerance.
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrAmountOverflow means a computed amount does not fit the 64-bit external surface.
	ErrAmountOverflow = errors.New("amount overflows uint64")
)
