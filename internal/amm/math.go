package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// QuoteOut computes the output of a constant-product swap with the fee taken
// from the input side:
//
//	out = floor(amountIn * feeBpsComplement * reserveOut / (reserveIn * feeScale + amountIn * feeBpsComplement))
//
// All intermediate products use 256-bit arithmetic to prevent overflow of
// 64-bit operand multiplications. The result rounds toward zero, which leaves
// the rounding remainder inside the pool.
func QuoteOut(amountIn, reserveIn, reserveOut, feeBpsComplement, feeScale uint64) (uint64, error) {
	if amountIn == 0 {
		return 0, ErrInsufficientInput
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroLiquidity
	}
	if feeBpsComplement == 0 || feeScale == 0 {
		return 0, fmt.Errorf("fee schedule must be > 0")
	}

	amountInWithFee := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(feeBpsComplement))

	numerator := new(uint256.Int).Mul(amountInWithFee, uint256.NewInt(reserveOut))
	denominator := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(feeScale))
	denominator.Add(denominator, amountInWithFee)

	// denominator > amountInWithFee, so the quotient is strictly below
	// reserveOut and always narrows back to uint64.
	out := new(uint256.Int).Div(numerator, denominator)
	return out.Uint64(), nil
}

// QuoteIn computes the input required to receive amountOut from a
// constant-product swap:
//
//	in = ceil(reserveIn * amountOut * feeScale / ((reserveOut - amountOut) * feeBpsComplement))
//
// The result rounds up, so the trader always pays at least enough to satisfy
// the formula. A true ceiling is used: exact divisions are not bumped.
func QuoteIn(amountOut, reserveIn, reserveOut, feeBpsComplement, feeScale uint64) (uint64, error) {
	if amountOut == 0 {
		return 0, ErrInsufficientInput
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrZeroLiquidity
	}
	if amountOut >= reserveOut {
		// The pool can never pay out a full reserve side.
		return 0, fmt.Errorf("%w: requested output %d of reserve %d", ErrInsufficientInput, amountOut, reserveOut)
	}
	if feeBpsComplement == 0 || feeScale == 0 {
		return 0, fmt.Errorf("fee schedule must be > 0")
	}

	numerator := new(uint256.Int).Mul(uint256.NewInt(reserveIn), uint256.NewInt(amountOut))
	numerator.Mul(numerator, uint256.NewInt(feeScale))
	denominator := new(uint256.Int).Mul(uint256.NewInt(reserveOut-amountOut), uint256.NewInt(feeBpsComplement))

	in := new(uint256.Int).Div(numerator, denominator)
	rem := new(uint256.Int).Mod(numerator, denominator)
	if !rem.IsZero() {
		in.Add(in, uint256.NewInt(1))
	}

	if !in.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return in.Uint64(), nil
}

// QuoteLiquidity computes the amount of asset B that keeps the pool ratio
// unchanged when amountA of asset A is added:
//
//	amountB = floor(amountA * reserveB / reserveA)
//
// No fee applies; this quotes liquidity provisioning, not a trade.
func QuoteLiquidity(amountA, reserveA, reserveB uint64) (uint64, error) {
	if amountA == 0 {
		return 0, ErrInsufficientInput
	}
	if reserveA == 0 || reserveB == 0 {
		return 0, ErrZeroLiquidity
	}

	amountB := new(uint256.Int).Mul(uint256.NewInt(amountA), uint256.NewInt(reserveB))
	amountB.Div(amountB, uint256.NewInt(reserveA))

	if !amountB.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return amountB.Uint64(), nil
}
