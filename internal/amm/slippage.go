package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// SlippageBps computes the shortfall between an expected output and a floor
// value, in basis points of the expected output. Returns 0 when the floor
// meets or exceeds the expectation.
func SlippageBps(expectedOut, floorOut uint64) uint64 {
	if floorOut >= expectedOut {
		return 0
	}

	short := new(uint256.Int).SetUint64(expectedOut - floorOut)
	short.Mul(short, uint256.NewInt(10000))
	short.Div(short, uint256.NewInt(expectedOut))
	return short.Uint64()
}

// ValidateSlippage fails with ErrSlippageExceeded when the shortfall between
// expectedOut and floorOut is above maxSlippageBps. A shortfall exactly at the
// bound passes.
func ValidateSlippage(expectedOut, floorOut uint64, maxSlippageBps uint16) error {
	if got := SlippageBps(expectedOut, floorOut); got > uint64(maxSlippageBps) {
		return fmt.Errorf("%w: %d bps over max %d bps", ErrSlippageExceeded, got, maxSlippageBps)
	}
	return nil
}

// MinAmountOut derives the lowest acceptable output for a slippage tolerance.
// The result rounds up so that validating it against the same tolerance
// always passes.
func MinAmountOut(expectedOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}

	slippageFactor := 10000 - uint64(slippageBps)

	kept := new(uint256.Int).Mul(uint256.NewInt(expectedOut), uint256.NewInt(slippageFactor))
	minOut := new(uint256.Int).Div(kept, uint256.NewInt(10000))
	rem := new(uint256.Int).Mod(kept, uint256.NewInt(10000))
	if !rem.IsZero() {
		minOut.Add(minOut, uint256.NewInt(1))
	}

	// ceil(expectedOut * slippageFactor / 10000) <= expectedOut
	return minOut.Uint64()
}
