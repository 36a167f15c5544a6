package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlippageBps(t *testing.T) {
	tests := []struct {
		name     string
		expected uint64
		floor    uint64
		want     uint64
	}{
		{"five percent", 1000, 950, 500},
		{"six percent", 1000, 940, 600},
		{"no shortfall", 1000, 1000, 0},
		{"floor above expected", 1000, 1100, 0},
		{"total shortfall", 1000, 0, 10000},
		{"fractional bps floors", 987, 980, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlippageBps(tt.expected, tt.floor))
		})
	}
}

func TestValidateSlippage(t *testing.T) {
	// Exactly at the bound passes.
	assert.NoError(t, ValidateSlippage(1000, 950, 500))

	// One unit over fails.
	err := ValidateSlippage(1000, 940, 500)
	assert.ErrorIs(t, err, ErrSlippageExceeded)

	// Zero tolerance admits only exact or better.
	assert.NoError(t, ValidateSlippage(1000, 1000, 0))
	assert.ErrorIs(t, ValidateSlippage(1000, 999, 0), ErrSlippageExceeded)
}

func TestMinAmountOut(t *testing.T) {
	tests := []struct {
		name        string
		expected    uint64
		slippageBps uint16
		want        uint64
	}{
		{"one percent", 10000, 100, 9900},
		{"rounds up", 987, 100, 978}, // ceil(987*9900/10000) = ceil(977.13)
		{"zero tolerance", 1000, 0, 1000},
		{"full tolerance", 1000, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinAmountOut(tt.expected, tt.slippageBps))
		})
	}
}

func TestMinAmountOut_ConsistentWithValidate(t *testing.T) {
	// The derived floor always passes validation against the same tolerance.
	expectations := []uint64{1, 3, 987, 10000, 999999, math.MaxUint64 / 2}
	tolerances := []uint16{0, 1, 50, 100, 500, 9999}

	for _, expected := range expectations {
		for _, bps := range tolerances {
			floor := MinAmountOut(expected, bps)
			require.NoError(t, ValidateSlippage(expected, floor, bps),
				"expected=%d bps=%d floor=%d", expected, bps, floor)
		}
	}
}
