package amm

import "fmt"

// Config holds the fee schedule and the hard safety ceilings for swap guards.
// Callers inject it explicitly; nothing in this package reads global state.
type Config struct {
	// Fee applied to amount_in, expressed as the retained fraction
	// FeeBpsComplement/FeeScale (997/1000 means a 0.3% fee).
	FeeBpsComplement uint64
	FeeScale         uint64

	// Hard system ceilings in basis points. Caller-supplied bounds may tighten
	// these but never loosen them.
	MaxSlippageBps    uint16
	MaxPriceImpactBps uint16
}

// DefaultConfig returns the standard 0.3% fee schedule with conservative guard ceilings.
func DefaultConfig() Config {
	return Config{
		FeeBpsComplement:  997,
		FeeScale:          1000,
		MaxSlippageBps:    500, // 5%
		MaxPriceImpactBps: 300, // 3%
	}
}

// Validate checks the config for values that would make pricing undefined.
func (c Config) Validate() error {
	if c.FeeScale == 0 {
		return fmt.Errorf("fee scale must be > 0")
	}
	if c.FeeBpsComplement == 0 || c.FeeBpsComplement > c.FeeScale {
		return fmt.Errorf("fee bps complement must be in 1..%d", c.FeeScale)
	}
	if c.MaxSlippageBps > 10000 {
		return fmt.Errorf("max slippage bps must be <= 10000")
	}
	if c.MaxPriceImpactBps > 10000 {
		return fmt.Errorf("max price impact bps must be <= 10000")
	}
	return nil
}

// FeeBps converts the fee schedule to basis points (997/1000 -> 30 bps).
func (c Config) FeeBps() uint16 {
	if c.FeeScale == 0 {
		return 0
	}
	return uint16((c.FeeScale - c.FeeBpsComplement) * 10000 / c.FeeScale)
}
