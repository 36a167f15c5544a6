package amm

import "github.com/holiman/uint256"

// PriceImpactBps estimates how far a prospective trade would move the pool's
// spot price, in basis points. Both prices are scaled by 10000:
//
//	priceBefore = reserveOut * 10000 / reserveIn
//	priceAfter  = (reserveOut - out) * 10000 / (reserveIn + amountIn)
//
// Impact is measured as depletion of the output side only. When the price
// holds steady or moves the other way the result is 0.
// Reuses QuoteOut internally and inherits its error conditions.
func PriceImpactBps(amountIn, reserveIn, reserveOut, feeBpsComplement, feeScale uint64) (uint64, error) {
	out, err := QuoteOut(amountIn, reserveIn, reserveOut, feeBpsComplement, feeScale)
	if err != nil {
		return 0, err
	}

	scale := uint256.NewInt(10000)

	priceBefore := new(uint256.Int).Mul(uint256.NewInt(reserveOut), scale)
	priceBefore.Div(priceBefore, uint256.NewInt(reserveIn))

	postIn := new(uint256.Int).Add(uint256.NewInt(reserveIn), uint256.NewInt(amountIn))
	priceAfter := new(uint256.Int).Mul(uint256.NewInt(reserveOut-out), scale)
	priceAfter.Div(priceAfter, postIn)

	if priceAfter.Cmp(priceBefore) >= 0 {
		return 0, nil
	}

	impact := new(uint256.Int).Sub(priceBefore, priceAfter)
	impact.Mul(impact, scale)
	impact.Div(impact, priceBefore)

	// (before-after)*10000/before is at most 10000.
	return impact.Uint64(), nil
}
