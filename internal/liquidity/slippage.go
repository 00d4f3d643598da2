package liquidity

import "math"

// slippageK calibrates the square-root price-impact model.
const slippageK = 1.0

// EstimateSlippage returns the expected slippage percentage (0-100) for a
// trade of tradeValueSOL against a pool holding liquiditySOL.
//
// The square-root shape models constant-product AMM price impact: impact
// grows sub-linearly with trade size relative to pool depth. A pool with
// zero or negative liquidity yields 100% slippage, the trade is effectively
// impossible.
func EstimateSlippage(tradeValueSOL, liquiditySOL float64) float64 {
	if liquiditySOL <= 0 {
		return 100
	}
	if tradeValueSOL <= 0 {
		return 0
	}
	frac := math.Min(1.0, slippageK*math.Sqrt(tradeValueSOL/liquiditySOL))
	return frac * 100
}
