package domain

// StrategyConfig represents a named risk profile for the backtest.
type StrategyConfig struct {
	Name            string  // "conservative" | "aggressive"
	MinLiquiditySOL float64 // minimum pool liquidity to simulate a trade
	MaxSlippagePct  float64 // maximum acceptable slippage, percent
	FeePct          float64 // fixed fee as percent of trade size
	MinTrades       int     // minimum trade count for backtest eligibility
}

// Strategy name constants.
const (
	StrategyConservative = "conservative"
	StrategyAggressive   = "aggressive"
)

// Predefined strategy profiles.
var (
	StrategyConfigConservative = StrategyConfig{
		Name:            StrategyConservative,
		MinLiquiditySOL: 50,
		MaxSlippagePct:  3.0,
		FeePct:          0.25,
		MinTrades:       10,
	}

	StrategyConfigAggressive = StrategyConfig{
		Name:            StrategyAggressive,
		MinLiquiditySOL: 10,
		MaxSlippagePct:  8.0,
		FeePct:          0.25,
		MinTrades:       5,
	}
)
