package domain

// ValidationStatus is the terminal status of the promotion validator.
type ValidationStatus string

// Validation status constants.
const (
	StatusPassed                   ValidationStatus = "passed"
	StatusFailedLiquidity          ValidationStatus = "failed_liquidity"
	StatusFailedSlippage           ValidationStatus = "failed_slippage"
	StatusFailedNegativePnL        ValidationStatus = "failed_negative_pnl"
	StatusFailedInsufficientTrades ValidationStatus = "failed_insufficient_trades"
	StatusError                    ValidationStatus = "error"
)

// ValidationResult is the final promotion decision for one wallet.
type ValidationResult struct {
	Address         string
	Status          ValidationStatus
	Result          *SimulatedResult // nil if backtest never ran
	Passed          bool
	Reason          string
	RecommendedTier Tier
	EvaluatedAt     int64 // unix ms
}
