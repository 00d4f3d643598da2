package domain

// RejectCategory classifies why a simulated trade was rejected.
type RejectCategory string

// Reject category constants.
const (
	RejectNone         RejectCategory = ""
	RejectNoData       RejectCategory = "no_data"
	RejectLowLiquidity RejectCategory = "low_liquidity"
	RejectSlippage     RejectCategory = "excessive_slippage"
)

// FailureKind classifies why a wallet backtest failed as a whole.
type FailureKind string

// Failure kind constants.
const (
	FailureNone               FailureKind = ""
	FailureNoTrades           FailureKind = "no_trades"
	FailureInsufficientTrades FailureKind = "insufficient_trades"
	FailureRejectionRate      FailureKind = "rejection_rate"
	FailureNegativePnL        FailureKind = "negative_pnl"
	FailurePnLReduction       FailureKind = "pnl_reduction"
)

// SimulatedTrade wraps one HistoricalTrade with its replay outcome.
type SimulatedTrade struct {
	Trade *HistoricalTrade

	LiquiditySOL    *float64 // liquidity resolved at simulated time, nil if none
	LiquidityOK     bool     // liquidity met the strategy minimum
	SlippagePct     float64  // estimated slippage, percent
	SlippageCostSOL float64  // slippage cost in SOL
	FeeCostSOL      float64  // fixed-percentage fee cost in SOL
	SimulatedPnLSOL float64  // net PnL after slippage and fees

	Rejected       bool
	RejectCategory RejectCategory // RejectNone iff not rejected
	RejectReason   *string        // nil iff not rejected
}

// SimulatedResult aggregates a wallet's full backtest.
//
// Invariant: SimulatedTrades + RejectedTrades == TotalTrades.
type SimulatedResult struct {
	WalletAddress string
	StrategyName  string

	TotalTrades     int
	SimulatedTrades int
	RejectedTrades  int

	OriginalPnLSOL  float64
	SimulatedPnLSOL float64
	PnLDeltaSOL     float64 // simulated - original

	TotalSlippageCostSOL float64
	TotalFeeCostSOL      float64

	Trades           []*SimulatedTrade
	RejectionReasons []string

	Passed        bool
	FailureKind   FailureKind // FailureNone iff passed
	FailureReason string      // empty iff passed
}
