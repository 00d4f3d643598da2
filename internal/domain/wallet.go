package domain

// Tier represents a wallet's roster tier.
type Tier string

// Tier constants. Stored in the status column of the wallets table.
const (
	TierActive    Tier = "ACTIVE"
	TierCandidate Tier = "CANDIDATE"
	TierRejected  Tier = "REJECTED"
)

// WalletMetrics holds rolling-window performance metrics for one wallet.
// Constructed once per evaluation cycle by the ingestion collaborator and
// never mutated afterwards. Every field except Address is optional;
// a nil pointer means "not observed", not zero.
type WalletMetrics struct {
	Address string // base58 wallet address

	ROI7D            *float64 // 7-day return, percent
	ROI30D           *float64 // 30-day return, percent
	TradeCount30D    *int     // trades in the 30-day window
	WinRate          *float64 // fraction of winning trades, [0,1]
	MaxDrawdown30D   *float64 // worst peak-to-trough in window, percent
	AvgTradeSizeSOL  *float64 // mean trade size in SOL
	AvgEntryDelaySec *float64 // mean delay between first liquidity and entry
	ProfitFactor     *float64 // gross gains / gross losses
	DownsideRatio    *float64 // downside-risk-adjusted return ratio
	FreshWallet      *bool    // wallet created shortly before first trade
	Consistency      *float64 // win-streak consistency measure, [0,1]
	LastTradeAt      *int64   // last observed trade, unix ms
}

// WalletRecord is the persisted evaluation output for one wallet.
// Corresponds to one row of the wallets table in the published roster.
// One record per address per publication; re-publication replaces it.
type WalletRecord struct {
	Address string
	Status  Tier
	Score   float64

	// Metrics used for the decision.
	ROI7D            *float64
	ROI30D           *float64
	TradeCount30D    *int
	WinRate          *float64
	MaxDrawdown30D   *float64
	AvgTradeSizeSOL  *float64
	AvgEntryDelaySec *float64
	ProfitFactor     *float64

	// Derived statistics.
	AvgWinSOL         *float64
	AvgLossSOL        *float64
	RealizedPnL30DSOL *float64

	LastTradeAt *int64 // unix ms
	PromotedAt  *int64 // unix ms, set when status becomes ACTIVE
	ExpiresAt   *int64 // unix ms, re-evaluation deadline

	Notes     string
	Archetype string // informal trader classification tag

	CreatedAt int64 // unix ms
	UpdatedAt int64 // unix ms
}
