package domain

// SnapshotSource identifies which source produced a liquidity snapshot.
type SnapshotSource string

// Snapshot provenance constants.
const (
	// SnapshotSourceStore: read from the durable snapshot store.
	SnapshotSourceStore SnapshotSource = "store"
	// SnapshotSourceProvider: fetched from the external liquidity provider.
	SnapshotSourceProvider SnapshotSource = "provider"
	// SnapshotSourceFeed: pushed by the streaming liquidity feed.
	SnapshotSourceFeed SnapshotSource = "feed"
	// SnapshotSourceCurrentFallback: a current-liquidity value substituted
	// for a missing historical point. Lower confidence.
	SnapshotSourceCurrentFallback SnapshotSource = "current_fallback"
)

// LiquiditySnapshot is a point-in-time liquidity/price observation for one
// token. Corresponds to liquidity_snapshots table in PostgreSQL.
//
// Invariant: LiquiditySOL >= 0. When Source is SnapshotSourceCurrentFallback,
// TimestampMs reflects the requested historical instant, not the instant the
// data was actually observed.
type LiquiditySnapshot struct {
	Mint         string         // token mint address
	LiquiditySOL float64        // pool liquidity in SOL
	PriceUSD     float64        // token price in USD
	Volume24hUSD float64        // 24h trade volume in USD
	TimestampMs  int64          // unix ms
	Source       SnapshotSource // provenance tag
	CreatedAt    int64          // record creation timestamp (ms), 0 until stored
}

// IsFallback reports whether the snapshot is a same-value current-liquidity
// substitute for a missing historical point.
func (s *LiquiditySnapshot) IsFallback() bool {
	return s.Source == SnapshotSourceCurrentFallback
}
