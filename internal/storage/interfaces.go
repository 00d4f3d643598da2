package storage

import (
	"context"

	"wallet-scout/internal/domain"
)

// SnapshotStore provides access to the durable historical liquidity store
// (liquidity_snapshots table).
type SnapshotStore interface {
	// Upsert writes a snapshot keyed by (mint, timestamp_ms). Duplicate
	// writes for the same key are idempotent: last write wins.
	Upsert(ctx context.Context, s *domain.LiquiditySnapshot) error

	// GetClosest returns the stored snapshot whose timestamp is closest to
	// targetMs and within toleranceMs of it. Returns ErrNotFound if no
	// stored point falls inside the tolerance window.
	GetClosest(ctx context.Context, mint string, targetMs, toleranceMs int64) (*domain.LiquiditySnapshot, error)

	// GetByMint retrieves all snapshots for a mint, ordered by timestamp ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.LiquiditySnapshot, error)
}

// SimulationArchive records per-trade backtest rows for offline analysis.
// Archival is best-effort from the pipeline's point of view: a failed archive
// write never fails the evaluation run.
type SimulationArchive interface {
	// Archive stores every per-trade row of a wallet's simulated result.
	Archive(ctx context.Context, result *domain.SimulatedResult) error
}
