package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Upsert writes a snapshot keyed by (mint, timestamp_ms), last write wins.
func (s *SnapshotStore) Upsert(ctx context.Context, snap *domain.LiquiditySnapshot) error {
	if snap == nil || snap.Mint == "" || snap.LiquiditySOL < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO liquidity_snapshots (
			mint, timestamp_ms, liquidity_sol, price_usd, volume_24h_usd, source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mint, timestamp_ms) DO UPDATE SET
			liquidity_sol = EXCLUDED.liquidity_sol,
			price_usd = EXCLUDED.price_usd,
			volume_24h_usd = EXCLUDED.volume_24h_usd,
			source = EXCLUDED.source
	`

	createdAt := snap.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, query,
		snap.Mint,
		snap.TimestampMs,
		snap.LiquiditySOL,
		snap.PriceUSD,
		snap.Volume24hUSD,
		string(snap.Source),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert liquidity snapshot: %w", err)
	}
	return nil
}

// GetClosest returns the snapshot closest to targetMs within toleranceMs.
func (s *SnapshotStore) GetClosest(ctx context.Context, mint string, targetMs, toleranceMs int64) (*domain.LiquiditySnapshot, error) {
	query := `
		SELECT mint, timestamp_ms, liquidity_sol, price_usd, volume_24h_usd, source, created_at
		FROM liquidity_snapshots
		WHERE mint = $1 AND timestamp_ms >= $2 AND timestamp_ms <= $3
		ORDER BY ABS(timestamp_ms - $4) ASC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query, mint, targetMs-toleranceMs, targetMs+toleranceMs, targetMs)

	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get closest snapshot: %w", err)
	}
	return snap, nil
}

// GetByMint retrieves all snapshots for a mint, ordered by timestamp ASC.
func (s *SnapshotStore) GetByMint(ctx context.Context, mint string) ([]*domain.LiquiditySnapshot, error) {
	query := `
		SELECT mint, timestamp_ms, liquidity_sol, price_usd, volume_24h_usd, source, created_at
		FROM liquidity_snapshots
		WHERE mint = $1
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by mint: %w", err)
	}
	defer rows.Close()

	var snaps []*domain.LiquiditySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}

// scanSnapshot scans one row into a LiquiditySnapshot.
func scanSnapshot(row pgx.Row) (*domain.LiquiditySnapshot, error) {
	var snap domain.LiquiditySnapshot
	var source string

	err := row.Scan(
		&snap.Mint,
		&snap.TimestampMs,
		&snap.LiquiditySOL,
		&snap.PriceUSD,
		&snap.Volume24hUSD,
		&source,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	snap.Source = domain.SnapshotSource(source)
	return &snap, nil
}
