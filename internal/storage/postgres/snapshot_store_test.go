package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/storage"
	"wallet-scout/internal/storage/postgres"
)

func testSnapshot(mint string, ts int64, liq float64) *domain.LiquiditySnapshot {
	return &domain.LiquiditySnapshot{
		Mint:         mint,
		LiquiditySOL: liq,
		PriceUSD:     0.0021,
		Volume24hUSD: 15000,
		TimestampMs:  ts,
		Source:       domain.SnapshotSourceProvider,
	}
}

func TestSnapshotStore_UpsertAndGetClosest(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	require.NoError(t, store.Upsert(ctx, testSnapshot("mintA", 1_000, 40)))
	require.NoError(t, store.Upsert(ctx, testSnapshot("mintA", 10_000, 60)))
	require.NoError(t, store.Upsert(ctx, testSnapshot("mintB", 2_000, 99)))

	got, err := store.GetClosest(ctx, "mintA", 3_000, 60_000)
	require.NoError(t, err)
	require.Equal(t, int64(1_000), got.TimestampMs)
	require.Equal(t, 40.0, got.LiquiditySOL)
	require.Equal(t, domain.SnapshotSourceProvider, got.Source)
	require.NotZero(t, got.CreatedAt)
}

func TestSnapshotStore_UpsertIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	require.NoError(t, store.Upsert(ctx, testSnapshot("mintA", 1_000, 40)))

	// Same (mint, timestamp) key: last write wins, no duplicate error.
	second := testSnapshot("mintA", 1_000, 55)
	second.Source = domain.SnapshotSourceCurrentFallback
	require.NoError(t, store.Upsert(ctx, second))

	all, err := store.GetByMint(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, 55.0, all[0].LiquiditySOL)
	require.Equal(t, domain.SnapshotSourceCurrentFallback, all[0].Source)
}

func TestSnapshotStore_GetClosestOutsideTolerance(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	require.NoError(t, store.Upsert(ctx, testSnapshot("mintA", 1_000, 40)))

	_, err := store.GetClosest(ctx, "mintA", 100_000, 5_000)
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = store.GetClosest(ctx, "unknown-mint", 1_000, 5_000)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshotStore_GetByMintOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	for _, ts := range []int64{9_000, 1_000, 5_000} {
		require.NoError(t, store.Upsert(ctx, testSnapshot("mintA", ts, float64(ts))))
	}

	all, err := store.GetByMint(ctx, "mintA")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, int64(1_000), all[0].TimestampMs)
	require.Equal(t, int64(5_000), all[1].TimestampMs)
	require.Equal(t, int64(9_000), all[2].TimestampMs)
}

func TestSnapshotStore_RejectsInvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewSnapshotStore(pool)

	require.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Upsert(ctx, testSnapshot("", 1_000, 40)), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Upsert(ctx, testSnapshot("mintA", 1_000, -5)), storage.ErrInvalidInput)
}
