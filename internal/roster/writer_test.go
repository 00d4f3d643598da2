package roster

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"wallet-scout/internal/domain"
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }
func lp(v int64) *int64     { return &v }

func testRecord(address string, score float64, tier domain.Tier) *domain.WalletRecord {
	return &domain.WalletRecord{
		Address:           address,
		Status:            tier,
		Score:             score,
		ROI7D:             fp(12.5),
		ROI30D:            fp(48.0),
		TradeCount30D:     ip(25),
		WinRate:           fp(0.64),
		MaxDrawdown30D:    fp(9.5),
		AvgTradeSizeSOL:   fp(2.4),
		AvgEntryDelaySec:  fp(420),
		ProfitFactor:      fp(1.9),
		AvgWinSOL:         fp(0.8),
		AvgLossSOL:        fp(0.35),
		RealizedPnL30DSOL: fp(14.2),
		LastTradeAt:       lp(1_700_000_000_000),
		PromotedAt:        lp(1_700_000_100_000),
		ExpiresAt:         lp(1_702_000_000_000),
		Notes:             "steady swing trader",
		Archetype:         "swing",
		CreatedAt:         1_700_000_100_000,
		UpdatedAt:         1_700_000_100_000,
	}
}

func TestPublishRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.db")
	w := NewWriter(path, nil)

	rec := testRecord("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU", 72.5, domain.TierActive)
	sparse := &domain.WalletRecord{
		Address:   "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		Status:    domain.TierCandidate,
		Score:     41.0,
		CreatedAt: 1_700_000_100_000,
		UpdatedAt: 1_700_000_100_000,
	}

	err := w.Publish(context.Background(), []*domain.WalletRecord{rec, sparse})
	require.NoError(t, err)

	got, err := ReadAll(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by score descending.
	require.Equal(t, rec, got[0])
	require.Equal(t, sparse, got[1])
}

func TestPublishEmptyRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.db")
	w := NewWriter(path, nil)

	require.NoError(t, w.Publish(context.Background(), nil))

	got, err := ReadAll(context.Background(), path)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestPublishReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.db")
	w := NewWriter(path, nil)
	ctx := context.Background()

	first := testRecord("wallet-one", 60, domain.TierCandidate)
	require.NoError(t, w.Publish(ctx, []*domain.WalletRecord{first}))

	second := testRecord("wallet-two", 80, domain.TierActive)
	require.NoError(t, w.Publish(ctx, []*domain.WalletRecord{second}))

	got, err := ReadAll(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "wallet-two", got[0].Address)
}

func TestPublishFailureLeavesPreviousIntact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wallets.db")
	w := NewWriter(path, nil)
	ctx := context.Background()

	good := testRecord("wallet-good", 65, domain.TierActive)
	require.NoError(t, w.Publish(ctx, []*domain.WalletRecord{good}))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A blank address survives the write but fails the integrity check,
	// forcing an abort between temp-write and rename.
	bad := testRecord("", 90, domain.TierActive)
	err = w.Publish(ctx, []*domain.WalletRecord{bad})
	require.Error(t, err)
	require.Contains(t, err.Error(), "verify roster artifact")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after, "published artifact changed on failed publish")

	got, err := ReadAll(ctx, path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "wallet-good", got[0].Address)

	// The temp artifact must have been cleaned up.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.Equal(t, "wallets.db", e.Name(), "leftover file %s", e.Name())
	}
}

func TestTempPathUniquePerRun(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "wallets.db"), nil)

	seen := map[string]bool{}
	for i := 0; i < 32; i++ {
		p := w.tempPath()
		require.False(t, seen[p], "temp path %s repeated", p)
		seen[p] = true
	}
}

func TestReadAllMissingArtifactLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.db")

	_, err := ReadAll(context.Background(), path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "open roster")

	// The reader must not plant an empty database at the published path;
	// a later consumer would mistake it for a real roster.
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "reader created %s", path)
}
