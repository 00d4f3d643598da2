package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	"wallet-scout/internal/addr"
	"wallet-scout/internal/backtest"
	"wallet-scout/internal/decision"
	"wallet-scout/internal/domain"
	"wallet-scout/internal/ingestion/stub"
	"wallet-scout/internal/liquidity"
	"wallet-scout/internal/roster"
	"wallet-scout/internal/scoring"
	"wallet-scout/internal/storage/memory"
)

const (
	walletStrong    = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	walletAverage   = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	walletVetoed    = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	mintSafe        = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintRisky       = "So11111111111111111111111111111111111111112"
	testNowMs       = int64(1_700_000_000_000)
	minScoreActive  = 30.0
	minScoreCandid  = 10.0
)

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

var testStrategy = domain.StrategyConfig{
	Name:            "test",
	MinLiquiditySOL: 50,
	MaxSlippagePct:  5.0,
	FeePct:          0.25,
	MinTrades:       2,
}

// strongMetrics scores above the active threshold.
func strongMetrics(address string) *domain.WalletMetrics {
	return &domain.WalletMetrics{
		Address:        address,
		ROI30D:         fp(50.0),
		ROI7D:          fp(10.0),
		Consistency:    fp(0.8),
		TradeCount30D:  ip(25),
		MaxDrawdown30D: fp(5.0),
	}
}

// averageMetrics scores between the candidate and active thresholds.
func averageMetrics(address string) *domain.WalletMetrics {
	return &domain.WalletMetrics{
		Address:       address,
		ROI30D:        fp(20.0),
		WinRate:       fp(0.5),
		TradeCount30D: ip(15),
	}
}

func goodTrades(mint string, n int) []*domain.HistoricalTrade {
	var out []*domain.HistoricalTrade
	for i := 0; i < n; i++ {
		out = append(out, &domain.HistoricalTrade{
			Mint:           mint,
			Symbol:         "TEST",
			Action:         domain.TradeActionBuy,
			AmountSOL:      1,
			Timestamp:      testNowMs + int64(i)*1000,
			RealizedPnLSOL: fp(0.5),
		})
	}
	return out
}

type env struct {
	source   *stub.CandidateSource
	risk     *stub.RiskChecker
	archive  *memory.SimulationArchive
	pipeline *Pipeline
	roster   string
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewSnapshotStore()
	require.NoError(t, store.Upsert(context.Background(), &domain.LiquiditySnapshot{
		Mint:         mintSafe,
		LiquiditySOL: 10_000,
		TimestampMs:  testNowMs,
		Source:       domain.SnapshotSourceProvider,
	}))

	oracle := liquidity.NewOracle(liquidity.Options{Store: store})
	sim := backtest.NewSimulator(oracle, nil, nil)

	e := &env{
		source:  stub.NewCandidateSource(),
		risk:    stub.NewRiskChecker(mintRisky),
		archive: memory.NewSimulationArchive(),
		roster:  filepath.Join(t.TempDir(), "wallets.db"),
	}
	e.pipeline = New(Options{
		Source:            e.source,
		Risk:              e.risk,
		Scorer:            scoring.NewScorerAt(testNowMs),
		Validator:         decision.NewValidatorAt(sim, nil, testNowMs),
		Writer:            roster.NewWriter(e.roster, nil),
		Archive:           e.archive,
		Strategy:          testStrategy,
		MinScoreActive:    minScoreActive,
		MinScoreCandidate: minScoreCandid,
		RiskFailOpen:      true,
	})
	return e
}

func TestRunFullCycle(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	e.source.AddWallet(strongMetrics(walletStrong), goodTrades(mintSafe, 3))
	e.source.AddWallet(averageMetrics(walletAverage), goodTrades(mintSafe, 2))
	e.source.AddWallet(strongMetrics("bad!!address"), nil)
	e.source.AddWallet(strongMetrics(walletVetoed), goodTrades(mintRisky, 3))

	summary, err := e.pipeline.Run(ctx)
	require.NoError(t, err)

	require.Equal(t, 3, summary.TotalWallets)
	require.Equal(t, 1, summary.TierCounts[domain.TierActive])
	require.Equal(t, 2, summary.TierCounts[domain.TierCandidate])
	require.Equal(t, []string{"bad!!address"}, summary.ErrorWallets)

	// Strong wallet passed its backtest; the vetoed wallet lost every trade
	// to the risk filter and failed on trade count.
	require.Equal(t, 1, summary.StatusCounts[domain.StatusPassed])
	require.Equal(t, 1, summary.StatusCounts[domain.StatusFailedInsufficientTrades])

	require.True(t, summary.Published)
	require.Equal(t, 3, summary.RecordCount)

	records, err := roster.ReadAll(ctx, e.roster)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byAddr := map[string]*domain.WalletRecord{}
	for _, rec := range records {
		byAddr[rec.Address] = rec
	}

	strong := byAddr[walletStrong]
	require.NotNil(t, strong)
	require.Equal(t, domain.TierActive, strong.Status)
	require.NotNil(t, strong.PromotedAt)
	require.NotNil(t, strong.ExpiresAt)
	require.Greater(t, *strong.ExpiresAt, *strong.PromotedAt)
	require.NotNil(t, strong.RealizedPnL30DSOL)
	require.InDelta(t, 1.5, *strong.RealizedPnL30DSOL, 1e-9)
	require.NotNil(t, strong.AvgWinSOL)
	require.InDelta(t, 0.5, *strong.AvgWinSOL, 1e-9)
	require.Nil(t, strong.AvgLossSOL)

	average := byAddr[walletAverage]
	require.NotNil(t, average)
	require.Equal(t, domain.TierCandidate, average.Status)
	require.Nil(t, average.PromotedAt)

	vetoed := byAddr[walletVetoed]
	require.NotNil(t, vetoed)
	require.Equal(t, domain.TierCandidate, vetoed.Status)

	// Both backtests were archived.
	require.Len(t, e.archive.Results(), 2)
}

func TestRunRiskCheckerFailOpen(t *testing.T) {
	e := newTestEnv(t)
	e.risk.Fail(errors.New("risk service down"))

	e.source.AddWallet(strongMetrics(walletStrong), goodTrades(mintSafe, 3))

	summary, err := e.pipeline.Run(context.Background())
	require.NoError(t, err)

	// Fail-open keeps the trades, so the backtest still passes.
	require.Equal(t, 1, summary.TierCounts[domain.TierActive])
	require.Equal(t, 1, summary.StatusCounts[domain.StatusPassed])
}

func TestRunRiskCheckerFailClosed(t *testing.T) {
	e := newTestEnv(t)
	e.pipeline.riskFailOpen = false
	e.risk.Fail(errors.New("risk service down"))

	e.source.AddWallet(strongMetrics(walletStrong), goodTrades(mintSafe, 3))

	summary, err := e.pipeline.Run(context.Background())
	require.NoError(t, err)

	// Fail-closed drops every trade; the backtest fails on trade count.
	require.Equal(t, 1, summary.TierCounts[domain.TierCandidate])
	require.Equal(t, 1, summary.StatusCounts[domain.StatusFailedInsufficientTrades])
}

func TestRunPublishFailureIsRunLevel(t *testing.T) {
	e := newTestEnv(t)
	e.pipeline.writer = roster.NewWriter(
		filepath.Join(t.TempDir(), "missing", "nested", "wallets.db"), nil)

	e.source.AddWallet(averageMetrics(walletAverage), nil)

	summary, err := e.pipeline.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "publish roster")

	// Evaluation itself completed; only publication failed.
	require.False(t, summary.Published)
	require.Equal(t, 1, summary.TotalWallets)
}

func TestApplyRiskVetoLeavesInputIntact(t *testing.T) {
	e := newTestEnv(t)

	riskyA := &domain.HistoricalTrade{Mint: mintRisky, Symbol: "RISK", AmountSOL: 1}
	safe := &domain.HistoricalTrade{Mint: mintSafe, Symbol: "SAFE", AmountSOL: 2}
	riskyB := &domain.HistoricalTrade{Mint: mintRisky, Symbol: "RISK", AmountSOL: 3}
	trades := []*domain.HistoricalTrade{riskyA, safe, riskyB}

	out := e.pipeline.applyRiskVeto(context.Background(), trades)

	require.Equal(t, []*domain.HistoricalTrade{safe}, out)

	// The caller still owns the input slice; trade stats are derived from
	// it later, so filtering must not shuffle its elements.
	require.Same(t, riskyA, trades[0])
	require.Same(t, safe, trades[1])
	require.Same(t, riskyB, trades[2])
}

// offCurveAddress finds a well-formed 32-byte address that is not a point on
// the ed25519 curve. Roughly half of all encodings qualify, so the scan
// terminates after a handful of candidates.
func offCurveAddress(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := 0; i < 256; i++ {
		raw[0] = byte(i)
		s := base58.Encode(raw)
		if addr.IsValid(s) && !addr.IsOnCurve(s) {
			return s
		}
	}
	t.Fatal("no off-curve address found")
	return ""
}

func TestRunRejectsOffCurveAddress(t *testing.T) {
	e := newTestEnv(t)
	offCurve := offCurveAddress(t)

	e.source.AddWallet(strongMetrics(offCurve), goodTrades(mintSafe, 3))
	e.source.AddWallet(strongMetrics(walletStrong), goodTrades(mintSafe, 3))

	summary, err := e.pipeline.Run(context.Background())
	require.NoError(t, err)

	// Program-derived addresses decode cleanly but cannot sign trades, so
	// they are recorded as errors rather than scored.
	require.Equal(t, []string{offCurve}, summary.ErrorWallets)
	require.Equal(t, 1, summary.TotalWallets)
	require.Equal(t, 1, summary.TierCounts[domain.TierActive])
}

func TestRunEmptyCandidates(t *testing.T) {
	e := newTestEnv(t)

	summary, err := e.pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, summary.TotalWallets)
	require.True(t, summary.Published)

	records, err := roster.ReadAll(context.Background(), e.roster)
	require.NoError(t, err)
	require.Empty(t, records)
}
