// Command evaluate runs one full wallet evaluation cycle:
// ingest candidates, score, backtest-validate, publish the roster,
// notify the downstream merge process and print a run summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wallet-scout/internal/backtest"
	"wallet-scout/internal/config"
	"wallet-scout/internal/decision"
	"wallet-scout/internal/domain"
	"wallet-scout/internal/ingestion"
	"wallet-scout/internal/ingestion/stub"
	"wallet-scout/internal/liquidity"
	"wallet-scout/internal/liquidity/dexhttp"
	"wallet-scout/internal/liquidity/feed"
	"wallet-scout/internal/logging"
	"wallet-scout/internal/observability"
	"wallet-scout/internal/pipeline"
	"wallet-scout/internal/reporting"
	"wallet-scout/internal/roster"
	"wallet-scout/internal/scoring"
	"wallet-scout/internal/storage"
	chstore "wallet-scout/internal/storage/clickhouse"
	"wallet-scout/internal/storage/memory"
	"wallet-scout/internal/storage/migrations"
	pgstore "wallet-scout/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", ".", "Directory containing config.yaml")
	candidatesPath := flag.String("candidates", "", "JSON file with candidate wallets (required)")
	summaryPath := flag.String("summary", "", "Write the Markdown run summary to this file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received %v, cancelling run\n", sig)
		cancel()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *candidatesPath == "" {
		logger.Fatal("--candidates is required")
	}
	source, mints, err := loadCandidates(*candidatesPath)
	if err != nil {
		logger.Fatal("load candidates", zap.Error(err))
	}

	var metrics *observability.Metrics
	if cfg.Metrics.ListenAddr != "" {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Snapshot store: postgres when configured, in-memory otherwise.
	var snapshots storage.SnapshotStore = memory.NewSnapshotStore()
	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatal("postgres migrations", zap.Error(err))
		}
		snapshots = pgstore.NewSnapshotStore(pool)
	}

	var archive storage.SimulationArchive
	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			logger.Fatal("connect clickhouse", zap.Error(err))
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			logger.Fatal("clickhouse migrations", zap.Error(err))
		}
		archive = chstore.NewSimTradeStore(conn)
	}

	oracleOpts := liquidity.Options{
		Store:     snapshots,
		CacheTTL:  cfg.Liquidity.CacheTTL,
		Tolerance: cfg.Liquidity.Tolerance,
		Metrics:   metrics,
		Logger:    logger.Named("oracle"),
	}
	if cfg.Liquidity.ProviderEndpoint != "" {
		client := dexhttp.NewClient(cfg.Liquidity.ProviderEndpoint,
			dexhttp.WithTimeout(cfg.Liquidity.ProviderTimeout),
			dexhttp.WithMetrics(metrics))
		oracleOpts.CurrentProvider = client
		oracleOpts.HistoricalProvider = client
	}
	oracle := liquidity.NewOracle(oracleOpts)

	if cfg.Liquidity.FeedEndpoint != "" && len(mints) > 0 {
		f := feed.New(cfg.Liquidity.FeedEndpoint, mints, oracle, nil, logger.Named("feed"))
		go f.Run(ctx)
		defer f.Close()
	}

	var notifier *roster.Notifier
	if cfg.Roster.NotifierURL != "" {
		notifier = roster.NewNotifier(cfg.Roster.NotifierURL, logger.Named("notify"))
	}

	simulator := backtest.NewSimulator(oracle, metrics, logger.Named("backtest"))
	p := pipeline.New(pipeline.Options{
		Source:            source,
		Scorer:            scoring.NewScorer(),
		Validator:         decision.NewValidator(simulator, logger.Named("validator")),
		Writer:            roster.NewWriter(cfg.Roster.Path, logger.Named("roster")),
		Notifier:          notifier,
		Archive:           archive,
		Strategy:          cfg.StrategyProfile(),
		MinScoreActive:    cfg.Scoring.MinScoreActive,
		MinScoreCandidate: cfg.Scoring.MinScoreCandidate,
		RiskFailOpen:      cfg.Risk.FailOpen,
		Metrics:           metrics,
		Logger:            logger.Named("pipeline"),
	})

	summary, runErr := p.Run(ctx)

	fmt.Println(reporting.RenderText(summary))
	if *summaryPath != "" {
		if err := os.WriteFile(*summaryPath, []byte(reporting.RenderMarkdown(summary)), 0o644); err != nil {
			logger.Warn("write summary", zap.Error(err))
		}
	}

	// Only a publish failure fails the run.
	if runErr != nil {
		logger.Error("run failed", zap.Error(runErr))
		os.Exit(1)
	}
}

// candidateFixture is one wallet in the candidates JSON file.
type candidateFixture struct {
	Metrics *domain.WalletMetrics     `json:"metrics"`
	Trades  []*domain.HistoricalTrade `json:"trades"`
}

// loadCandidates reads the candidate fixture file into a stub source and
// collects the distinct mints traded, for feed subscription.
func loadCandidates(path string) (ingestion.CandidateSource, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	var fixtures []candidateFixture
	if err := json.Unmarshal(raw, &fixtures); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	source := stub.NewCandidateSource()
	mintSet := make(map[string]bool)
	for _, f := range fixtures {
		if f.Metrics == nil || f.Metrics.Address == "" {
			return nil, nil, fmt.Errorf("candidate without metrics/address in %s", path)
		}
		source.AddWallet(f.Metrics, f.Trades)
		for _, tr := range f.Trades {
			mintSet[tr.Mint] = true
		}
	}

	mints := make([]string, 0, len(mintSet))
	for mint := range mintSet {
		mints = append(mints, mint)
	}
	return source, mints, nil
}
