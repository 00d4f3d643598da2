// Command backtest replays one wallet's trade history against the
// configured liquidity oracle and prints the simulated result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wallet-scout/internal/backtest"
	"wallet-scout/internal/config"
	"wallet-scout/internal/domain"
	"wallet-scout/internal/liquidity"
	"wallet-scout/internal/liquidity/dexhttp"
	"wallet-scout/internal/logging"
	"wallet-scout/internal/storage"
	"wallet-scout/internal/storage/memory"
	"wallet-scout/internal/storage/migrations"
	pgstore "wallet-scout/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", ".", "Directory containing config.yaml")
	wallet := flag.String("wallet", "", "Wallet address to backtest (required)")
	tradesPath := flag.String("trades", "", "JSON file with the wallet's trades (required)")
	strategyName := flag.String("strategy", "", "Strategy profile override")
	outputJSON := flag.Bool("json", false, "Output the full result as JSON")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *strategyName != "" {
		cfg.Strategy = *strategyName
		if _, ok := cfg.Profiles[cfg.Strategy]; !ok {
			fmt.Fprintf(os.Stderr, "unknown strategy profile %q\n", cfg.Strategy)
			os.Exit(1)
		}
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *wallet == "" {
		logger.Fatal("--wallet is required")
	}
	if *tradesPath == "" {
		logger.Fatal("--trades is required")
	}

	trades, err := loadTrades(*tradesPath)
	if err != nil {
		logger.Fatal("load trades", zap.Error(err))
	}

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

	oracleOpts := liquidity.Options{
		Store:     snapshots,
		CacheTTL:  cfg.Liquidity.CacheTTL,
		Tolerance: cfg.Liquidity.Tolerance,
		Logger:    logger.Named("oracle"),
	}
	if cfg.Liquidity.ProviderEndpoint != "" {
		client := dexhttp.NewClient(cfg.Liquidity.ProviderEndpoint,
			dexhttp.WithTimeout(cfg.Liquidity.ProviderTimeout))
		oracleOpts.CurrentProvider = client
		oracleOpts.HistoricalProvider = client
	}

	simulator := backtest.NewSimulator(liquidity.NewOracle(oracleOpts), nil, logger.Named("backtest"))
	result, err := simulator.SimulateWallet(ctx, *wallet, trades, cfg.StrategyProfile())
	if err != nil {
		logger.Fatal("simulate", zap.Error(err))
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatal("encode result", zap.Error(err))
		}
		return
	}

	printResult(result)
}

func loadTrades(path string) ([]*domain.HistoricalTrade, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var trades []*domain.HistoricalTrade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return trades, nil
}

func printResult(r *domain.SimulatedResult) {
	fmt.Printf("Wallet:    %s\n", r.WalletAddress)
	fmt.Printf("Strategy:  %s\n", r.StrategyName)
	fmt.Printf("Trades:    %d total, %d simulated, %d rejected\n",
		r.TotalTrades, r.SimulatedTrades, r.RejectedTrades)
	fmt.Printf("PnL:       %.4f SOL original, %.4f SOL simulated (delta %.4f)\n",
		r.OriginalPnLSOL, r.SimulatedPnLSOL, r.PnLDeltaSOL)
	fmt.Printf("Costs:     %.4f SOL slippage, %.4f SOL fees\n",
		r.TotalSlippageCostSOL, r.TotalFeeCostSOL)
	if r.Passed {
		fmt.Println("Outcome:   PASSED")
	} else {
		fmt.Printf("Outcome:   FAILED (%s): %s\n", r.FailureKind, r.FailureReason)
	}
	if len(r.RejectionReasons) > 0 {
		fmt.Println("Rejections:")
		for _, reason := range r.RejectionReasons {
			fmt.Printf("  - %s\n", reason)
		}
	}
}
