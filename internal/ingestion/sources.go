// Package ingestion defines the contracts for the upstream collaborators
// that feed the evaluation pipeline: the discovery service supplying
// candidate wallets with their metrics and trade history, and the risk
// service that may veto individual tokens.
package ingestion

import (
	"context"

	"wallet-scout/internal/domain"
)

// CandidateSource supplies one evaluation cycle's worth of candidates.
type CandidateSource interface {
	// Candidates returns the wallet addresses to evaluate this cycle.
	Candidates(ctx context.Context) ([]string, error)

	// Metrics returns rolling-window metrics for one wallet.
	// Returns (nil, nil) when no metrics exist for the address.
	Metrics(ctx context.Context, address string) (*domain.WalletMetrics, error)

	// Trades returns the wallet's historical trades, oldest first.
	Trades(ctx context.Context, address string) ([]*domain.HistoricalTrade, error)
}

// RiskChecker vetoes tokens considered unsafe to copy into. The veto is
// applied before a token's trades reach scoring or backtesting.
type RiskChecker interface {
	// IsTokenSafe reports whether trading the mint is acceptable.
	IsTokenSafe(ctx context.Context, mint string) (bool, error)
}
