// Package stub provides fixed in-memory implementations of the ingestion
// contracts for tests and local runs.
package stub

import (
	"context"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/ingestion"
)

// CandidateSource serves fixed candidates from memory.
// Implements ingestion.CandidateSource.
type CandidateSource struct {
	addresses []string
	metrics   map[string]*domain.WalletMetrics
	trades    map[string][]*domain.HistoricalTrade
}

var _ ingestion.CandidateSource = (*CandidateSource)(nil)

// NewCandidateSource creates an empty stub source.
func NewCandidateSource() *CandidateSource {
	return &CandidateSource{
		metrics: make(map[string]*domain.WalletMetrics),
		trades:  make(map[string][]*domain.HistoricalTrade),
	}
}

// AddWallet registers a candidate with its metrics and trade history.
// Candidates are returned in registration order.
func (s *CandidateSource) AddWallet(metrics *domain.WalletMetrics, trades []*domain.HistoricalTrade) {
	s.addresses = append(s.addresses, metrics.Address)
	s.metrics[metrics.Address] = metrics
	s.trades[metrics.Address] = trades
}

// Candidates returns the registered addresses.
func (s *CandidateSource) Candidates(_ context.Context) ([]string, error) {
	out := make([]string, len(s.addresses))
	copy(out, s.addresses)
	return out, nil
}

// Metrics returns a copy of the wallet's metrics, or (nil, nil) if the
// address is unknown.
func (s *CandidateSource) Metrics(_ context.Context, address string) (*domain.WalletMetrics, error) {
	m, ok := s.metrics[address]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// Trades returns copies of the wallet's trades.
func (s *CandidateSource) Trades(_ context.Context, address string) ([]*domain.HistoricalTrade, error) {
	var out []*domain.HistoricalTrade
	for _, tr := range s.trades[address] {
		cp := *tr
		out = append(out, &cp)
	}
	return out, nil
}

// RiskChecker vetoes a fixed set of mints.
// Implements ingestion.RiskChecker.
type RiskChecker struct {
	vetoed map[string]bool
	err    error
}

var _ ingestion.RiskChecker = (*RiskChecker)(nil)

// NewRiskChecker creates a checker vetoing the given mints.
func NewRiskChecker(vetoedMints ...string) *RiskChecker {
	vetoed := make(map[string]bool, len(vetoedMints))
	for _, mint := range vetoedMints {
		vetoed[mint] = true
	}
	return &RiskChecker{vetoed: vetoed}
}

// Fail makes every subsequent check return err.
func (c *RiskChecker) Fail(err error) {
	c.err = err
}

// IsTokenSafe reports whether the mint is outside the veto set.
func (c *RiskChecker) IsTokenSafe(_ context.Context, mint string) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return !c.vetoed[mint], nil
}
