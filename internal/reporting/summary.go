// Package reporting builds the end-of-run summary.
package reporting

import (
	"sort"
	"time"

	"wallet-scout/internal/domain"
)

// Summary aggregates one evaluation run's outcomes.
type Summary struct {
	GeneratedAt  time.Time
	StrategyName string

	TotalWallets int
	TierCounts   map[domain.Tier]int
	StatusCounts map[domain.ValidationStatus]int
	ErrorWallets []string // addresses whose evaluation errored

	Published   bool
	RosterPath  string
	RecordCount int
}

// NewSummary creates an empty summary for a run.
func NewSummary(strategyName string) *Summary {
	return &Summary{
		GeneratedAt:  time.Now(),
		StrategyName: strategyName,
		TierCounts:   make(map[domain.Tier]int),
		StatusCounts: make(map[domain.ValidationStatus]int),
	}
}

// RecordWallet tallies one wallet's final tier.
func (s *Summary) RecordWallet(tier domain.Tier) {
	s.TotalWallets++
	s.TierCounts[tier]++
}

// RecordValidation tallies one backtest validation outcome.
func (s *Summary) RecordValidation(status domain.ValidationStatus) {
	s.StatusCounts[status]++
}

// RecordError tallies a wallet whose evaluation errored.
func (s *Summary) RecordError(address string) {
	s.ErrorWallets = append(s.ErrorWallets, address)
}

// sortedStatuses returns the validation statuses present, in stable order.
func (s *Summary) sortedStatuses() []domain.ValidationStatus {
	out := make([]domain.ValidationStatus, 0, len(s.StatusCounts))
	for st := range s.StatusCounts {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
