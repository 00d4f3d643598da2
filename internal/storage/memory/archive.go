package memory

import (
	"context"
	"sync"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/storage"
)

// SimulationArchive is an in-memory implementation of storage.SimulationArchive.
// Used in tests and when no ClickHouse DSN is configured.
type SimulationArchive struct {
	mu      sync.Mutex
	results []*domain.SimulatedResult
}

// NewSimulationArchive creates a new in-memory simulation archive.
func NewSimulationArchive() *SimulationArchive {
	return &SimulationArchive{}
}

var _ storage.SimulationArchive = (*SimulationArchive)(nil)

// Archive stores the result.
func (a *SimulationArchive) Archive(_ context.Context, result *domain.SimulatedResult) error {
	if result == nil {
		return storage.ErrInvalidInput
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, result)
	return nil
}

// Results returns all archived results.
func (a *SimulationArchive) Results() []*domain.SimulatedResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*domain.SimulatedResult, len(a.results))
	copy(out, a.results)
	return out
}
