package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LiquiditySnapshot // keyed by (mint, timestamp_ms)
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.LiquiditySnapshot),
	}
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// snapshotKey generates a unique key for a snapshot.
func snapshotKey(mint string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", mint, timestampMs)
}

// Upsert writes a snapshot. Last write wins for the same (mint, timestamp_ms).
func (s *SnapshotStore) Upsert(_ context.Context, snap *domain.LiquiditySnapshot) error {
	if snap == nil || snap.Mint == "" || snap.LiquiditySOL < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data[snapshotKey(snap.Mint, snap.TimestampMs)] = &copy
	return nil
}

// GetClosest returns the snapshot closest to targetMs within toleranceMs.
func (s *SnapshotStore) GetClosest(_ context.Context, mint string, targetMs, toleranceMs int64) (*domain.LiquiditySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *domain.LiquiditySnapshot
	var bestDist int64
	for _, snap := range s.data {
		if snap.Mint != mint {
			continue
		}
		dist := snap.TimestampMs - targetMs
		if dist < 0 {
			dist = -dist
		}
		if dist > toleranceMs {
			continue
		}
		if best == nil || dist < bestDist {
			copy := *snap
			best = &copy
			bestDist = dist
		}
	}

	if best == nil {
		return nil, storage.ErrNotFound
	}
	return best, nil
}

// GetByMint retrieves all snapshots for a mint, ordered by timestamp ASC.
func (s *SnapshotStore) GetByMint(_ context.Context, mint string) ([]*domain.LiquiditySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LiquiditySnapshot
	for _, snap := range s.data {
		if snap.Mint == mint {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}
