package liquidity

import (
	"sync"
	"time"

	"wallet-scout/internal/domain"
)

// cacheEntry holds one cached snapshot and its insertion time.
type cacheEntry struct {
	snap     domain.LiquiditySnapshot
	storedAt int64 // unix ms
}

// snapshotCache is a TTL cache for current-liquidity snapshots, keyed by
// mint. Expired entries are evicted lazily on the next lookup for the same
// key; there is no background sweeper. Safe for concurrent use.
type snapshotCache struct {
	mu      sync.Mutex
	ttlMs   int64
	nowMs   func() int64
	entries map[string]cacheEntry
}

// newSnapshotCache creates a cache with the given TTL.
func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		ttlMs:   ttl.Milliseconds(),
		nowMs:   func() int64 { return time.Now().UnixMilli() },
		entries: make(map[string]cacheEntry),
	}
}

// get returns a copy of the cached snapshot for mint, or nil on miss.
// An expired entry counts as a miss and is removed.
func (c *snapshotCache) get(mint string) *domain.LiquiditySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[mint]
	if !ok {
		return nil
	}
	if c.nowMs()-entry.storedAt > c.ttlMs {
		delete(c.entries, mint)
		return nil
	}

	snap := entry.snap
	return &snap
}

// put stores a copy of the snapshot under its mint.
func (c *snapshotCache) put(snap *domain.LiquiditySnapshot) {
	if snap == nil || snap.Mint == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.Mint] = cacheEntry{snap: *snap, storedAt: c.nowMs()}
}

// len returns the number of entries currently held, expired or not.
func (c *snapshotCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
