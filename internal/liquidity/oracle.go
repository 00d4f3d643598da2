// Package liquidity resolves current and historical liquidity snapshots.
//
// Historical lookups walk an ordered chain: the durable snapshot store, then
// a secondary external provider (written back to the store on acceptance),
// then absent. HistoricalOrCurrent additionally falls back to a live lookup,
// relabeling the result with the requested instant and a fallback provenance
// tag. Absence is a value, not an error: callers get (nil, nil).
package liquidity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/observability"
	"wallet-scout/internal/storage"
)

// CurrentProvider looks up live liquidity for a token.
// Returns (nil, nil) when the provider has no data for the mint.
type CurrentProvider interface {
	Current(ctx context.Context, mint string) (*domain.LiquiditySnapshot, error)
}

// HistoricalProvider looks up liquidity at a historical instant.
// Returns (nil, nil) when the provider has no data near the instant.
type HistoricalProvider interface {
	Historical(ctx context.Context, mint string, targetMs int64) (*domain.LiquiditySnapshot, error)
}

// Options configures an Oracle.
type Options struct {
	Store              storage.SnapshotStore // required
	CurrentProvider    CurrentProvider       // optional
	HistoricalProvider HistoricalProvider    // optional
	CacheTTL           time.Duration         // current-lookup cache TTL
	Tolerance          time.Duration         // default historical tolerance window
	Metrics            *observability.Metrics
	Logger             *zap.Logger
}

// Default configuration values.
const (
	DefaultCacheTTL  = 30 * time.Second
	DefaultTolerance = 15 * time.Minute
)

// Oracle resolves liquidity snapshots. The in-memory cache and the durable
// store write path are both safe for concurrent use, so an Oracle may be
// shared across parallel wallet evaluations.
type Oracle struct {
	store       storage.SnapshotStore
	current     CurrentProvider
	historical  HistoricalProvider
	cache       *snapshotCache
	toleranceMs int64
	metrics     *observability.Metrics
	log         *zap.Logger
}

// NewOracle creates a new Oracle.
func NewOracle(opts Options) *Oracle {
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Oracle{
		store:       opts.Store,
		current:     opts.CurrentProvider,
		historical:  opts.HistoricalProvider,
		cache:       newSnapshotCache(ttl),
		toleranceMs: tolerance.Milliseconds(),
		metrics:     opts.Metrics,
		log:         log,
	}
}

// Current returns the live liquidity snapshot for mint, or (nil, nil) if no
// source has data. Lookups go through the TTL cache.
func (o *Oracle) Current(ctx context.Context, mint string) (*domain.LiquiditySnapshot, error) {
	if cached := o.cache.get(mint); cached != nil {
		if o.metrics != nil {
			o.metrics.SnapshotCacheHits.Inc()
		}
		return cached, nil
	}
	if o.metrics != nil {
		o.metrics.SnapshotCacheMisses.Inc()
	}

	if o.current == nil {
		return nil, nil
	}

	snap, err := o.current.Current(ctx, mint)
	if err != nil {
		// Provider trouble is data-unavailable, not a crash.
		o.log.Warn("current liquidity lookup failed",
			zap.String("mint", mint), zap.Error(err))
		return nil, nil
	}
	if snap == nil {
		return nil, nil
	}

	o.cache.put(snap)
	return snap, nil
}

// Historical returns the stored or provider snapshot closest to targetMs
// within toleranceMs (the oracle default when toleranceMs <= 0), or
// (nil, nil) if neither source has an acceptable point. A provider result
// is written back to the durable store for future reuse.
func (o *Oracle) Historical(ctx context.Context, mint string, targetMs, toleranceMs int64) (*domain.LiquiditySnapshot, error) {
	if toleranceMs <= 0 {
		toleranceMs = o.toleranceMs
	}

	snap, err := o.store.GetClosest(ctx, mint, targetMs, toleranceMs)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		o.log.Warn("snapshot store lookup failed",
			zap.String("mint", mint), zap.Error(err))
	}

	if o.historical == nil {
		return nil, nil
	}

	snap, err = o.historical.Historical(ctx, mint, targetMs)
	if err != nil {
		o.log.Warn("historical liquidity lookup failed",
			zap.String("mint", mint), zap.Int64("target_ms", targetMs), zap.Error(err))
		return nil, nil
	}
	if snap == nil {
		return nil, nil
	}

	// Accept only points inside the tolerance window.
	dist := snap.TimestampMs - targetMs
	if dist < 0 {
		dist = -dist
	}
	if dist > toleranceMs {
		return nil, nil
	}

	if err := o.SaveSnapshot(ctx, snap); err != nil {
		o.log.Warn("snapshot write-back failed",
			zap.String("mint", mint), zap.Error(err))
	}

	return snap, nil
}

// HistoricalOrCurrent resolves liquidity at targetMs, falling back to a live
// lookup when no historical point exists. Fallback results carry the
// requested timestamp and the current_fallback provenance tag; callers must
// treat them as lower confidence. Only returns (nil, nil) when no data
// exists anywhere.
func (o *Oracle) HistoricalOrCurrent(ctx context.Context, mint string, targetMs int64) (*domain.LiquiditySnapshot, error) {
	snap, err := o.Historical(ctx, mint, targetMs, 0)
	if err != nil {
		return nil, err
	}
	if snap != nil {
		return snap, nil
	}

	snap, err = o.Current(ctx, mint)
	if err != nil || snap == nil {
		return nil, err
	}

	if o.metrics != nil {
		o.metrics.FallbackLookups.Inc()
	}

	fallback := *snap
	fallback.TimestampMs = targetMs
	fallback.Source = domain.SnapshotSourceCurrentFallback
	return &fallback, nil
}

// SaveSnapshot persists a snapshot to the durable store. Duplicate writes
// for the same (mint, timestamp) are idempotent.
func (o *Oracle) SaveSnapshot(ctx context.Context, snap *domain.LiquiditySnapshot) error {
	return o.store.Upsert(ctx, snap)
}

// Warm inserts a snapshot into the current-lookup cache without touching the
// durable store. Used by the streaming liquidity feed.
func (o *Oracle) Warm(snap *domain.LiquiditySnapshot) {
	o.cache.put(snap)
}
