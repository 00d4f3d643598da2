// Package feed streams live liquidity updates over a websocket and warms
// the oracle's current-liquidity cache with them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wallet-scout/internal/domain"
)

// Warmer receives pushed snapshots. Satisfied by liquidity.Oracle.
type Warmer interface {
	Warm(snap *domain.LiquiditySnapshot)
}

// Config configures feed behavior.
type Config struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout bounds each message read.
	ReadTimeout time.Duration
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
	}
}

// Feed maintains a websocket subscription for a set of mints and pushes
// every update into the warmer. Connection loss triggers reconnection with
// capped backoff; the feed never fails the evaluation run.
type Feed struct {
	endpoint string
	mints    []string
	config   Config
	warmer   Warmer
	log      *zap.Logger

	closed atomic.Bool
}

// New creates a feed for the given mints.
func New(endpoint string, mints []string, warmer Warmer, config *Config, log *zap.Logger) *Feed {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Feed{
		endpoint: endpoint,
		mints:    mints,
		config:   cfg,
		warmer:   warmer,
		log:      log,
	}
}

// subscribeRequest is the wire format for the subscription handshake.
type subscribeRequest struct {
	Op    string   `json:"op"`
	Mints []string `json:"mints"`
}

// update is the wire format of one pushed liquidity update.
type update struct {
	Mint         string  `json:"mint"`
	LiquiditySOL float64 `json:"liquidity_sol"`
	PriceUSD     float64 `json:"price_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	TimestampMs  int64   `json:"timestamp_ms"`
}

// Run connects and consumes updates until the context is cancelled or
// Close is called. Each connection loss is followed by a reconnect with
// capped backoff.
func (f *Feed) Run(ctx context.Context) {
	delay := f.config.ReconnectDelay

	for {
		if ctx.Err() != nil || f.closed.Load() {
			return
		}

		start := time.Now()
		err := f.consume(ctx)
		connectedFor := time.Since(start)
		if ctx.Err() != nil || f.closed.Load() {
			return
		}
		if err != nil {
			f.log.Warn("liquidity feed disconnected", zap.Error(err),
				zap.Duration("connected_for", connectedFor),
				zap.Duration("reconnect_in", delay))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = f.nextDelay(delay, connectedFor)
	}
}

// nextDelay grows the reconnect backoff after a short-lived connection. A
// connection that outlived the backoff cap means the endpoint recovered, so
// the backoff restarts from the configured base instead of staying pinned
// at the cap.
func (f *Feed) nextDelay(current, connectedFor time.Duration) time.Duration {
	if connectedFor >= f.config.MaxReconnectDelay {
		return f.config.ReconnectDelay
	}
	next := current * 2
	if next > f.config.MaxReconnectDelay {
		next = f.config.MaxReconnectDelay
	}
	return next
}

// Close stops the feed after the current read returns.
func (f *Feed) Close() {
	f.closed.Store(true)
}

// consume dials, subscribes, and reads updates until the connection drops.
func (f *Feed) consume(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	sub := subscribeRequest{Op: "subscribe", Mints: f.mints}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	// Close the connection when the context is cancelled so the blocked
	// read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	pingTicker := time.NewTicker(f.config.PingInterval)
	defer pingTicker.Stop()
	go func() {
		for {
			select {
			case <-pingTicker.C:
				conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			case <-done:
				return
			}
		}
	}()

	for {
		if f.closed.Load() {
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read feed message: %w", err)
		}

		var u update
		if err := json.Unmarshal(data, &u); err != nil {
			f.log.Warn("malformed feed message", zap.Error(err))
			continue
		}
		if u.Mint == "" || u.LiquiditySOL < 0 {
			continue
		}

		f.warmer.Warm(&domain.LiquiditySnapshot{
			Mint:         u.Mint,
			LiquiditySOL: u.LiquiditySOL,
			PriceUSD:     u.PriceUSD,
			Volume24hUSD: u.Volume24hUSD,
			TimestampMs:  u.TimestampMs,
			Source:       domain.SnapshotSourceFeed,
		})
	}
}
