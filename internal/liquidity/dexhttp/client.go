// Package dexhttp implements the external liquidity provider contract over
// a DEX-screener style JSON HTTP API.
package dexhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wallet-scout/internal/domain"
	"wallet-scout/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
	DefaultMaxDelay    = 5 * time.Second
	DefaultBackoffMult = 2.0
)

// Client queries the external liquidity provider. It implements both the
// liquidity.CurrentProvider and liquidity.HistoricalProvider contracts.
type Client struct {
	baseURL     string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	metrics     *observability.Metrics
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMetrics records request latency on m. A nil m disables recording.
func WithMetrics(m *observability.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new provider client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// liquidityResponse is the provider's JSON payload for one token.
type liquidityResponse struct {
	Mint         string  `json:"mint"`
	LiquiditySOL float64 `json:"liquidity_sol"`
	PriceUSD     float64 `json:"price_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	TimestampMs  int64   `json:"timestamp_ms"`
}

// Current returns the provider's live snapshot for mint, or (nil, nil) when
// the provider does not track the token.
func (c *Client) Current(ctx context.Context, mint string) (*domain.LiquiditySnapshot, error) {
	query := url.Values{"mint": {mint}}
	resp, err := c.getJSON(ctx, "/v1/liquidity/current", query)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return toSnapshot(resp), nil
}

// Historical returns the provider's snapshot nearest to targetMs, or
// (nil, nil) when the provider has no history for the token. The oracle
// enforces the tolerance window; this client just reports what it got.
func (c *Client) Historical(ctx context.Context, mint string, targetMs int64) (*domain.LiquiditySnapshot, error) {
	query := url.Values{
		"mint": {mint},
		"ts":   {strconv.FormatInt(targetMs, 10)},
	}
	resp, err := c.getJSON(ctx, "/v1/liquidity/historical", query)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return toSnapshot(resp), nil
}

func toSnapshot(resp *liquidityResponse) *domain.LiquiditySnapshot {
	return &domain.LiquiditySnapshot{
		Mint:         resp.Mint,
		LiquiditySOL: resp.LiquiditySOL,
		PriceUSD:     resp.PriceUSD,
		Volume24hUSD: resp.Volume24hUSD,
		TimestampMs:  resp.TimestampMs,
		Source:       domain.SnapshotSourceProvider,
	}
}

// getJSON performs a GET with retries. A 404 means the provider has no data
// and returns (nil, nil); 5xx and transport errors are retried with capped
// exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (*liquidityResponse, error) {
	endpoint := c.baseURL + path + "?" + query.Encode()

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		result, retryable, err := c.doGet(ctx, endpoint)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("provider request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// doGet performs one GET attempt. The bool reports whether a failure is
// worth retrying.
func (c *Client) doGet(ctx context.Context, endpoint string) (*liquidityResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if c.metrics != nil {
		c.metrics.ProviderLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	var result liquidityResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("decode response: %w", err)
	}

	return &result, false, nil
}
