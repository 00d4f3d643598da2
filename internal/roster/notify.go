package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Notifier default configuration.
const (
	defaultNotifyTimeout = 10 * time.Second
	defaultNotifyRetries = 3
	defaultNotifyDelay   = 500 * time.Millisecond
)

// mergeNotification is the payload sent to the downstream merge process.
type mergeNotification struct {
	ArtifactPath string `json:"artifact_path"`
	RecordCount  int    `json:"record_count"`
	PublishedAt  int64  `json:"published_at"` // unix ms
}

// Notifier signals the downstream merge process after a successful publish.
// A notification failure is logged by the caller and never undoes the
// publish itself.
type Notifier struct {
	url        string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	log        *zap.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithNotifyHTTPClient sets a custom HTTP client.
func WithNotifyHTTPClient(c *http.Client) NotifierOption {
	return func(n *Notifier) { n.httpClient = c }
}

// WithNotifyRetries sets the retry count for failed notifications.
func WithNotifyRetries(retries int) NotifierOption {
	return func(n *Notifier) { n.maxRetries = retries }
}

// WithNotifyRetryDelay sets the base delay between retries.
func WithNotifyRetryDelay(d time.Duration) NotifierOption {
	return func(n *Notifier) { n.retryDelay = d }
}

// NewNotifier creates a Notifier posting to url.
func NewNotifier(url string, log *zap.Logger, opts ...NotifierOption) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Notifier{
		url:        url,
		httpClient: &http.Client{Timeout: defaultNotifyTimeout},
		maxRetries: defaultNotifyRetries,
		retryDelay: defaultNotifyDelay,
		log:        log,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify posts the merge notification, retrying transient failures with
// capped exponential backoff.
func (n *Notifier) Notify(ctx context.Context, artifactPath string, recordCount int) error {
	body, err := json.Marshal(mergeNotification{
		ArtifactPath: artifactPath,
		RecordCount:  recordCount,
		PublishedAt:  time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.retryDelay * time.Duration(1<<(attempt-1))
			if delay > 5*time.Second {
				delay = 5 * time.Second
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = n.post(ctx, body)
		if lastErr == nil {
			n.log.Debug("merge notification delivered",
				zap.String("url", n.url), zap.Int("records", recordCount))
			return nil
		}
		n.log.Warn("merge notification attempt failed",
			zap.Int("attempt", attempt+1), zap.Error(lastErr))
	}

	return fmt.Errorf("notify merge process after %d attempts: %w", n.maxRetries+1, lastErr)
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
