package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/observability"
)

// Notifier posts JSON payloads to a configured webhook endpoint.
// Clearance check runs use it to push results to CI systems.
// Transient failures (network errors, 429, 5xx) are retried with
// exponential backoff.
type Notifier struct {
	endpoint string
	client   *http.Client
	attempts int
}

// NewNotifier creates a notifier for the given endpoint URL.
// The URL must use the http or https scheme.
func NewNotifier(endpoint string) (*Notifier, error) {
	if err := errors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	return &Notifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
	}, nil
}

// Endpoint returns the configured webhook URL.
func (n *Notifier) Endpoint() string { return n.endpoint }

// Notify marshals payload as JSON and posts it to the endpoint.
// The call is retried for transient failures; a 4xx response other
// than 429 fails immediately.
func (n *Notifier) Notify(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncoding, err, "marshal webhook payload")
	}

	return Retry(ctx, n.attempts, time.Second, func() error {
		return n.post(ctx, body)
	})
}

func (n *Notifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := n.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return &RetryableError{Err: fmt.Errorf("webhook returned %d", resp.StatusCode)}
	default:
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
}
