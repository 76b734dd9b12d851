package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/observability"
)

// maxFetchBytes bounds a remote board document.
const maxFetchBytes = 64 << 20

// Fetcher downloads board documents from remote stores with response
// caching and transient-failure retry. A nil cache disables caching.
type Fetcher struct {
	client *http.Client
	cache  *Cache
}

// NewFetcher creates a Fetcher backed by the given cache. Pass nil to
// fetch without caching.
func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
		cache:  cache,
	}
}

// Fetch returns the body at url. Fresh cache entries are served without a
// request; network errors, 429, and 5xx responses are retried with
// backoff, other statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.cache != nil {
		var body []byte
		if ok, err := f.cache.Get(url, &body); ok && err == nil {
			return body, nil
		}
	}

	var body []byte
	err := RetryWithBackoff(ctx, func() error {
		var err error
		body, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
	}

	if f.cache != nil {
		// Best effort; a failed write just means a re-download later.
		_ = f.cache.Set(url, body)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := f.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return nil, &RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter}}
	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("fetch returned %d", resp.StatusCode)}
	default:
		return nil, fmt.Errorf("fetch returned %d", resp.StatusCode)
	}
}
