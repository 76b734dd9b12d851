// Package httputil provides HTTP utilities for outbound requests.
//
// # Overview
//
// This package provides infrastructure for the webhook notifier and any
// other outbound HTTP client:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//   - [Fetcher]: Cached, retrying downloads of hosted board documents
//   - [Notifier]: Posts clearance check results to a configured endpoint
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/copperview/)
// with configurable TTL. This speeds up repeated operations against
// remote board stores.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24 * time.Hour)
//	ok, err := cache.Get("boards:main", &board)  // Check cache
//	if !ok {
//	    board = fetchFromAPI()
//	    cache.Set("boards:main", board)          // Store for later
//	}
//
// Cache keys should be namespaced by source to avoid collisions.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff to avoid hammering a recovering endpoint:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return postResults(url, payload)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/copperview/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `copperview cache clear` or by deleting
// the cache directory.
package httputil
