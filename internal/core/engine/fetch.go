package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultBackoffBase is the delay after the first failed attempt; it doubles
// with each further attempt.
const DefaultBackoffBase = time.Second

const maxBackoff = time.Duration(math.MaxInt64)

// Logger is the subset of the CLI logger the fetcher reports progress to.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
}

// TransportError reports a request that did not produce a response.
type TransportError struct {
	URL     string
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("GET %s failed on attempt %d: %v", e.URL, e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError reports a response body that did not match the expected shape.
type DecodeError struct {
	URL        string
	Attempt    int
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response of GET %s (status %d, attempt %d): %v", e.URL, e.StatusCode, e.Attempt, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Fetcher issues rate limited GET requests and retries transient failures
// with exponential backoff.
type Fetcher struct {
	Client      *http.Client
	Limiter     *RateLimiter
	UserAgent   string
	BackoffBase time.Duration
	Logger      Logger

	// Sleep suspends the caller; it must return early with ctx.Err() when
	// ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// FetchJSON performs GET url and decodes the JSON body into a T. Transport and
// decode failures are retried up to maxRetries times, sleeping
// BackoffBase*2^attempt after each failed attempt. When every attempt fails
// the error of the last one is returned.
//
// Any body that decodes is accepted, regardless of the HTTP status.
func FetchJSON[T any](ctx context.Context, f *Fetcher, url string, maxRetries int) (T, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := f.waitOnLimiter(ctx); err != nil {
			return zero, err
		}

		value, err := fetchOnce[T](ctx, f, url, attempt)
		if err == nil {
			return value, nil
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		if !retryable(err) {
			return zero, err
		}

		lastErr = err
		f.warn("Request failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)

		if err := f.sleep(ctx, f.backoff(attempt)); err != nil {
			return zero, fmt.Errorf("fetch %s: %w", url, err)
		}
	}

	return zero, lastErr
}

func fetchOnce[T any](ctx context.Context, f *Fetcher, url string, attempt int) (T, error) {
	var value T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return value, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	f.debug("GET", zap.String("url", url), zap.Int("attempt", attempt))
	resp, err := f.client().Do(req)
	f.Limiter.RegisterRequestPerformed()
	if err != nil {
		return value, &TransportError{URL: url, Attempt: attempt, Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return value, &DecodeError{URL: url, Attempt: attempt, StatusCode: resp.StatusCode, Err: err}
	}

	f.debug("GET finished", zap.String("url", url), zap.Int("status", resp.StatusCode))
	return value, nil
}

func retryable(err error) bool {
	var transportErr *TransportError
	var decodeErr *DecodeError
	return errors.As(err, &transportErr) || errors.As(err, &decodeErr)
}

func (f *Fetcher) waitOnLimiter(ctx context.Context) error {
	wait := f.Limiter.TimeUntilNextRequest()
	if wait <= 0 {
		return nil
	}

	f.debug("Sleeping on API limit",
		zap.Uint16("max_requests", f.Limiter.Config.MaxRequests),
		zap.Uint16("window_seconds", f.Limiter.Config.WindowSeconds),
		zap.Duration("wait", wait),
	)
	if err := f.sleep(ctx, wait); err != nil {
		return fmt.Errorf("wait on rate limit: %w", err)
	}
	return nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	base := f.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if attempt < 0 {
		attempt = 0
	}
	// base<<attempt must stay positive; past that point wait the longest
	// representable duration instead of wrapping around to no wait at all.
	if attempt >= 63 || base > maxBackoff>>uint(attempt) {
		return maxBackoff
	}
	return base << uint(attempt)
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep != nil {
		return f.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

func (f *Fetcher) debug(msg string, fields ...zap.Field) {
	if f.Logger != nil {
		f.Logger.Debug(msg, fields...)
	}
}

func (f *Fetcher) warn(msg string, fields ...zap.Field) {
	if f.Logger != nil {
		f.Logger.Warn(msg, fields...)
	}
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
