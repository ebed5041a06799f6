package engine

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/osudump/osudump/internal/core"
)

type payload struct {
	Value string `json:"value"`
}

type recordedSleeps struct {
	durations []time.Duration
}

func (r *recordedSleeps) Sleep(ctx context.Context, d time.Duration) error {
	r.durations = append(r.durations, d)
	return ctx.Err()
}

// flakyServer answers with a body that fails to decode for the first
// failures requests.
func flakyServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			_, _ = w.Write([]byte(`{"value":`))
			return
		}
		_, _ = w.Write([]byte(`{"value":"ok"}`))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func newTestFetcher(client *http.Client, sleeps *recordedSleeps) *Fetcher {
	return &Fetcher{
		Client:  client,
		Limiter: NewRateLimiter(core.RateLimitConfig{MaxRequests: 10, WindowSeconds: 60}),
		Sleep:   sleeps.Sleep,
		Logger:  zap.NewNop(),
	}
}

func TestFetchJSONSucceedsAfterRetries(t *testing.T) {
	server, hits := flakyServer(t, 2)
	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(server.Client(), sleeps)

	result, err := FetchJSON[payload](context.Background(), fetcher, server.URL, 3)
	require.NoError(t, err)
	require.Equal(t, "ok", result.Value)
	require.Equal(t, int32(3), hits.Load())
	require.Equal(t, 3, fetcher.Limiter.Recorded())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.durations)
}

func TestFetchJSONExhaustsRetries(t *testing.T) {
	server, hits := flakyServer(t, 100)
	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(server.Client(), sleeps)

	_, err := FetchJSON[payload](context.Background(), fetcher, server.URL, 3)
	require.Error(t, err)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, 3, decodeErr.Attempt)
	require.Equal(t, http.StatusOK, decodeErr.StatusCode)

	require.Equal(t, int32(4), hits.Load())
	require.Equal(t, 4, fetcher.Limiter.Recorded())
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeps.durations)
}

func TestFetchJSONTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	client := server.Client()
	server.Close()

	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(client, sleeps)
	fetcher.BackoffBase = 10 * time.Millisecond

	_, err := FetchJSON[payload](context.Background(), fetcher, url, 1)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, url, transportErr.URL)
	require.Equal(t, 2, fetcher.Limiter.Recorded())
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, sleeps.durations)
}

func TestFetchJSONAcceptsDecodableErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "osudump/test", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"value":"missing"}`))
	}))
	defer server.Close()

	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(server.Client(), sleeps)
	fetcher.UserAgent = "osudump/test"

	result, err := FetchJSON[payload](context.Background(), fetcher, server.URL, 3)
	require.NoError(t, err)
	require.Equal(t, "missing", result.Value)
	require.Empty(t, sleeps.durations)
}

func TestFetchJSONWaitsOnLimiter(t *testing.T) {
	server, _ := flakyServer(t, 0)
	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(server.Client(), sleeps)

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	fetcher.Limiter = NewRateLimiter(core.RateLimitConfig{MaxRequests: 1, WindowSeconds: 30})
	fetcher.Limiter.Clock = clock.Now

	_, err := FetchJSON[payload](context.Background(), fetcher, server.URL, 0)
	require.NoError(t, err)
	require.Empty(t, sleeps.durations)

	clock.Advance(10 * time.Second)
	_, err = FetchJSON[payload](context.Background(), fetcher, server.URL, 0)
	require.NoError(t, err)
	require.Equal(t, []time.Duration{20 * time.Second}, sleeps.durations)
}

func TestFetchJSONStopsOnCancel(t *testing.T) {
	server, hits := flakyServer(t, 100)
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := newTestFetcher(server.Client(), nil)
	fetcher.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return SleepContext(ctx, d)
	}

	_, err := FetchJSON[payload](ctx, fetcher, server.URL, 3)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, int32(1), hits.Load())
}

func TestFetchJSONInvalidURL(t *testing.T) {
	sleeps := &recordedSleeps{}
	fetcher := newTestFetcher(http.DefaultClient, sleeps)

	_, err := FetchJSON[payload](context.Background(), fetcher, "http://bad host/", 3)
	require.Error(t, err)
	require.Zero(t, fetcher.Limiter.Recorded())
	require.Empty(t, sleeps.durations)
}

func TestBackoffNeverWrapsAround(t *testing.T) {
	fetcher := &Fetcher{}
	require.Equal(t, time.Second, fetcher.backoff(0))
	require.Equal(t, 8*time.Second, fetcher.backoff(3))
	require.Equal(t, time.Duration(1<<33)*time.Second, fetcher.backoff(33))

	previous := fetcher.backoff(0)
	for attempt := 1; attempt <= 100; attempt++ {
		delay := fetcher.backoff(attempt)
		require.Positive(t, delay, "attempt %d", attempt)
		require.GreaterOrEqual(t, delay, previous, "attempt %d", attempt)
		previous = delay
	}
	require.Equal(t, time.Duration(math.MaxInt64), fetcher.backoff(34))
	require.Equal(t, time.Duration(math.MaxInt64), fetcher.backoff(63))
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
