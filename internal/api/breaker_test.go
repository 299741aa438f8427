package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Options{
		BaseURL: srv.URL,
		Breaker: BreakerConfig{Threshold: 2, Cooldown: time.Minute},
	})

	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), Get("/health").Public())
		assert.Equal(t, apierr.KindServer, apierr.KindOf(err))
	}

	_, err := c.Do(context.Background(), Get("/health").Public())
	assert.Equal(t, apierr.KindNetwork, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "API unavailable")
	assert.Equal(t, int32(2), calls.Load())
}

// newBreakerClient keeps the breaker on and records backoff sleeps.
func newBreakerClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	opts.BaseURL = url
	c := New(opts)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func unavailableServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBreakerLeavesRetryBudgetIntact(t *testing.T) {
	var calls atomic.Int32
	srv := unavailableServer(t, &calls)

	c := newBreakerClient(t, srv.URL, Options{Retries: 6})
	_, err := c.Do(context.Background(), Get("/health").Public())

	require.Error(t, err)
	assert.Equal(t, int32(7), calls.Load())
	assert.Equal(t, apierr.KindServer, apierr.KindOf(err))
	assert.Equal(t, apierr.ExitServer, apierr.ExitCodeOf(err))
}

func TestBreakerCountsRequestsNotAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := unavailableServer(t, &calls)

	c := newBreakerClient(t, srv.URL, Options{Retries: 2})
	for i := 0; i < int(defaultBreakerThreshold); i++ {
		_, err := c.Clone().Do(context.Background(), Get("/health").Public())
		require.Error(t, err)
		assert.Equal(t, apierr.KindServer, apierr.KindOf(err), "request %d", i+1)
		assert.Equal(t, int32(3*(i+1)), calls.Load(), "request %d", i+1)
	}

	_, err := c.Do(context.Background(), Get("/health").Public())
	assert.Equal(t, apierr.KindNetwork, apierr.KindOf(err))
	assert.Contains(t, err.Error(), "API unavailable")
	assert.Equal(t, int32(3*defaultBreakerThreshold), calls.Load())
}

func TestBreakerIgnoresCancelledRequests(t *testing.T) {
	var calls atomic.Int32
	srv := unavailableServer(t, &calls)

	c := newBreakerClient(t, srv.URL, Options{Breaker: BreakerConfig{Threshold: 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, Get("/health").Public())
	require.Error(t, err)

	_, err = c.Do(context.Background(), Get("/health").Public())
	assert.Equal(t, apierr.KindServer, apierr.KindOf(err))
}

func TestBreakerCountsStreamOnce(t *testing.T) {
	var calls atomic.Int32
	srv := unavailableServer(t, &calls)

	c := newBreakerClient(t, srv.URL, Options{Token: "t", Breaker: BreakerConfig{Threshold: 1, Cooldown: time.Minute}})
	err := c.Stream(context.Background(), Post("/v1/inference/chat/stream", nil), func(Event) error { return nil })
	assert.Equal(t, apierr.KindServer, apierr.KindOf(err))

	err = c.Stream(context.Background(), Post("/v1/inference/chat/stream", nil), func(Event) error { return nil })
	assert.Equal(t, apierr.KindNetwork, apierr.KindOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Breaker: BreakerConfig{Threshold: 1}})
	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), Get("/nope").Public())
		assert.Equal(t, apierr.KindGeneric, apierr.KindOf(err))
	}
}

func TestCloneSharesBreaker(t *testing.T) {
	c := New(Options{BaseURL: "http://localhost:3737", Token: "a"})
	cp := c.Clone()
	assert.Same(t, c.breaker, cp.breaker)
	assert.Equal(t, "b", c.WithToken(" b ").token)
	assert.Equal(t, "a", c.token)
}
