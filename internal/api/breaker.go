package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// Default circuit breaker settings.
const (
	defaultBreakerThreshold uint32 = 5
	defaultBreakerCooldown         = 30 * time.Second
	defaultBreakerInterval         = 60 * time.Second
)

// BreakerConfig configures the per-client circuit breaker.
type BreakerConfig struct {
	// Threshold is the number of consecutive failed requests that opens the circuit.
	// A request fails once its whole retry budget is spent.
	Threshold uint32
	// Cooldown is how long the circuit stays open before a half-open probe.
	Cooldown time.Duration
	// Disabled turns the breaker into a pass-through.
	Disabled bool
}

func newBreaker(host string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	if cfg.Disabled {
		return nil
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = defaultBreakerThreshold
	}
	cooldown := cfg.Cooldown
	if cooldown == 0 {
		cooldown = defaultBreakerCooldown
	}

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "api:" + host,
		MaxRequests: 1,
		Interval:    defaultBreakerInterval,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !tripsBreaker(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// tripsBreaker reports whether a finished request counts against the backend.
// Only network and server failures do; a caller's own cancellation does not.
func tripsBreaker(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch apierr.KindOf(err) {
	case apierr.KindNetwork, apierr.KindServer:
		return true
	}
	return false
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// guarded runs one logical request, retries included, through the breaker.
// While the circuit is open fn is not called at all.
func (c *Client) guarded(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	if isBreakerOpen(err) {
		return apierr.Wrap(apierr.KindNetwork, err,
			"%s", apierr.WithDebugHint("API unavailable, backing off after repeated failures.", c.debug))
	}
	return err
}

// newTransport builds a pooled transport. respTimeout bounds the wait for
// response headers only, so long-lived event streams are not cut off.
func newTransport(respTimeout time.Duration) *http.Transport {
	if respTimeout <= 0 {
		respTimeout = 30 * time.Second
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   respTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: respTimeout,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       120 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}
