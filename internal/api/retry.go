package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// Retry constants. After failed attempt k (zero based) the client waits
// RetryBaseDelay * 2^min(k, RetryMaxShift).
const (
	RetryBaseDelay = 200 * time.Millisecond
	RetryMaxShift  = 6
)

// BackoffDelay returns the pause that follows failed attempt k.
func BackoffDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > RetryMaxShift {
		attempt = RetryMaxShift
	}
	return RetryBaseDelay << uint(attempt)
}

// IsRetryableStatus reports whether an HTTP status is worth another attempt.
func IsRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isTimeout reports whether a transport error was a deadline expiry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// sleepCtx sleeps for d, returning early with ctx.Err() when ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
