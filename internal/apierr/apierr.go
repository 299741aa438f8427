// Package apierr holds the error taxonomy shared by the transport, the TUI
// and the command layer. Every failure that leaves internal/api is an *Error
// carrying one of the Kinds below; the process exit code is derived from it.
package apierr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindUsage       Kind = "usage"
	KindAuth        Kind = "auth"
	KindNetwork     Kind = "network"
	KindRateLimited Kind = "rate_limited"
	KindServer      Kind = "server"
	KindGeneric     Kind = "generic"
)

// Process exit codes, one per Kind.
const (
	ExitGeneric     = 1
	ExitAuth        = 2
	ExitUsage       = 3
	ExitNetwork     = 4
	ExitRateLimited = 5
	ExitServer      = 6
)

// Error is a classified failure.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	RequestID  string
	Original   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Original
}

// ExitCode maps the error kind to the process exit code.
func (e *Error) ExitCode() int {
	return e.Kind.ExitCode()
}

// Retryable reports whether the kind is ever eligible for an automatic retry.
// Whether a retry actually happens also depends on the request being idempotent.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindRateLimited, KindServer:
		return true
	}
	return false
}

func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return ExitUsage
	case KindAuth:
		return ExitAuth
	case KindNetwork:
		return ExitNetwork
	case KindRateLimited:
		return ExitRateLimited
	case KindServer:
		return ExitServer
	default:
		return ExitGeneric
	}
}

// Title is a short human label for the kind, used by the TUI status line.
func (k Kind) Title() string {
	switch k {
	case KindUsage:
		return "Invalid request"
	case KindAuth:
		return "Authentication failed"
	case KindNetwork:
		return "Network error"
	case KindRateLimited:
		return "Rate limited"
	case KindServer:
		return "Server error"
	default:
		return "Error"
	}
}

// ─── Constructors ───────────────────────────────────────────────────────────────

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Usage(format string, args ...any) *Error       { return newf(KindUsage, format, args...) }
func Auth(format string, args ...any) *Error        { return newf(KindAuth, format, args...) }
func Network(format string, args ...any) *Error     { return newf(KindNetwork, format, args...) }
func RateLimited(format string, args ...any) *Error { return newf(KindRateLimited, format, args...) }
func Server(format string, args ...any) *Error      { return newf(KindServer, format, args...) }
func Generic(format string, args ...any) *Error     { return newf(KindGeneric, format, args...) }

// Wrap classifies err as kind, keeping it reachable through errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.Original = err
	return e
}

// KindForStatus maps a non-2xx HTTP status to a Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 400:
		return KindUsage
	case status == 401 || status == 403:
		return KindAuth
	case status == 429:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServer
	default:
		return KindGeneric
	}
}

// FromStatus builds the error for a failed HTTP exchange.
func FromStatus(status int, message string) *Error {
	return &Error{Kind: KindForStatus(status), Message: message, StatusCode: status}
}

// ─── Inspection ─────────────────────────────────────────────────────────────────

// KindOf returns the kind of err. Unclassified errors are Generic.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGeneric
}

// ExitCodeOf returns the exit code for err, 0 for nil.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
