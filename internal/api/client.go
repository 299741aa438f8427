// Package api is the HTTP transport for the Starbott backend: authenticated
// JSON requests with bounded retries, SSE streaming, and the typed endpoint
// helpers used by both the CLI and the TUI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// MissingTokenMessage is returned when an authenticated call has no token.
const MissingTokenMessage = "Missing token. Run `starbott auth login` first."

// Version is stamped into the User-Agent header. Overridden by main.
var Version = "dev"

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Retries int
	Debug   bool

	// RateLimit caps outgoing attempts per second. Zero disables pacing.
	RateLimit float64
	Breaker   BreakerConfig

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs API calls. A Client is safe for concurrent use; Clone gives
// background jobs their own copy sharing the connection pool.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	retries int
	debug   bool

	http    *http.Client
	breaker *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	logger  *slog.Logger

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// New builds a Client from opts.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: newTransport(timeout)}
	}

	host := opts.BaseURL
	if u, err := url.Parse(opts.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL: strings.TrimSpace(opts.BaseURL),
		token:   strings.TrimSpace(opts.Token),
		timeout: timeout,
		retries: retries,
		debug:   opts.Debug,
		http:    hc,
		breaker: newBreaker(host, opts.Breaker, logger),
		limiter: limiter,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Clone returns a shallow copy. The copy shares the connection pool, breaker
// and limiter, so a burst of background jobs is still paced as one client.
func (c *Client) Clone() *Client {
	cp := *c
	return &cp
}

// WithToken returns a copy authenticated with token.
func (c *Client) WithToken(token string) *Client {
	cp := c.Clone()
	cp.token = strings.TrimSpace(token)
	return cp
}

func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) HasToken() bool  { return c.token != "" }
func (c *Client) Debug() bool     { return c.debug }

// Do sends req and decodes the JSON reply. Idempotent requests get up to
// Retries extra attempts on transient failures and 429/502/503/504.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	token, err := c.authToken(req)
	if err != nil {
		return nil, err
	}
	payload, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	target := req.url(c.baseURL)

	var resp *Response
	err = c.guarded(func() error {
		var err error
		resp, err = c.do(ctx, req, target, payload, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// do is the attempt loop of one logical request.
func (c *Client) do(ctx context.Context, req Request, target string, payload []byte, token string) (*Response, error) {
	attempts := 1
	if req.Idempotent {
		attempts = c.retries + 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		last := attempt+1 >= attempts
		started := time.Now()

		raw, err := c.roundTrip(ctx, req.Method, target, payload, token)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apierr.Wrap(apierr.KindNetwork, ctx.Err(), "Request cancelled.")
			}
			var bad *badRequestError
			if errors.As(err, &bad) {
				return nil, apierr.Wrap(apierr.KindUsage, bad.err, "Invalid request URL %q: %v", target, bad.err)
			}
			c.logger.Debug("request attempt failed",
				"method", req.Method, "url", target, "attempt", attempt+1, "error", err)
			if !last {
				if err := c.backoff(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, c.transportError(err)
		}

		if IsRetryableStatus(raw.status) && !last {
			c.logger.Debug("retryable status",
				"method", req.Method, "url", target, "attempt", attempt+1, "status", raw.status)
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}

		requestID := raw.header.Get("x-request-id")
		body := decodeBody(raw.body)
		if raw.status < 200 || raw.status > 299 {
			return nil, c.statusError(raw.status, requestID, body)
		}
		return &Response{
			RequestID: requestID,
			Elapsed:   time.Since(started),
			Status:    raw.status,
			JSON:      body,
		}, nil
	}

	return nil, apierr.Network("%s", apierr.WithDebugHint("Request failed after retries.", c.debug))
}

func (c *Client) authToken(req Request) (string, error) {
	if !req.Auth {
		return "", nil
	}
	if c.token == "" {
		return "", apierr.Auth(MissingTokenMessage)
	}
	return c.token, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindUsage, err, "Invalid request body: %v", err)
	}
	return b, nil
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	if err := c.sleep(ctx, BackoffDelay(attempt)); err != nil {
		return apierr.Wrap(apierr.KindNetwork, err, "Request cancelled.")
	}
	return nil
}

// ─── Single attempt ─────────────────────────────────────────────────────────────

type rawResponse struct {
	status int
	header http.Header
	body   []byte
}

type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }

func (c *Client) newHTTPRequest(ctx context.Context, method, target string, payload []byte, token, accept string) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &badRequestError{err: err}
	}
	if u := req.URL; u.Scheme != "http" && u.Scheme != "https" {
		return nil, &badRequestError{err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "starbott/"+Version)
	req.Header.Set("X-Client-Request-Id", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// execute sends one request, paced by the limiter.
func (c *Client) execute(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.http.Do(req)
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, token string) (*rawResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newHTTPRequest(attemptCtx, method, target, payload, token, "application/json")
	if err != nil {
		return nil, err
	}
	resp, err := c.execute(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &rawResponse{status: resp.StatusCode, header: resp.Header, body: body}, nil
}

// ─── Error mapping ──────────────────────────────────────────────────────────────

func (c *Client) transportError(err error) *apierr.Error {
	if isTimeout(err) {
		return apierr.Wrap(apierr.KindNetwork, err, "%s", apierr.WithDebugHint("Request timed out.", c.debug))
	}
	return apierr.Wrap(apierr.KindNetwork, err, "%s",
		apierr.WithDebugHint(fmt.Sprintf("Network request failed: %v", err), c.debug))
}

// statusError builds the error for a non-2xx reply. In debug mode the payload
// is attached with the bearer token redacted.
func (c *Client) statusError(status int, requestID string, payload map[string]any) *apierr.Error {
	msg := errorMessage(payload, status)
	if requestID != "" {
		msg += fmt.Sprintf(" (request_id: %s)", requestID)
	}
	if c.debug {
		if b, err := json.Marshal(payload); err == nil {
			msg += " payload=" + apierr.Redact(string(b), c.token)
		}
	} else {
		msg += apierr.DebugHint
	}
	e := apierr.FromStatus(status, msg)
	e.RequestID = requestID
	return e
}
