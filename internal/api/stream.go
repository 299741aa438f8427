package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Dhanuzh/starbott/internal/apierr"
)

// Stream sends req once and feeds every server-sent event to fn in arrival
// order. Streams are never retried and count once against the circuit
// breaker. A non-2xx reply is mapped exactly like Do; a failure while reading
// the body after the stream started becomes a Network error so the caller
// always learns that the stream ended early.
func (c *Client) Stream(ctx context.Context, req Request, fn func(Event) error) error {
	token, err := c.authToken(req)
	if err != nil {
		return err
	}
	payload, err := encodeBody(req.Body)
	if err != nil {
		return err
	}
	target := req.url(c.baseURL)

	httpReq, err := c.newHTTPRequest(ctx, req.Method, target, payload, token, "text/event-stream")
	if err != nil {
		var bad *badRequestError
		if errors.As(err, &bad) {
			return apierr.Wrap(apierr.KindUsage, bad.err, "Invalid request URL %q: %v", target, bad.err)
		}
		return err
	}

	return c.guarded(func() error {
		return c.stream(ctx, httpReq, fn)
	})
}

func (c *Client) stream(ctx context.Context, httpReq *http.Request, fn func(Event) error) error {
	target := httpReq.URL.String()
	resp, err := c.execute(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return apierr.Wrap(apierr.KindNetwork, ctx.Err(), "Request cancelled.")
		}
		return c.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return c.statusError(resp.StatusCode, resp.Header.Get("x-request-id"), decodeBody(body))
	}

	started := time.Now()
	err = ReadEvents(resp.Body, fn)
	var rerr *readError
	if errors.As(err, &rerr) {
		if ctx.Err() != nil {
			return apierr.Wrap(apierr.KindNetwork, ctx.Err(), "Request cancelled.")
		}
		c.logger.Debug("stream interrupted", "url", target, "after", time.Since(started), "error", rerr.err)
		return apierr.Wrap(apierr.KindNetwork, rerr.err, "stream interrupted: %v", rerr.err)
	}
	return err
}
