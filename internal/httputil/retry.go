// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for network-backed converters.
package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryBaseDelay is the wait before the first retry. Tests override this to
// avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const (
	defaultMaxRetries = 5

	// maxRetryAfter caps a server-supplied Retry-After hint.
	maxRetryAfter = 2 * time.Minute

	// maxKeptBody bounds how much of a retryable response body is buffered.
	maxKeptBody = 64 << 10
)

// Retryable reports whether status signals a transient overload: 429 Too
// Many Requests, or 503 Service Unavailable from a busy conversion server.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("retryable status %d", e.code) }

// DoWithRetry executes an HTTP request and retries Retryable responses with
// exponential backoff. The delay starts at RetryBaseDelay and doubles each
// attempt (10 s, 20 s, 40 s, ...) unless the server sends Retry-After.
//
// When maxRetries is 0 the default (5) is used. Requests with a body must
// be replayable (req.GetBody set, as http.NewRequest does for in-memory
// bodies). If the context is cancelled during a wait the function returns
// ctx.Err(). After exhausting retries the last retryable response is
// returned so the caller can inspect it.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = RetryBaseDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = RetryBaseDelay << min(maxRetries, 8)
	eb.MaxElapsedTime = 0
	hinted := &hintedBackOff{BackOff: eb}
	b := backoff.WithContext(backoff.WithMaxRetries(hinted, uint64(maxRetries)), ctx)

	var (
		last    *http.Response
		attempt int
	)
	op := func() error {
		r := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("rewinding request body: %w", err))
			}
			r.Body = body
		}
		attempt++

		resp, err := client.Do(r)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !Retryable(resp.StatusCode) {
			last = resp
			return nil
		}

		// Buffer the body so the connection can be reused and the final
		// response can still be handed back.
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxKeptBody))
		resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(data))
		last = resp

		hinted.hint = retryAfter(resp.Header.Get("Retry-After"), time.Now())
		return &statusError{code: resp.StatusCode}
	}

	err := backoff.Retry(op, b)
	var se *statusError
	switch {
	case err == nil, errors.As(err, &se):
		return last, nil
	default:
		return nil, err
	}
}

// hintedBackOff substitutes a pending Retry-After hint for the next
// computed interval.
type hintedBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if h.hint > 0 {
		next, h.hint = h.hint, 0
	}
	return next
}

// retryAfter parses a Retry-After header given either as delay seconds or
// as an HTTP date. Unusable values yield zero.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(v); err == nil {
		d = t.Sub(now)
	}
	if d <= 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}
