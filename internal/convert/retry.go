// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultAttempts is the number of conversion attempts per file.
	DefaultAttempts = 3

	// DefaultRetryDelay is the wait before the second attempt. It doubles
	// after each further failure.
	DefaultRetryDelay = 2 * time.Second

	maxRetryDelay = 2 * time.Minute
)

// Retrier runs an operation a fixed number of times with doubling delays.
type Retrier struct {
	attempts int
	delay    time.Duration
}

// NewRetrier returns a Retrier making exactly attempts calls (at least one)
// before giving up. A negative delay is treated as zero.
func NewRetrier(attempts int, delay time.Duration) *Retrier {
	if attempts < 1 {
		attempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	return &Retrier{attempts: attempts, delay: delay}
}

// Attempts returns the maximum number of calls Do makes.
func (r *Retrier) Attempts() int { return r.attempts }

func (r *Retrier) newBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.delay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = maxRetryDelay
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.attempts-1)), ctx)
}

// Do calls op until it succeeds, the attempts are used up, or ctx is
// cancelled. op receives the 1-based attempt number. notify, if set, runs
// before each wait. Do returns the number of calls made and the last error.
func (r *Retrier) Do(ctx context.Context, op func(attempt int) error, notify func(err error, wait time.Duration)) (int, error) {
	attempts := 0
	err := backoff.RetryNotify(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		err := op(attempts)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, r.newBackoff(ctx), notify)
	return attempts, err
}
