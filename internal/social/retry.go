// internal/social/retry.go
//
// Explicit retry policy for network calls.
// Every failed attempt is logged and followed by an exponentially growing wait;
// once MaxAttempts is reached the last error is returned wrapped in
// ErrRetriesExhausted, which the bot treats as fatal.

package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrRetriesExhausted is returned when every attempt of a call failed.
var ErrRetriesExhausted = errors.New("social: retries exhausted")

// RetryPolicy configures exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the number of attempts, the first one included.
	MaxAttempts int

	// InitialBackoff is the wait after the first failure.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration

	// Factor multiplies the wait after every failure.
	Factor float64

	// Sleep waits d or returns early with ctx.Err(). Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy waits 1m, 2m, 4m... up to 30m, ten attempts in total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    10,
		InitialBackoff: time.Minute,
		MaxBackoff:     30 * time.Minute,
		Factor:         2,
	}
}

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Factor)
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Do runs fn until it succeeds, the attempts run out or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(ctx)
		if last == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		wait := p.Backoff(attempt)
		log.Warn().Err(last).
			Str("op", op).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Msg("call failed, retrying")
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, op, attempts, last)
}

// SleepContext waits d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrying applies a RetryPolicy to every call of the wrapped client.
type Retrying struct {
	Client Client
	Policy RetryPolicy
}

// WithRetry wraps c.
func WithRetry(c Client, p RetryPolicy) *Retrying {
	return &Retrying{Client: c, Policy: p}
}

func (r *Retrying) Publish(ctx context.Context, message, imagePath string) (string, error) {
	var id string
	err := r.Policy.Do(ctx, "publish", func(ctx context.Context) error {
		var err error
		id, err = r.Client.Publish(ctx, message, imagePath)
		return err
	})
	return id, err
}

func (r *Retrying) FetchReplies(ctx context.Context) ([]Reply, error) {
	var replies []Reply
	err := r.Policy.Do(ctx, "fetch_replies", func(ctx context.Context) error {
		var err error
		replies, err = r.Client.FetchReplies(ctx)
		return err
	})
	return replies, err
}
