package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ink-splatters/linear-cli-sub001/internal/apperr"
)

// RetryPolicy controls how failed API calls are retried.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries uint

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryPolicy matches the API's rate-limit guidance: three
// retries, 1 s initial delay doubling up to 30 s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
	}
}

// NoRetry disables retries.
func NoRetry() RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = 0
	return p
}

// Do runs op with this policy. Non-retryable failures (auth, not
// found, validation) abort immediately; a rate limit with a
// Retry-After hint waits exactly that long.
func (p RetryPolicy) Do(ctx context.Context, op func() (map[string]any, error)) (map[string]any, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = p.InitialDelay
	expo.MaxInterval = p.MaxDelay
	expo.Multiplier = p.Multiplier
	expo.RandomizationFactor = 0.25

	attempt := func() (map[string]any, error) {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !apperr.Retryable(err) {
			return nil, backoff.Permanent(err)
		}
		if after := apperr.RetryAfter(err); after > 0 {
			return nil, backoff.RetryAfter(after)
		}
		return nil, err
	}

	return backoff.Retry(ctx, attempt,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(p.MaxRetries+1),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Warn("request failed, retrying", "error", err, "wait", wait)
		}),
	)
}
