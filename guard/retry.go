package guard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures retry behavior. The zero value performs a single
// attempt with no delay; delay parameters default when unset.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the initial attempt, so
	// the operation runs at most MaxRetries+1 times. Zero means exactly
	// one attempt.
	MaxRetries int

	// BaseDelay is the delay before the first retry.
	// Default: 100ms
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries.
	// Default: 30 seconds
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay each retry. Values below 1 are
	// treated as 1 (constant delay).
	// Default: 2.0
	BackoffFactor float64

	// Jitter adds a uniformly random value in [0, 0.1*delay] to each
	// delay to avoid synchronized retry storms.
	Jitter bool

	// RetryIf classifies errors as retryable. Default: everything except
	// context cancellation and deadline expiry is retryable.
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Clock supplies timers for the inter-attempt delay.
	// Default: SystemClock.
	Clock Clock

	// Rand draws the jitter: a uniform value in [0, n). Default:
	// math/rand/v2.Int64N.
	Rand func(n int64) int64
}

// DefaultRetryable reports whether err is worth retrying. Context
// cancellation and deadline expiry are caller-initiated aborts and are
// never retried.
func DefaultRetryable(err error) bool {
	return err != nil &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Retry re-invokes failed operations with exponential backoff.
type Retry struct {
	policy RetryPolicy
}

// NewRetry creates a retry executor with the given policy.
func NewRetry(policy RetryPolicy) *Retry {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 100 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.BackoffFactor < 1 {
		policy.BackoffFactor = 2.0
	}
	if policy.RetryIf == nil {
		policy.RetryIf = DefaultRetryable
	}
	if policy.Clock == nil {
		policy.Clock = SystemClock()
	}
	if policy.Rand == nil {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		policy.Rand = rand.Int64N
	}

	return &Retry{policy: policy}
}

// Policy returns the effective retry policy.
func (r *Retry) Policy() RetryPolicy {
	return r.policy
}

// Execute runs the operation, retrying retryable failures until MaxRetries
// is exhausted. The inter-attempt delay is cancellable through ctx; a
// non-retryable error is returned immediately. Once exhausted, the
// returned error wraps both ErrRetriesExhausted and the final cause.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	attempts := r.policy.MaxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.policy.RetryIf(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := r.delayFor(attempt)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.policy.Clock.After(delay):
		}
	}

	return fmt.Errorf("%w: %d attempts, last error: %w", ErrRetriesExhausted, attempts, lastErr)
}

// delayFor computes the delay before retry n (1-indexed):
// min(BaseDelay * BackoffFactor^(n-1), MaxDelay), plus jitter when enabled.
func (r *Retry) delayFor(n int) time.Duration {
	delay := time.Duration(float64(r.policy.BaseDelay) * math.Pow(r.policy.BackoffFactor, float64(n-1)))
	if delay > r.policy.MaxDelay || delay <= 0 {
		delay = r.policy.MaxDelay
	}

	if r.policy.Jitter {
		if span := int64(delay) / 10; span > 0 {
			delay += time.Duration(r.policy.Rand(span + 1))
		}
	}

	return delay
}

// RetryWithBackoff is a convenience wrapper that runs op under a one-off
// retry policy.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, op func(context.Context) error) error {
	return NewRetry(policy).Execute(ctx, op)
}

// RetryResult runs an operation that yields a value under the retry
// executor. On terminal failure the zero value is returned with the error.
func RetryResult[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var result T
	err := r.Execute(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
