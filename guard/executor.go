package guard

import (
	"context"
	"time"
)

// Executor composes guards around an operation in a fixed outward-in
// order: rate limiter, load shedder, bulkhead, circuit breaker, retry,
// timeout. Each guard is optional; unset guards are skipped.
type Executor struct {
	rateLimiter *RateLimiter
	shedder     *LoadShedder
	priority    Priority
	pools       *Pools
	poolName    string
	breaker     *CircuitBreaker
	retry       *Retry
	timeout     *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor from the given options.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{priority: PriorityNormal}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithLoadShedder adds admission control to the executor.
func WithLoadShedder(ls *LoadShedder) ExecutorOption {
	return func(e *Executor) {
		e.shedder = ls
	}
}

// WithPriority sets the priority requests carry through the load shedder.
func WithPriority(p Priority) ExecutorOption {
	return func(e *Executor) {
		e.priority = p
	}
}

// WithPool routes the operation through the named bulkhead pool.
func WithPool(pools *Pools, name string) ExecutorOption {
	return func(e *Executor) {
		e.pools = pools
		e.poolName = name
	}
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.breaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithTimeout adds a per-call deadline to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutGuard adds a preconfigured timeout guard to the executor.
func WithTimeoutGuard(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// Execute runs the operation through all configured guards. The chain is
// built inside out so the rejection error of the outermost failing guard
// reaches the caller intact.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}

	if e.breaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.breaker.Execute(ctx, inner)
		}
	}

	if e.pools != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.pools.Do(ctx, e.poolName, inner)
		}
	}

	if e.shedder != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.shedder.Process(ctx, NewRequest(e.priority), inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}
