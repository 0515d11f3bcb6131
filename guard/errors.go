package guard

import "errors"

// Sentinel errors for guard rejections. Fast-fail errors mark calls the
// guard refused to attempt; they are expected under load and cheap to
// produce.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("guard: circuit breaker is open")

	// ErrRetriesExhausted is returned when all retry attempts have failed.
	// It wraps the final underlying error.
	ErrRetriesExhausted = errors.New("guard: retries exhausted")

	// ErrRateLimited is returned when the rate limiter rejects a call.
	ErrRateLimited = errors.New("guard: rate limit exceeded")

	// ErrPoolFull is returned when a bulkhead pool's queue is at capacity.
	ErrPoolFull = errors.New("guard: pool full")

	// ErrPoolClosed is returned when submitting to a pool that has been
	// shut down.
	ErrPoolClosed = errors.New("guard: pool closed")

	// ErrPoolNotFound is returned when submitting to an unknown pool name.
	ErrPoolNotFound = errors.New("guard: pool does not exist")

	// ErrOverCapacity is returned when the load shedder is at capacity and
	// no admission queue is configured.
	ErrOverCapacity = errors.New("guard: over capacity")

	// ErrQueueFull is returned when the load shedder's admission queue is
	// also at capacity.
	ErrQueueFull = errors.New("guard: admission queue full")

	// ErrPreempted is returned to a request whose slot was reclaimed for a
	// higher-priority request.
	ErrPreempted = errors.New("guard: preempted by higher priority request")

	// ErrTimeout is returned when an operation exceeds its deadline guard.
	ErrTimeout = errors.New("guard: operation timed out")
)
