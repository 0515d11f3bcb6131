package guard

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is failing fast without calling the
	// dependency.
	StateOpen
	// StateHalfOpen means the circuit is probing whether the dependency
	// recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures a circuit breaker. Thresholds may be
// adjusted after construction through SetMaxFailures.
type CircuitBreakerConfig struct {
	// Name identifies the protected dependency in hooks and metrics.
	Name string

	// MaxFailures is the number of consecutive failures before opening.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// SuccessThreshold is the number of consecutive successful probes
	// required in half-open before closing.
	// Default: 1
	SuccessThreshold int

	// Clock supplies time. Default: SystemClock.
	Clock Clock

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(name string, from, to State)

	// IsFailure determines whether an error counts as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool
}

// CircuitBreaker fails fast when a dependency is unhealthy. It cycles
// through closed, open, and half-open for the lifetime of the dependency;
// consecutive failures are counted while closed, consecutive successes
// while half-open.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probing     bool
}

// NewCircuitBreaker creates a circuit breaker in the closed state.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Clock == nil {
		config.Clock = SystemClock()
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// Name returns the breaker's dependency name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// Execute runs the operation through the circuit breaker. The operation is
// invoked at most once; while open, Execute returns ErrCircuitOpen without
// calling it. While half-open only one probe may be outstanding, so
// concurrent callers receive ErrCircuitOpen rather than each issuing a
// probe.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	probe, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = op(ctx)
	cb.afterRequest(probe, err)
	return err
}

// State returns the current circuit state, promoting open to half-open if
// the reset timeout has elapsed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// SetMaxFailures adjusts the failure threshold at runtime. If the
// closed-state failure count already meets the new threshold the
// circuit opens on the next failure, not immediately.
func (cb *CircuitBreaker) SetMaxFailures(n int) {
	if n <= 0 {
		return
	}
	cb.mu.Lock()
	cb.config.MaxFailures = n
	cb.mu.Unlock()
}

// Reset forces the breaker back to closed and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateClosed {
		cb.setStateLocked(StateClosed)
	} else {
		cb.failures = 0
		cb.successes = 0
	}
}

func (cb *CircuitBreaker) beforeRequest() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return false, ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			return false, ErrCircuitOpen
		}
		cb.probing = true
		return true, nil
	}

	return false, nil
}

func (cb *CircuitBreaker) afterRequest(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failed := cb.config.IsFailure(err)

	if probe {
		cb.probing = false
	}

	switch cb.state {
	case StateClosed:
		if failed {
			cb.failures++
			cb.lastFailure = cb.config.Clock.Now()
			if cb.failures >= cb.config.MaxFailures {
				cb.setStateLocked(StateOpen)
			}
		} else {
			cb.failures = 0
		}

	case StateHalfOpen:
		// Only the probe's outcome drives half-open transitions;
		// results of calls admitted in an earlier state are ignored.
		if !probe {
			return
		}
		if failed {
			cb.lastFailure = cb.config.Clock.Now()
			cb.setStateLocked(StateOpen)
		} else {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.setStateLocked(StateClosed)
			}
		}
	}
}

// currentStateLocked resolves the effective state, promoting open to
// half-open once the reset timeout has elapsed.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.config.Clock.Now().Sub(cb.lastFailure) >= cb.config.ResetTimeout {
		cb.setStateLocked(StateHalfOpen)
	}
	return cb.state
}

// setStateLocked transitions the state, resets the counters belonging to
// the state being left, and fires the state-change hook.
func (cb *CircuitBreaker) setStateLocked(state State) {
	from := cb.state
	cb.state = state
	cb.successes = 0
	cb.probing = false
	if state == StateClosed {
		cb.failures = 0
	}

	if from != state && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, state)
	}
}

// CircuitBreakerMetrics is a point-in-time snapshot of breaker counters.
type CircuitBreakerMetrics struct {
	Name        string
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}

// Metrics returns a snapshot of the breaker's current counters.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerMetrics{
		Name:        cb.config.Name,
		State:       cb.currentStateLocked(),
		Failures:    cb.failures,
		Successes:   cb.successes,
		LastFailure: cb.lastFailure,
	}
}
