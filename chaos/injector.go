package chaos

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonwraymond/resilientops/guard"
)

// ErrInjected marks a synthetic failure produced by an experiment.
var ErrInjected = errors.New("chaos: injected failure")

// ErrInvalidExperiment indicates an experiment definition is unusable.
var ErrInvalidExperiment = errors.New("chaos: invalid experiment")

// Experiment is one named fault injection: a probability paired with
// added latency, a synthetic error, or both.
type Experiment struct {
	// Name identifies the experiment.
	Name string

	// Enabled controls this experiment independently of the global gate.
	Enabled bool

	// Probability is the per-call chance of the impact firing, in [0, 1].
	Probability float64

	// Operation restricts the experiment to one operation name. Empty
	// matches every operation.
	Operation string

	// Latency is slept before the operation when the experiment fires.
	Latency time.Duration

	// Err is returned in place of running the operation when the
	// experiment fires. Nil means latency only.
	Err error
}

// InjectorConfig configures a chaos injector.
type InjectorConfig struct {
	// Enabled is the global gate. The zero value keeps every
	// experiment inert so an injector wired into a production path by
	// accident does nothing.
	Enabled bool

	// Rand draws the uniform value compared against each probability.
	// Defaults to the shared PRNG.
	Rand func() float64

	// Clock supplies the latency timer. Defaults to the system clock.
	Clock guard.Clock
}

// Injector applies registered experiments to guarded operations. It is
// a test harness component; the global gate defaults to off.
type Injector struct {
	rand  func() float64
	clock guard.Clock

	mu          sync.RWMutex
	enabled     bool
	experiments map[string]*Experiment
	order       []string
	injections  map[string]int64
}

// NewInjector creates a chaos injector.
func NewInjector(config ...InjectorConfig) *Injector {
	cfg := InjectorConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Float64
	}
	if cfg.Clock == nil {
		cfg.Clock = guard.SystemClock()
	}

	return &Injector{
		rand:        cfg.Rand,
		clock:       cfg.Clock,
		enabled:     cfg.Enabled,
		experiments: make(map[string]*Experiment),
		injections:  make(map[string]int64),
	}
}

// Register adds an experiment. Probability outside [0, 1] or an empty
// name is rejected.
func (i *Injector) Register(exp Experiment) error {
	if exp.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidExperiment)
	}
	if exp.Probability < 0 || exp.Probability > 1 {
		return fmt.Errorf("%w: probability %v outside [0, 1]", ErrInvalidExperiment, exp.Probability)
	}

	i.mu.Lock()
	if _, exists := i.experiments[exp.Name]; !exists {
		i.order = append(i.order, exp.Name)
	}
	i.experiments[exp.Name] = &exp
	i.mu.Unlock()
	return nil
}

// SetEnabled flips the global gate.
func (i *Injector) SetEnabled(enabled bool) {
	i.mu.Lock()
	i.enabled = enabled
	i.mu.Unlock()
}

// Enabled reports the global gate.
func (i *Injector) Enabled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.enabled
}

// SetExperimentEnabled toggles one experiment.
func (i *Injector) SetExperimentEnabled(name string, enabled bool) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	exp, ok := i.experiments[name]
	if !ok {
		return fmt.Errorf("%w: unknown experiment %q", ErrInvalidExperiment, name)
	}
	exp.Enabled = enabled
	return nil
}

// Injections returns how many times each experiment has fired.
func (i *Injector) Injections() map[string]int64 {
	i.mu.RLock()
	defer i.mu.RUnlock()

	counts := make(map[string]int64, len(i.injections))
	for name, n := range i.injections {
		counts[name] = n
	}
	return counts
}

// MaybeInject runs every matching enabled experiment against the named
// operation in registration order. The first experiment that fires
// applies its impact: sleep for the configured latency, then return
// the synthetic error if one is set. The latency sleep honors context
// cancellation. With the global gate off this is a no-op.
func (i *Injector) MaybeInject(ctx context.Context, operation string) error {
	i.mu.RLock()
	if !i.enabled {
		i.mu.RUnlock()
		return nil
	}
	candidates := make([]Experiment, 0, len(i.order))
	for _, name := range i.order {
		exp := i.experiments[name]
		if !exp.Enabled {
			continue
		}
		if exp.Operation != "" && exp.Operation != operation {
			continue
		}
		candidates = append(candidates, *exp)
	}
	i.mu.RUnlock()

	for _, exp := range candidates {
		if i.rand() >= exp.Probability {
			continue
		}

		i.mu.Lock()
		i.injections[exp.Name]++
		i.mu.Unlock()

		if exp.Latency > 0 {
			select {
			case <-i.clock.After(exp.Latency):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if exp.Err != nil {
			return fmt.Errorf("%w: experiment %q: %w", ErrInjected, exp.Name, exp.Err)
		}
		return nil
	}
	return nil
}

// Wrap returns a task that runs MaybeInject for the operation before
// delegating to op.
func (i *Injector) Wrap(operation string, op func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := i.MaybeInject(ctx, operation); err != nil {
			return err
		}
		return op(ctx)
	}
}
