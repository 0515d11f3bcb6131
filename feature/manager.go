package feature

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/resilientops/health"
)

// ManagerConfig configures the feature manager.
type ManagerConfig struct {
	// OnFallback is called whenever a call is routed to a flag's
	// fallback. Degradation is reported through this hook, never as an
	// error.
	OnFallback func(flag string, reason Reason)
}

// Manager routes calls between a primary path and a degraded fallback
// based on each flag's enabled switch and health signal. Flags are
// registered at startup and may be toggled at runtime.
type Manager struct {
	config ManagerConfig

	mu    sync.RWMutex
	flags map[string]*Flag
}

// NewManager creates a new feature manager.
func NewManager(config ...ManagerConfig) *Manager {
	cfg := ManagerConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	return &Manager{
		config: cfg,
		flags:  make(map[string]*Flag),
	}
}

// Register adds a flag. A flag without a fallback producer is rejected.
// Registering an existing name replaces the previous flag.
func (m *Manager) Register(flag Flag) error {
	if flag.Name == "" {
		return fmt.Errorf("%w: empty flag name", ErrInvalidFlag)
	}
	if flag.Fallback == nil {
		return fmt.Errorf("%w: flag %q has no fallback producer", ErrInvalidFlag, flag.Name)
	}

	m.mu.Lock()
	m.flags[flag.Name] = &flag
	m.mu.Unlock()
	return nil
}

// Names returns the names of all registered flags.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.flags))
	for name := range m.flags {
		names = append(names, name)
	}
	return names
}

// IsEnabled reports whether the named flag exists and is enabled.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[name]
	return ok && flag.Enabled
}

// Enable turns the named flag on.
func (m *Manager) Enable(name string) error {
	return m.setEnabled(name, true)
}

// Disable turns the named flag off, routing all calls to the fallback.
func (m *Manager) Disable(name string) error {
	return m.setEnabled(name, false)
}

func (m *Manager) setEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, ok := m.flags[name]
	if !ok {
		return ErrFlagNotFound
	}
	flag.Enabled = enabled
	return nil
}

// SetHealthCheck replaces the named flag's health signal. A nil check
// means the primary is always considered healthy.
func (m *Manager) SetHealthCheck(name string, check HealthFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	flag, ok := m.flags[name]
	if !ok {
		return ErrFlagNotFound
	}
	flag.HealthCheck = check
	return nil
}

// Execute routes a call through the named flag. An unknown flag runs
// primary directly. A disabled flag, or one whose health check reports
// unhealthy, returns the fallback's result with a nil error; the
// fallback never runs for a healthy enabled flag.
func (m *Manager) Execute(ctx context.Context, name string, primary func(ctx context.Context) (any, error)) (any, error) {
	m.mu.RLock()
	flag, ok := m.flags[name]
	var (
		enabled  bool
		fallback Producer
		check    HealthFunc
	)
	if ok {
		enabled = flag.Enabled
		fallback = flag.Fallback
		check = flag.HealthCheck
	}
	m.mu.RUnlock()

	if !ok {
		return primary(ctx)
	}

	if !enabled {
		m.fallback(name, ReasonDisabled)
		return fallback(ctx), nil
	}
	if check != nil && !check(ctx) {
		m.fallback(name, ReasonUnhealthy)
		return fallback(ctx), nil
	}
	return primary(ctx)
}

func (m *Manager) fallback(name string, reason Reason) {
	if m.config.OnFallback != nil {
		m.config.OnFallback(name, reason)
	}
}

// Execute routes a typed call through the named flag on the manager.
// The fallback producer must return a value assignable to T.
func Execute[T any](ctx context.Context, m *Manager, name string, primary func(ctx context.Context) (T, error)) (T, error) {
	v, err := m.Execute(ctx, name, func(ctx context.Context) (any, error) {
		return primary(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: flag %q produced %T", ErrFallbackType, name, v)
	}
	return t, nil
}

// CheckerHealth adapts a health checker into a flag health signal. The
// primary counts as healthy unless the checker reports unhealthy, so a
// degraded dependency still serves the primary path.
func CheckerHealth(checker health.Checker) HealthFunc {
	return func(ctx context.Context) bool {
		return checker.Check(ctx).Status != health.StatusUnhealthy
	}
}
