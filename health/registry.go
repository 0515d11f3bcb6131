package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/resilientops/guard"
)

// RegistryConfig configures the health registry.
type RegistryConfig struct {
	// Timeout is the shared deadline for a CheckAll pass.
	// Default: 10 seconds
	Timeout time.Duration

	// CacheTTL is how long probe results are reused before re-probing.
	// Zero disables caching and every call probes.
	// Default: 0
	CacheTTL time.Duration

	// Clock supplies time. Defaults to the system clock.
	Clock guard.Clock
}

// Registry holds named health checkers and aggregates their results.
// Probes run concurrently under a shared timeout, and results are
// cached for CacheTTL so high-frequency callers do not re-probe
// dependencies on every call.
type Registry struct {
	config RegistryConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string

	cache *resultCache
}

// NewRegistry creates a new health registry.
func NewRegistry(config ...RegistryConfig) *Registry {
	cfg := RegistryConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = guard.SystemClock()
	}

	r := &Registry{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
	if cfg.CacheTTL > 0 {
		r.cache = newResultCache(cfg.CacheTTL, cfg.Clock)
	}
	return r
}

// Register adds a health checker under its own name. Registering the
// same name again replaces the previous checker.
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if _, exists := r.checkers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.checkers[name] = checker
}

// Unregister removes a health checker.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.checkers, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.cache != nil {
		r.cache.invalidate(name)
	}
}

// Names returns the names of all registered checkers in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Invalidate drops any cached result for the named checker so the next
// call probes again.
func (r *Registry) Invalidate(name string) {
	if r.cache != nil {
		r.cache.invalidate(name)
	}
}

// Check runs a single named health probe, honoring the result cache.
func (r *Registry) Check(ctx context.Context, name string) (Result, error) {
	r.mu.RLock()
	checker, ok := r.checkers[name]
	r.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	return r.cachedCheck(ctx, name, checker), nil
}

// CheckAll runs all registered health probes concurrently under a
// shared timeout and returns the results keyed by checker name. A
// probe that errors or exceeds the timeout yields an unhealthy result,
// never a propagated error.
func (r *Registry) CheckAll(ctx context.Context) map[string]Result {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()
			result := r.cachedCheck(ctx, name, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()
	return results
}

// OverallStatus computes the aggregate status from a set of results.
// An unhealthy critical checker makes the aggregate unhealthy. An
// unhealthy non-critical checker only degrades it, as does any
// degraded result. An empty result set is healthy.
func (r *Registry) OverallStatus(results map[string]Result) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overall := StatusHealthy
	for name, result := range results {
		switch result.Status {
		case StatusUnhealthy:
			critical := true
			if checker, ok := r.checkers[name]; ok {
				critical = isCritical(checker)
			}
			if critical {
				return StatusUnhealthy
			}
			overall = StatusDegraded
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// Status runs all probes and returns the aggregate status.
func (r *Registry) Status(ctx context.Context) Status {
	return r.OverallStatus(r.CheckAll(ctx))
}

func (r *Registry) cachedCheck(ctx context.Context, name string, checker Checker) Result {
	if r.cache == nil {
		return r.runCheck(ctx, checker)
	}
	return r.cache.get(name, func() Result {
		return r.runCheck(ctx, checker)
	})
}

func (r *Registry) runCheck(ctx context.Context, checker Checker) Result {
	start := r.config.Clock.Now()

	resultCh := make(chan Result, 1)
	go func() {
		result := checker.Check(ctx)
		result.Duration = r.config.Clock.Now().Sub(start)
		if result.CheckedAt.IsZero() {
			result.CheckedAt = start
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return Result{
			Status:    StatusUnhealthy,
			Message:   "check timed out",
			Error:     ErrCheckTimeout,
			Duration:  r.config.Clock.Now().Sub(start),
			CheckedAt: start,
		}
	}
}

// Checker returns a composite Checker for the registry so it can be
// registered into another registry or used as a feature health signal.
func (r *Registry) Checker() Checker {
	return &registryChecker{reg: r}
}

type registryChecker struct {
	reg *Registry
}

func (c *registryChecker) Name() string {
	return "aggregate"
}

func (c *registryChecker) Check(ctx context.Context) Result {
	results := c.reg.CheckAll(ctx)
	status := c.reg.OverallStatus(results)

	details := make(map[string]any, len(results))
	for name, result := range results {
		details[name] = map[string]any{
			"status":   result.Status.String(),
			"message":  result.Message,
			"duration": result.Duration.String(),
		}
	}

	var message string
	switch status {
	case StatusHealthy:
		message = "all checks passed"
	case StatusDegraded:
		message = "some checks degraded"
	case StatusUnhealthy:
		message = "some checks failed"
	}

	return Result{
		Status:    status,
		Message:   message,
		Details:   details,
		CheckedAt: c.reg.config.Clock.Now(),
	}
}
