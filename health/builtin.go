package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/resilientops/guard"
)

// BreakerChecker reports the health of a dependency from its circuit
// breaker state. A closed circuit is healthy, a half-open circuit is
// degraded, and an open circuit is unhealthy.
type BreakerChecker struct {
	breaker  *guard.CircuitBreaker
	critical bool
}

// NewBreakerChecker creates a critical checker backed by a circuit breaker.
func NewBreakerChecker(breaker *guard.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{breaker: breaker, critical: true}
}

// NonCritical marks the checker as non-critical and returns it.
func (c *BreakerChecker) NonCritical() *BreakerChecker {
	c.critical = false
	return c
}

// Name returns the breaker's name.
func (c *BreakerChecker) Name() string {
	return c.breaker.Name()
}

// Critical reports whether this checker is critical.
func (c *BreakerChecker) Critical() bool {
	return c.critical
}

// Check reports the breaker state as a health result.
func (c *BreakerChecker) Check(ctx context.Context) Result {
	m := c.breaker.Metrics()
	details := map[string]any{
		"state":    m.State.String(),
		"failures": m.Failures,
	}

	switch m.State {
	case guard.StateClosed:
		return Healthy("circuit closed").WithDetails(details)
	case guard.StateHalfOpen:
		return Degraded("circuit probing recovery").WithDetails(details)
	default:
		return Unhealthy("circuit open", guard.ErrCircuitOpen).WithDetails(details)
	}
}

// PoolCheckerConfig configures a bulkhead pool checker.
type PoolCheckerConfig struct {
	// DegradedAt is the in-flight fraction of total capacity above
	// which the pool reports degraded. Default: 0.8
	DegradedAt float64

	// Critical marks an unhealthy pool as making the aggregate
	// unhealthy. Default: false
	Critical bool
}

// PoolChecker reports the saturation of a named bulkhead pool. A
// missing or closed pool is unhealthy; a pool running close to
// capacity is degraded.
type PoolChecker struct {
	pools  *guard.Pools
	pool   string
	config PoolCheckerConfig
}

// NewPoolChecker creates a checker for the named pool.
func NewPoolChecker(pools *guard.Pools, pool string, config ...PoolCheckerConfig) *PoolChecker {
	cfg := PoolCheckerConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.DegradedAt <= 0 || cfg.DegradedAt > 1 {
		cfg.DegradedAt = 0.8
	}
	return &PoolChecker{pools: pools, pool: pool, config: cfg}
}

// Name returns the pool name prefixed with "pool.".
func (c *PoolChecker) Name() string {
	return "pool." + c.pool
}

// Critical reports whether this checker is critical.
func (c *PoolChecker) Critical() bool {
	return c.config.Critical
}

// Check reports the pool's saturation as a health result.
func (c *PoolChecker) Check(ctx context.Context) Result {
	pool, ok := c.pools.Get(c.pool)
	if !ok {
		return Unhealthy("pool not registered", guard.ErrPoolNotFound)
	}

	m := pool.Metrics()
	details := map[string]any{
		"capacity":   m.Capacity,
		"in_flight":  m.InFlight,
		"queued":     m.Queued,
		"rejections": m.Rejections,
	}

	var load float64
	if m.Capacity > 0 {
		load = float64(m.InFlight) / float64(m.Capacity)
	}
	if load >= c.config.DegradedAt {
		msg := fmt.Sprintf("pool at %.0f%% of capacity", load*100)
		return Degraded(msg).WithDetails(details)
	}
	return Healthy("pool has headroom").WithDetails(details)
}
