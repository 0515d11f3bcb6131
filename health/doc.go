// Package health provides health probing and aggregation for guarded
// dependencies.
//
// A Checker is any component that can report its health status as
// Healthy, Degraded, or Unhealthy. Checkers are registered into a
// Registry, which probes them concurrently under a shared timeout and
// caches results for a configurable TTL so frequent degradation
// decisions do not re-probe dependencies on every call.
//
// A probe that errors or exceeds the timeout yields an Unhealthy
// result, never a propagated error. Health checking must not itself
// become a failure source.
//
// # Basic Usage
//
//	reg := health.NewRegistry(health.RegistryConfig{
//	    Timeout:  5 * time.Second,
//	    CacheTTL: 10 * time.Second,
//	})
//	reg.Register(health.NewCheckerFunc("database", pingDatabase))
//	reg.Register(health.NewBreakerChecker(paymentsBreaker))
//
//	results := reg.CheckAll(ctx)
//	overall := reg.OverallStatus(results)
//
// # Criticality
//
// A checker that implements CriticalChecker controls how its failure
// affects the aggregate status: an unhealthy critical checker makes
// the aggregate Unhealthy, while an unhealthy non-critical checker
// only degrades it. Plain Checkers are treated as critical.
package health
