// Package guard provides composable runtime guards that protect a service
// from cascading failure when its dependencies are slow, erroring, or
// overloaded.
//
// # Guards
//
//   - Circuit Breaker: per-dependency state machine that fails fast while
//     a dependency is unhealthy, then probes it for recovery.
//
//   - Retry: re-invokes failed operations with exponential backoff and
//     jitter, honoring a retryability classifier.
//
//   - Bulkhead: named, bounded worker pools that isolate failure domains
//     so one overloaded dependency cannot starve others.
//
//   - Load Shedder: admission control that rejects (or preempts) work once
//     in-flight concurrency reaches a ceiling.
//
//   - Rate Limiter: token-bucket admission for sustained call rates.
//
//   - Timeout: bounds how long a single operation may run.
//
// Every guard operates on the same operation contract, a
// func(context.Context) error invoked synchronously, and reports refusals
// through distinct sentinel errors (ErrCircuitOpen, ErrPoolFull,
// ErrOverCapacity, ...) so callers can tell a fast failure from a real
// one.
//
// # Composition
//
// Guards compose outward-in through the Executor:
//
//	pools := guard.NewPools()
//	pools.Create("billing", guard.PoolConfig{Capacity: 8, QueueCapacity: 16})
//
//	exec := guard.NewExecutor(
//	    guard.WithLoadShedder(guard.NewLoadShedder(guard.LoadShedderConfig{MaxConcurrency: 64})),
//	    guard.WithPool(pools, "billing"),
//	    guard.WithCircuitBreaker(guard.NewCircuitBreaker(guard.CircuitBreakerConfig{Name: "billing"})),
//	    guard.WithRetry(guard.NewRetry(guard.RetryPolicy{MaxRetries: 2, Jitter: true})),
//	    guard.WithTimeout(2*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return callBilling(ctx)
//	})
//
// Registries (Pools) and guard instances are owned by the application's
// composition root and passed by handle; the package keeps no global
// state. Time and jitter randomness are injectable through Clock and the
// retry policy's Rand for deterministic tests.
package guard
