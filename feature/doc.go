// Package feature routes calls between a primary path and a degraded
// fallback based on feature flags and health signals.
//
// A Flag couples an on/off switch with a fallback producer and an
// optional health check. The Manager holds the registered flags and
// decides per call: an unknown flag runs the primary directly, a
// disabled or unhealthy flag runs the fallback and returns its result
// with no error. Degradation is an event, not a failure.
//
//	mgr := feature.NewManager(feature.ManagerConfig{
//	    OnFallback: func(flag string, reason feature.Reason) {
//	        log.Printf("flag %s degraded: %s", flag, reason)
//	    },
//	})
//	mgr.Register(feature.Flag{
//	    Name:    "recommendations",
//	    Enabled: true,
//	    Fallback: func(ctx context.Context) any {
//	        return []string{} // empty list beats an error page
//	    },
//	    HealthCheck: feature.CheckerHealth(recsChecker),
//	})
//
//	items, err := feature.Execute(ctx, mgr, "recommendations", fetchRecommendations)
//
// Flags may be toggled at runtime with Enable, Disable, and
// SetHealthCheck.
package feature
