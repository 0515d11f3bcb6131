// Package chaos injects probabilistic latency and synthetic failures
// into guarded operations for resilience testing.
//
// Experiments are registered by name, each with its own enable switch,
// probability, and impact. The Injector's global gate defaults to off,
// so an injector reachable from a production code path does nothing
// until explicitly enabled.
//
//	inj := chaos.NewInjector(chaos.InjectorConfig{Enabled: true})
//	inj.Register(chaos.Experiment{
//	    Name:        "payments-latency",
//	    Enabled:     true,
//	    Probability: 0.25,
//	    Operation:   "charge",
//	    Latency:     200 * time.Millisecond,
//	})
//
//	err := inj.MaybeInject(ctx, "charge")
//
// The random source is injectable so tests can drive experiments
// deterministically.
package chaos
