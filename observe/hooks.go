package observe

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/resilientops/feature"
	"github.com/jonwraymond/resilientops/guard"
)

// Hooks adapt guard and feature callbacks into metrics and log
// entries. Wire them into the corresponding config fields:
//
//	cb := guard.NewCircuitBreaker(guard.CircuitBreakerConfig{
//	    Name:          "payments",
//	    OnStateChange: observe.BreakerHook(rec, logger),
//	})
//
// A nil Recorder or Logger disables that half of the hook.

// BreakerHook records circuit breaker state transitions.
func BreakerHook(rec *Recorder, log Logger) func(name string, from, to guard.State) {
	return func(name string, from, to guard.State) {
		ctx := context.Background()
		if rec != nil {
			rec.RecordTransition(ctx, name, from.String(), to.String())
		}
		if log != nil {
			l := log.WithGuard(GuardMeta{Kind: "breaker", Name: name})
			fields := []Field{
				{Key: "from", Value: from.String()},
				{Key: "to", Value: to.String()},
			}
			if to == guard.StateOpen {
				l.Warn(ctx, "circuit opened", fields...)
			} else {
				l.Info(ctx, "circuit state changed", fields...)
			}
		}
	}
}

// RetryHook records each retry attempt for the named operation.
func RetryHook(rec *Recorder, log Logger, name string) func(attempt int, err error, delay time.Duration) {
	return func(attempt int, err error, delay time.Duration) {
		ctx := context.Background()
		if rec != nil {
			rec.RecordRetryAttempt(ctx, name, attempt, err)
		}
		if log != nil {
			log.WithGuard(GuardMeta{Kind: "retry", Name: name}).Warn(ctx, "retrying after failure",
				Field{Key: "attempt", Value: attempt},
				Field{Key: "delay_ms", Value: float64(delay.Milliseconds())},
				Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

// PoolCompleteHook records completed bulkhead tasks.
func PoolCompleteHook(rec *Recorder, log Logger) func(pool string, duration time.Duration, err error) {
	return func(pool string, duration time.Duration, err error) {
		ctx := context.Background()
		if rec != nil {
			rec.RecordPoolExecution(ctx, pool, duration, err)
		}
		if log != nil && err != nil {
			log.WithGuard(GuardMeta{Kind: "pool", Name: pool}).Warn(ctx, "pool task failed",
				Field{Key: "duration_ms", Value: float64(duration.Milliseconds())},
				Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

// PoolRejectHook records bulkhead submissions rejected at capacity.
func PoolRejectHook(rec *Recorder, log Logger) func(pool string) {
	return func(pool string) {
		ctx := context.Background()
		if rec != nil {
			rec.RecordPoolRejection(ctx, pool)
		}
		if log != nil {
			log.WithGuard(GuardMeta{Kind: "pool", Name: pool}).Warn(ctx, "pool submission rejected")
		}
	}
}

// ShedHook records requests rejected or preempted by the load shedder.
func ShedHook(rec *Recorder, log Logger) func(req guard.Request, reason error) {
	return func(req guard.Request, reason error) {
		ctx := context.Background()
		why := shedReason(reason)
		if rec != nil {
			rec.RecordShed(ctx, req.Priority.String(), why)
		}
		if log != nil {
			log.WithGuard(GuardMeta{Kind: "shed"}).Warn(ctx, "request shed",
				Field{Key: "request_id", Value: req.ID},
				Field{Key: "priority", Value: req.Priority.String()},
				Field{Key: "reason", Value: why},
			)
		}
	}
}

// FallbackHook records calls routed to a feature fallback.
func FallbackHook(rec *Recorder, log Logger) func(flag string, reason feature.Reason) {
	return func(flag string, reason feature.Reason) {
		ctx := context.Background()
		if rec != nil {
			rec.RecordFallback(ctx, flag, reason.String())
		}
		if log != nil {
			log.WithGuard(GuardMeta{Kind: "feature", Name: flag}).Info(ctx, "degraded to fallback",
				Field{Key: "reason", Value: reason.String()},
			)
		}
	}
}

func shedReason(reason error) string {
	switch {
	case errors.Is(reason, guard.ErrPreempted):
		return "preempted"
	case errors.Is(reason, guard.ErrQueueFull):
		return "queue_full"
	case errors.Is(reason, guard.ErrOverCapacity):
		return "over_capacity"
	default:
		return "other"
	}
}
