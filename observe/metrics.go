package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder emits guard events as OpenTelemetry metrics. All methods
// are safe for concurrent use and must return quickly; recording is
// best-effort and never fails the guarded operation.
type Recorder struct {
	transitions    metric.Int64Counter
	retryAttempts  metric.Int64Counter
	poolExecutions metric.Int64Counter
	poolRejections metric.Int64Counter
	poolDuration   metric.Float64Histogram
	shedTotal      metric.Int64Counter
	fallbacks      metric.Int64Counter
}

// NewRecorder creates a Recorder with instruments bound to the meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	transitions, err := meter.Int64Counter(
		"guard.breaker.transitions",
		metric.WithDescription("Circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := meter.Int64Counter(
		"guard.retry.attempts",
		metric.WithDescription("Retry attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	poolExecutions, err := meter.Int64Counter(
		"guard.pool.executions",
		metric.WithDescription("Bulkhead pool task executions"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	poolRejections, err := meter.Int64Counter(
		"guard.pool.rejections",
		metric.WithDescription("Bulkhead pool submissions rejected at capacity"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	poolDuration, err := meter.Float64Histogram(
		"guard.pool.duration_ms",
		metric.WithDescription("Bulkhead pool task duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	shedTotal, err := meter.Int64Counter(
		"guard.shed.total",
		metric.WithDescription("Requests shed or preempted by the load shedder"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"guard.feature.fallbacks",
		metric.WithDescription("Calls routed to a feature fallback"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		transitions:    transitions,
		retryAttempts:  retryAttempts,
		poolExecutions: poolExecutions,
		poolRejections: poolRejections,
		poolDuration:   poolDuration,
		shedTotal:      shedTotal,
		fallbacks:      fallbacks,
	}, nil
}

// RecordTransition records a circuit breaker state transition.
func (r *Recorder) RecordTransition(ctx context.Context, breaker, from, to string) {
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard.name", breaker),
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordRetryAttempt records one retry attempt and its outcome.
func (r *Recorder) RecordRetryAttempt(ctx context.Context, name string, attempt int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	r.retryAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard.name", name),
		attribute.Int("attempt", attempt),
		attribute.String("outcome", outcome),
	))
}

// RecordPoolExecution records a completed bulkhead task.
func (r *Recorder) RecordPoolExecution(ctx context.Context, pool string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	opt := metric.WithAttributes(
		attribute.String("guard.name", pool),
		attribute.String("outcome", outcome),
	)
	r.poolExecutions.Add(ctx, 1, opt)
	r.poolDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordPoolRejection records a bulkhead submission rejected at capacity.
func (r *Recorder) RecordPoolRejection(ctx context.Context, pool string) {
	r.poolRejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("guard.name", pool),
	))
}

// RecordShed records a request shed or preempted by the load shedder.
func (r *Recorder) RecordShed(ctx context.Context, priority, reason string) {
	r.shedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("priority", priority),
		attribute.String("reason", reason),
	))
}

// RecordFallback records a call routed to a feature fallback.
func (r *Recorder) RecordFallback(ctx context.Context, flag, reason string) {
	r.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("flag", flag),
		attribute.String("reason", reason),
	))
}
