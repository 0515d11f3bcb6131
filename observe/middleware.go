package observe

import (
	"context"
	"time"
)

// Middleware wraps guarded operations with tracing, metrics, and
// logging. Errors from the wrapped operation are recorded and
// propagated unchanged.
type Middleware struct {
	tracer Tracer
	logger Logger
}

// NewMiddleware creates a Middleware from the given components.
func NewMiddleware(tracer Tracer, logger Logger) *Middleware {
	return &Middleware{tracer: tracer, logger: logger}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) *Middleware {
	return NewMiddleware(NewTracer(obs.Tracer()), obs.Logger())
}

// Wrap returns an operation that runs op inside a span and logs its
// outcome under the guard's identity.
func (m *Middleware) Wrap(meta GuardMeta, op func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := op(ctx)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)

		logger := m.logger.WithGuard(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "guarded operation failed", fields...)
		} else {
			logger.Debug(ctx, "guarded operation completed", fields...)
		}

		return err
	}
}
