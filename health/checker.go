package health

import (
	"context"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result contains the outcome of a health probe.
type Result struct {
	// Status is the health status.
	Status Status

	// Message provides additional context about the status.
	Message string

	// Details contains arbitrary metadata about the probe.
	Details map[string]any

	// Duration is how long the probe took.
	Duration time.Duration

	// CheckedAt is when the probe was performed.
	CheckedAt time.Time

	// Error is the underlying error if the probe failed.
	Error error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{
		Status:    StatusHealthy,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		CheckedAt: time.Now(),
	}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{
		Status:    StatusUnhealthy,
		Message:   message,
		Error:     err,
		CheckedAt: time.Now(),
	}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker is the interface for health probes.
type Checker interface {
	// Name returns the name of this checker.
	Name() string

	// Check performs the health probe and returns the result.
	Check(ctx context.Context) Result
}

// CriticalChecker is a Checker that declares whether its failure
// makes the whole system unhealthy. A plain Checker without this
// interface is treated as critical.
type CriticalChecker interface {
	Checker

	// Critical reports whether an unhealthy result from this checker
	// should mark the aggregate status unhealthy rather than degraded.
	Critical() bool
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name     string
	critical bool
	fn       func(context.Context) Result
}

// NewCheckerFunc creates a critical CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, critical: true, fn: fn}
}

// NewNonCriticalCheckerFunc creates a CheckerFunc whose failure degrades
// the aggregate status instead of making it unhealthy.
func NewNonCriticalCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, critical: false, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Critical reports whether this checker is critical.
func (f *CheckerFunc) Critical() bool {
	return f.critical
}

// Check performs the health probe.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// isCritical reports the criticality of a checker. Checkers that do not
// implement CriticalChecker are treated as critical.
func isCritical(c Checker) bool {
	if cc, ok := c.(CriticalChecker); ok {
		return cc.Critical()
	}
	return true
}
