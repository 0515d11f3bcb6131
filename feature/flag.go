package feature

import "context"

// Producer computes a degraded substitute result. It cannot fail;
// falling back is not an error condition.
type Producer func(ctx context.Context) any

// HealthFunc reports whether the primary path of a flag is healthy.
type HealthFunc func(ctx context.Context) bool

// Flag describes one degradable feature: a name, an on/off switch, a
// fallback producer for the degraded path, and an optional health
// signal that forces the fallback while the primary is unhealthy.
type Flag struct {
	// Name identifies the flag.
	Name string

	// Enabled controls whether the primary path runs. A disabled flag
	// always takes the fallback.
	Enabled bool

	// Fallback produces the degraded result. Required.
	Fallback Producer

	// HealthCheck reports the primary path's health. Nil means always
	// healthy.
	HealthCheck HealthFunc
}

// Reason explains why a call was routed to the fallback.
type Reason int

const (
	// ReasonDisabled means the flag's switch is off.
	ReasonDisabled Reason = iota
	// ReasonUnhealthy means the flag's health check reported unhealthy.
	ReasonUnhealthy
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonDisabled:
		return "disabled"
	case ReasonUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}
