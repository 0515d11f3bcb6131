// Package observe provides telemetry for the resilience guards.
//
// It is a pure instrumentation library: zerolog-backed structured
// logging, OpenTelemetry metrics and tracing, and hook adapters that
// plug into the guard and feature callback fields. Guards never
// depend on this package; callers wire hooks in at construction time.
package observe
