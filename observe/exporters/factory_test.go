package exporters

import (
	"context"
	"errors"
	"testing"
)

func clearOTLPEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
}

func TestNewTracingExporter(t *testing.T) {
	clearOTLPEnv(t)

	for _, name := range []string{"stdout", "none", ""} {
		exp, err := NewTracingExporter(context.Background(), name)
		if err != nil {
			t.Errorf("NewTracingExporter(%q) error = %v", name, err)
		}
		if exp == nil {
			t.Errorf("NewTracingExporter(%q) = nil", name)
		}
	}

	for _, name := range []string{"jaeger", "zipkin", "carrier-pigeon"} {
		_, err := NewTracingExporter(context.Background(), name)
		if !errors.Is(err, ErrUnknownExporter) {
			t.Errorf("NewTracingExporter(%q) error = %v, want ErrUnknownExporter", name, err)
		}
	}

	_, err := NewTracingExporter(context.Background(), "otlp")
	if !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("NewTracingExporter(otlp) error = %v, want ErrNoEndpoint", err)
	}
}

func TestNewMetricsReader(t *testing.T) {
	clearOTLPEnv(t)

	for _, name := range []string{"stdout", "prometheus", "none", ""} {
		r, err := NewMetricsReader(context.Background(), name)
		if err != nil {
			t.Errorf("NewMetricsReader(%q) error = %v", name, err)
		}
		if r == nil {
			t.Errorf("NewMetricsReader(%q) = nil", name)
		}
	}

	if _, err := NewMetricsReader(context.Background(), "statsd"); !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("NewMetricsReader(statsd) error = %v, want ErrUnknownExporter", err)
	}

	if _, err := NewMetricsReader(context.Background(), "otlp"); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("NewMetricsReader(otlp) error = %v, want ErrNoEndpoint", err)
	}
}

func TestOTLPEndpointResolution(t *testing.T) {
	clearOTLPEnv(t)

	if _, err := otlpEndpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); !errors.Is(err, ErrNoEndpoint) {
		t.Errorf("otlpEndpoint() error = %v, want ErrNoEndpoint", err)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "collector:4317")
	ep, err := otlpEndpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	if err != nil {
		t.Fatalf("otlpEndpoint() error = %v", err)
	}
	if ep != "collector:4317" {
		t.Errorf("otlpEndpoint() = %q, want %q", ep, "collector:4317")
	}

	// The generic variable wins over the signal-specific one.
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	ep, err = otlpEndpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")
	if err != nil {
		t.Fatalf("otlpEndpoint() error = %v", err)
	}
	if ep != "generic:4317" {
		t.Errorf("otlpEndpoint() = %q, want %q", ep, "generic:4317")
	}
}
