package telemetry

import (
	"context"
	"testing"

	"github.com/samirrijal/earthwork/internal/pkg/config"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), config.TelemetryConfig{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shutdown()

	_, span := Tracer().Start(context.Background(), SpanCalculation)
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Error("expected a noop span when tracing is disabled")
	}
}

func TestInitTracer_UnknownExporter(t *testing.T) {
	_, err := InitTracer(context.Background(), config.TelemetryConfig{Enabled: true, Exporter: "zipkin"})
	if err == nil {
		t.Fatal("expected an error for an unknown exporter")
	}
}

func TestInitTracer_Stdout(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		Exporter:    "stdout",
		ServiceName: "earthwork-test",
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer shutdown()

	_, span := Tracer().Start(context.Background(), SpanCalculation)
	span.End()
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span with a valid context")
	}
}
