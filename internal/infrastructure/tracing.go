package infrastructure

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ServiceName identifies this service in emitted spans.
	ServiceName = "leetlens"
	// TracerName is the instrumentation scope for pipeline spans.
	TracerName = "leetlens/pipeline"
)

// InitializeTracing installs a stdout-exporting tracer provider and returns
// it together with a tracer for pipeline spans. The returned shutdown
// function must be called on exit to flush pending spans.
func InitializeTracing(ctx context.Context) (trace.Tracer, func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build trace resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Tracer(TracerName), provider.Shutdown, nil
}

// NoopTracer returns a tracer that records nothing, for tests and CLI runs
// that do not need spans.
func NoopTracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer(TracerName)
}
