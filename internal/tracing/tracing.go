// Package tracing sets up OpenTelemetry for policyctl. Spans are exported
// as JSON through the stdout exporter, to a file or any writer.
package tracing

import (
	"context"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InstrumentationName names the tracer used by the application service.
const InstrumentationName = "github.com/awmpietro/policy-blocks/internal/app"

// NewWriterExporter returns a span exporter writing JSON lines to w.
func NewWriterExporter(w io.Writer) (sdktrace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithWriter(w))
}

// NewProvider builds a tracer provider that exports every span as soon as
// it ends. Callers own the provider and must Shutdown it to flush.
func NewProvider(ctx context.Context, serviceName, serviceVersion string, exporter sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	), nil
}
