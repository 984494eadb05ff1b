// Package otel configures OpenTelemetry tracing for the process.
package otel

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Environment variables read by Setup.
const (
	EnvEndpoint = "NEWSCLAW_OTEL_ENDPOINT"
	EnvEnabled  = "NEWSCLAW_OTEL_ENABLED"
)

// Setup initialises tracing for serviceName and returns a shutdown function
// that flushes pending spans.
//
// Tracing is opt-in: with NEWSCLAW_OTEL_ENDPOINT empty or
// NEWSCLAW_OTEL_ENABLED set to "false", no global provider is registered
// and the spans started across the code base are no-ops.
func Setup(ctx context.Context, serviceName, version string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if strings.EqualFold(os.Getenv(EnvEnabled), "false") {
		return noop, nil
	}

	endpoint := os.Getenv(EnvEndpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
