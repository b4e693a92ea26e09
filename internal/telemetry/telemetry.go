// Package telemetry initializes OpenTelemetry tracing and metrics exporters.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Shutdown combines multiple shutdown functions.
type Shutdown func(ctx context.Context) error

// Init configures the global OpenTelemetry tracer and meter providers.
// If endpoint is empty, OTEL is disabled and no-op providers are used.
// Returns a shutdown function that must be called during graceful shutdown.
func Init(ctx context.Context, endpoint, serviceName, version string, insecure bool) (Shutdown, error) {
	if endpoint == "" {
		return func(ctx context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create resource: %w", err)
	}

	// Trace exporter.
	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
	}
	if insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
	}
	traceExp, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp,
			sdktrace.WithBatchTimeout(5*time.Second),
		),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	// Metric exporter.
	metricOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(endpoint),
	}
	if insecure {
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}
	metricExp, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExp,
				sdkmetric.WithInterval(15*time.Second),
			),
		),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		var firstErr error
		if err := tp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := mp.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		return firstErr
	}

	return shutdown, nil
}

// Meter returns the global meter for the given instrumentation scope.
func Meter(name string) metric.Meter {
	return otel.GetMeterProvider().Meter(name)
}

// EngineMetrics holds the engine's counters. Instruments are created
// best-effort; a nil counter simply records nothing.
type EngineMetrics struct {
	SamplesRecorded      metric.Int64Counter
	BlocksScheduled      metric.Int64Counter
	BlocksCompleted      metric.Int64Counter
	BlocksMissed         metric.Int64Counter
	SuggestionsGenerated metric.Int64Counter
	SuggestionsDismissed metric.Int64Counter
	SnapshotSaves        metric.Int64Counter
	SnapshotSaveFailures metric.Int64Counter
}

// NewEngineMetrics creates the engine instrument set on the global meter.
func NewEngineMetrics() *EngineMetrics {
	meter := Meter("hibiki/engine")
	m := &EngineMetrics{}
	m.SamplesRecorded, _ = meter.Int64Counter("hibiki.energy.samples_recorded",
		metric.WithDescription("Energy samples accepted into the profile"))
	m.BlocksScheduled, _ = meter.Int64Counter("hibiki.blocks.scheduled",
		metric.WithDescription("Time blocks scheduled"))
	m.BlocksCompleted, _ = meter.Int64Counter("hibiki.blocks.completed",
		metric.WithDescription("Time blocks completed"))
	m.BlocksMissed, _ = meter.Int64Counter("hibiki.blocks.missed",
		metric.WithDescription("Time blocks marked missed"))
	m.SuggestionsGenerated, _ = meter.Int64Counter("hibiki.suggestions.generated",
		metric.WithDescription("Suggestions produced by generation passes"))
	m.SuggestionsDismissed, _ = meter.Int64Counter("hibiki.suggestions.dismissed",
		metric.WithDescription("Suggestions dismissed by the user"))
	m.SnapshotSaves, _ = meter.Int64Counter("hibiki.snapshot.saves",
		metric.WithDescription("Successful snapshot saves"))
	m.SnapshotSaveFailures, _ = meter.Int64Counter("hibiki.snapshot.save_failures",
		metric.WithDescription("Failed snapshot saves"))
	return m
}

// Add increments c by n when the instrument exists.
func Add(ctx context.Context, c metric.Int64Counter, n int64) {
	if c != nil {
		c.Add(ctx, n)
	}
}
