// Package observer provides OTEL-based observability for courier relay
// sessions.
//
// It emits one span per session plus counters and a duration histogram via
// OpenTelemetry. Export goes to any OTLP-compatible backend configured
// through standard OTEL env vars (OTEL_EXPORTER_OTLP_ENDPOINT, etc.).
package observer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/courier-relay/courier/observer"

// Instruments holds the OTEL instruments the relay records into. A nil
// *Instruments is valid everywhere and disables instrumentation.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger otellog.Logger

	Sessions        metric.Int64Counter
	Cancels         metric.Int64Counter
	Commits         metric.Int64Counter
	Updates         metric.Int64Counter
	SessionDuration metric.Float64Histogram
}

// Init sets up OTEL trace, metric, and log providers with OTLP HTTP
// exporters and builds the relay's instruments. Returns a shutdown
// function that must be called on application exit.
func Init(ctx context.Context) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName("courier")),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logExp, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	inst, err := newInstruments()
	if err != nil {
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx), lp.Shutdown(ctx))
	}
	return inst, shutdown, nil
}

func newInstruments() (*Instruments, error) {
	meter := otel.Meter(scopeName)
	inst := &Instruments{
		Tracer: otel.Tracer(scopeName),
		Meter:  meter,
		Logger: global.Logger(scopeName),
	}

	var err error
	if inst.Sessions, err = meter.Int64Counter("courier.sessions",
		metric.WithDescription("Relay sessions, by terminal state")); err != nil {
		return nil, err
	}
	if inst.Cancels, err = meter.Int64Counter("courier.cancels",
		metric.WithDescription("Cancel-button presses received")); err != nil {
		return nil, err
	}
	if inst.Commits, err = meter.Int64Counter("courier.progress_commits",
		metric.WithDescription("Visible progress message edits")); err != nil {
		return nil, err
	}
	if inst.Updates, err = meter.Int64Counter("courier.progress_updates",
		metric.WithDescription("Classified progress updates")); err != nil {
		return nil, err
	}
	if inst.SessionDuration, err = meter.Float64Histogram("courier.session_duration",
		metric.WithDescription("Session wall time"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return inst, nil
}
