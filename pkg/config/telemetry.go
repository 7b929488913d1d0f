package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/mpapenbr/greenflag/log"
	"github.com/mpapenbr/greenflag/version"
)

const (
	ExporterGrpc   = "grpc"
	ExporterStdout = "stdout"
)

var ErrUnknownExporter = errors.New("unknown telemetry exporter")

// Telemetry holds the providers installed as otel globals
type Telemetry struct {
	ctx    context.Context
	meter  *sdkmetric.MeterProvider
	tracer *sdktrace.TracerProvider
}

type telemetryOptions struct {
	exporter string
	endpoint string
	out      io.Writer
	interval time.Duration
}

type TelemetryOption func(*telemetryOptions)

func WithExporter(name string) TelemetryOption {
	return func(o *telemetryOptions) {
		o.exporter = name
	}
}

// WithStdoutWriter sets the writer used by the stdout exporter
func WithStdoutWriter(w io.Writer) TelemetryOption {
	return func(o *telemetryOptions) {
		o.out = w
	}
}

func WithExportInterval(d time.Duration) TelemetryOption {
	return func(o *telemetryOptions) {
		o.interval = d
	}
}

// SetupTelemetry installs global meter and tracer providers. The exporter
// and endpoint default to the values given by TelemetryExporter and
// TelemetryEndpoint.
func SetupTelemetry(ctx context.Context, opts ...TelemetryOption) (*Telemetry, error) {
	o := &telemetryOptions{
		exporter: TelemetryExporter,
		endpoint: TelemetryEndpoint,
		out:      os.Stdout,
		interval: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.exporter == "" {
		o.exporter = ExporterGrpc
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "greenflag"),
		attribute.String("service.version", version.Version),
	)
	metricExp, traceExp, err := createExporters(ctx, o)
	if err != nil {
		return nil, err
	}

	ret := &Telemetry{
		ctx: ctx,
		meter: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(
				sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(o.interval)))),
		tracer: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithBatcher(traceExp)),
	}
	otel.SetMeterProvider(ret.meter)
	otel.SetTracerProvider(ret.tracer)

	if err := otlpruntime.Start(
		otlpruntime.WithMeterProvider(ret.meter),
		otlpruntime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		log.Warn("Could not start runtime metrics", log.ErrorField(err))
	}
	log.Info("Telemetry enabled",
		log.String("exporter", o.exporter),
		log.String("endpoint", o.endpoint))
	return ret, nil
}

//nolint:whitespace // editor/linter issue
func createExporters(ctx context.Context, o *telemetryOptions) (
	sdkmetric.Exporter, sdktrace.SpanExporter, error,
) {
	switch o.exporter {
	case ExporterGrpc:
		me, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(o.endpoint),
			otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		te, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(o.endpoint),
			otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		return me, te, nil
	case ExporterStdout:
		me, err := stdoutmetric.New(stdoutmetric.WithWriter(o.out))
		if err != nil {
			return nil, nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		te, err := stdouttrace.New(stdouttrace.WithWriter(o.out))
		if err != nil {
			return nil, nil, fmt.Errorf("creating trace exporter: %w", err)
		}
		return me, te, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, o.exporter)
	}
}

// Shutdown flushes pending data and stops the providers
func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(t.ctx), 5*time.Second)
	defer cancel()
	if err := t.meter.Shutdown(ctx); err != nil {
		log.Warn("Could not shutdown meter provider", log.ErrorField(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Warn("Could not shutdown tracer provider", log.ErrorField(err))
	}
}
