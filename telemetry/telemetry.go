// Package telemetry configures OpenTelemetry tracing for programs that run
// state machines. Machines create their spans through the global tracer
// provider, so Initialize must run before they start.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amp-labs/amp-fsm/envutil"
	"github.com/amp-labs/amp-fsm/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	defaultServiceVersion = "1.0.0"
	defaultTimeout        = 5 * time.Second
	defaultSampleRatio    = 1.0
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvEnabled        = "OTEL_ENABLED"
	EnvServiceName    = "OTEL_SERVICE_NAME"
	EnvServiceVersion = "OTEL_SERVICE_VERSION"
	EnvEndpoint       = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvTimeout        = "OTEL_EXPORTER_OTLP_TRACES_TIMEOUT"
	EnvSampleRatio    = "OTEL_TRACES_SAMPLER_RATIO"
)

// ErrRatioOutOfRange is returned for sample ratios outside [0, 1].
var ErrRatioOutOfRange = errors.New("sample ratio outside [0, 1]")

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	Enabled        bool
	Timeout        time.Duration
	// SampleRatio is the fraction of root spans kept, between 0 and 1.
	SampleRatio float64
}

// ShutdownFunc flushes and stops the tracer provider installed by Initialize.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// LoadConfigFromEnv loads OpenTelemetry configuration from environment
// variables. The service name defaults to the logger subsystem in ctx.
func LoadConfigFromEnv(ctx context.Context, runningEnv string) (*Config, error) {
	enabled, err := envutil.Bool(ctx, EnvEnabled, envutil.Default(false)).Value()
	if err != nil {
		return nil, err
	}

	svcName, err := envutil.String(ctx, EnvServiceName,
		envutil.Default(logger.GetSubsystem(ctx))).
		Value()
	if err != nil {
		return nil, err
	}

	svcVersion, err := envutil.String(ctx, EnvServiceVersion,
		envutil.Default(defaultServiceVersion)).
		Value()
	if err != nil {
		return nil, err
	}

	endpoint, err := envutil.String(ctx, EnvEndpoint, envutil.Default("")).Value()
	if err != nil {
		return nil, err
	}

	timeout, err := envutil.Duration(ctx, EnvTimeout, envutil.Default(defaultTimeout)).Value()
	if err != nil {
		return nil, err
	}

	ratio, err := envutil.Map(envutil.String(ctx, EnvSampleRatio), parseRatio).
		WithDefault(defaultSampleRatio).
		Value()
	if err != nil {
		return nil, err
	}

	return &Config{
		ServiceName:    svcName,
		ServiceVersion: svcVersion,
		Environment:    runningEnv,
		Endpoint:       endpoint,
		Enabled:        enabled,
		Timeout:        timeout,
		SampleRatio:    ratio,
	}, nil
}

// Initialize installs a global OTLP/HTTP tracer provider. When tracing is
// disabled or no endpoint is configured it leaves the no-op provider in
// place and returns a no-op ShutdownFunc.
func Initialize(ctx context.Context, config *Config) (ShutdownFunc, error) {
	log := logger.Get(ctx)

	if !config.Enabled {
		log.Info("OpenTelemetry tracing is disabled")

		return noopShutdown, nil
	}

	if config.Endpoint == "" {
		log.Warn("OpenTelemetry endpoint not configured, tracing will be disabled")

		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(config.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(config.SampleRatio)),
	)

	otel.SetTracerProvider(tracerProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry tracing initialized",
		"service", config.ServiceName,
		"version", config.ServiceVersion,
		"environment", config.Environment,
		"endpoint", config.Endpoint,
		"sample_ratio", config.SampleRatio,
	)

	return func(ctx context.Context) error {
		logger.Get(ctx).Info("Shutting down OpenTelemetry tracer provider")

		return tracerProvider.Shutdown(ctx)
	}, nil
}

// Sampler returns a parent-based sampler keeping the given ratio of root spans.
func Sampler(ratio float64) sdktrace.Sampler { //nolint:ireturn
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func parseRatio(s string) (float64, error) {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}

	if ratio < 0 || ratio > 1 {
		return 0, fmt.Errorf("%w: %g", ErrRatioOutOfRange, ratio)
	}

	return ratio, nil
}
