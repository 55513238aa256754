package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Service information
	ServiceName    = "github.com/irfndi/quantsim-go"
	ServiceVersion = "1.0.0"

	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// TelemetryConfig holds configuration for telemetry
type TelemetryConfig struct {
	Enabled        bool
	Exporter       string
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SampleRate     float64
	BatchTimeout   time.Duration
	MaxExportBatch int
	MaxQueueSize   int
	LogLevel       string

	// Writer receives spans from the stdout exporter. Defaults to os.Stdout.
	Writer io.Writer
}

// Provider holds the telemetry provider
type Provider struct {
	Shutdown func(context.Context) error
}

// InitTelemetryWithProvider installs a global tracer provider and
// propagator. When disabled, the global no-op provider is left in place.
func InitTelemetryWithProvider(ctx context.Context, config *TelemetryConfig, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !config.Enabled {
		return &Provider{Shutdown: func(context.Context) error { return nil }}, nil
	}

	exporter, err := newExporter(ctx, config)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(valueOr(config.ServiceName, ServiceName)),
			semconv.ServiceVersion(valueOr(config.ServiceVersion, ServiceVersion)),
			semconv.DeploymentEnvironment(valueOr(config.Environment, "development")),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var batchOpts []sdktrace.BatchSpanProcessorOption
	if config.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(config.BatchTimeout))
	}
	if config.MaxExportBatch > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxExportBatchSize(config.MaxExportBatch))
	}
	if config.MaxQueueSize > 0 {
		batchOpts = append(batchOpts, sdktrace.WithMaxQueueSize(config.MaxQueueSize))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batchOpts...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate(config.SampleRate)))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Telemetry initialized",
		"exporter", config.Exporter,
		"service", config.ServiceName,
		"sample_rate", sampleRate(config.SampleRate),
	)

	return &Provider{Shutdown: tp.Shutdown}, nil
}

func newExporter(ctx context.Context, config *TelemetryConfig) (sdktrace.SpanExporter, error) {
	switch config.Exporter {
	case ExporterStdout:
		w := config.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, nil
	case ExporterOTLP, "":
		hostport, urlPath, insecure, _, err := normalizeOTLPEndpoint(config.OTLPEndpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid OTLPEndpoint: %w", err)
		}
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(hostport),
			otlptracehttp.WithURLPath(urlPath),
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", config.Exporter)
	}
}

// normalizeOTLPEndpoint splits an OTLP/HTTP base URL into the host:port and
// traces path expected by the exporter. http URLs are insecure.
func normalizeOTLPEndpoint(endpoint string) (hostport, urlPath string, insecure bool, resolved string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", false, "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", false, "", errors.New("endpoint must start with http:// or https://")
	}
	if u.Host == "" {
		return "", "", false, "", errors.New("endpoint has no host")
	}

	path := strings.TrimSuffix(u.Path, "/")
	if !strings.HasSuffix(path, "/v1/traces") {
		path += "/v1/traces"
	}

	resolved = fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, path)
	return u.Host, path, u.Scheme == "http", resolved, nil
}

// OTLPHostPort returns the host:port of an OTLP/HTTP base URL and whether it
// uses plain http. The log exporter shares the trace endpoint.
func OTLPHostPort(endpoint string) (string, bool, error) {
	hostport, _, insecure, _, err := normalizeOTLPEndpoint(endpoint)
	return hostport, insecure, err
}

func sampleRate(rate float64) float64 {
	if rate <= 0 || rate > 1 {
		return 1.0
	}
	return rate
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// GetTracer returns a named tracer from the global provider
func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// GetHTTPTracer returns the tracer for HTTP request spans
func GetHTTPTracer() trace.Tracer {
	return GetTracer(ServiceName + "/http")
}

// GetEngineTracer returns the tracer for simulation and pricing spans
func GetEngineTracer() trace.Tracer {
	return GetTracer(ServiceName + "/engine")
}

// RecordError records err on span and marks it failed
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
