package telemetry

import (
	"context"
	"strings"

	"github.com/MohammedGhazal09/portfolio/internal/config"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/MohammedGhazal09/portfolio"

// Provider owns the tracer used for relay calls. Without an OTLP endpoint
// it hands out a no-op tracer.
type Provider struct {
	sdk    *sdktrace.TracerProvider
	tracer oteltrace.Tracer
}

// NewProvider creates a provider exporting to telemetry.otlp_endpoint when set.
func NewProvider(cfg *config.Config, logger *zap.Logger) (*Provider, error) {
	endpoint := cfg.GetString("telemetry.otlp_endpoint")
	if endpoint == "" {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}, nil
	}

	exporter, err := otlptracehttp.New(context.Background(), endpointOptions(endpoint)...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.GetString("telemetry.service_name")),
	)

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	logger.Info("Tracing enabled", zap.String("endpoint", endpoint))

	return &Provider{sdk: sdk, tracer: sdk.Tracer(instrumentationName)}, nil
}

// endpointOptions accepts either a full collector URL, as
// OTEL_EXPORTER_OTLP_ENDPOINT carries, or a bare host:port spoken to over
// plain HTTP.
func endpointOptions(endpoint string) []otlptracehttp.Option {
	if strings.Contains(endpoint, "://") {
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	}
	return []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	}
}

// Tracer returns the tracer for relay spans.
func (p *Provider) Tracer() oteltrace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.sdk != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}
