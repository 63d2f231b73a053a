// Package otel provides OpenTelemetry tracer provider initialization and management.
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/mrzor/nblog/internal/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// TracerName is the instrumentation scope of nblog spans.
const TracerName = "github.com/mrzor/nblog"

// InitProvider creates a tracer provider exporting over OTLP/HTTP. The
// HTTP client honors HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func InitProvider(cfg *config.OTELConfig, version string, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := cfg.Endpoint()
	logger.Info("OTEL configuration",
		zap.String("service", cfg.ServiceName),
		zap.String("endpoint", endpoint),
		zap.String("resource_attributes", cfg.ResourceAttributes),
	)

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := NewResource(ctx, cfg, version)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// NewResource describes this service, including OTEL_RESOURCE_ATTRIBUTES.
func NewResource(ctx context.Context, cfg *config.OTELConfig, version string) (*resource.Resource, error) {
	opts := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}
	if version != "" {
		opts = append(opts, resource.WithAttributes(semconv.ServiceVersion(version)))
	}
	if attrs := cfg.ParseResourceAttributes(); len(attrs) > 0 {
		opts = append(opts, resource.WithAttributes(attrs...))
	}
	res, err := resource.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}

// Setup returns a tracer and its cleanup. Without a configured endpoint the
// tracer is a no-op and nothing is exported.
func Setup(cfg *config.OTELConfig, version string, logger *zap.Logger) (trace.Tracer, func(), error) {
	if !cfg.Enabled() {
		return noop.NewTracerProvider().Tracer(TracerName), func() {}, nil
	}
	tp, err := InitProvider(cfg, version, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ShutdownProvider(ctx, tp); err != nil {
			logger.Warn("shutting down OTEL provider", zap.Error(err))
		}
	}
	return tp.Tracer(TracerName), cleanup, nil
}

// ShutdownProvider flushes and stops tp.
func ShutdownProvider(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	return nil
}
