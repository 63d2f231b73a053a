package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultOTLPEndpoint is the OTLP/HTTP collector address used when only
// tracing is requested without an endpoint.
const DefaultOTLPEndpoint = "localhost:4318"

// OTELConfig holds OpenTelemetry configuration from environment variables.
// Tracing is off unless an exporter endpoint is set.
type OTELConfig struct {
	ServiceName        string `env:"OTEL_SERVICE_NAME" envDefault:"nblog"`
	ResourceAttributes string `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:""`
	ExporterEndpoint   string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	TracesEndpoint     string `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT" envDefault:""`
}

// ParseOTELConfig parses OTEL configuration from environment variables.
func ParseOTELConfig() (*OTELConfig, error) {
	var cfg OTELConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse OTEL config: %w", err)
	}
	return &cfg, nil
}

// Enabled reports whether an exporter endpoint was configured.
func (c *OTELConfig) Enabled() bool {
	return c.TracesEndpoint != "" || c.ExporterEndpoint != ""
}

// Endpoint returns the traces endpoint with scheme and path removed.
// Priority: OTEL_EXPORTER_OTLP_TRACES_ENDPOINT > OTEL_EXPORTER_OTLP_ENDPOINT > default.
func (c *OTELConfig) Endpoint() string {
	endpoint := DefaultOTLPEndpoint
	switch {
	case c.TracesEndpoint != "":
		endpoint = c.TracesEndpoint
	case c.ExporterEndpoint != "":
		endpoint = c.ExporterEndpoint
	}
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	if host, _, ok := strings.Cut(endpoint, "/"); ok {
		endpoint = host
	}
	return endpoint
}

// ParseResourceAttributes parses OTEL_RESOURCE_ATTRIBUTES.
// Format: key1=value1,key2=value2
func (c *OTELConfig) ParseResourceAttributes() []attribute.KeyValue {
	if c.ResourceAttributes == "" {
		return nil
	}

	var attrs []attribute.KeyValue
	for _, pair := range strings.Split(c.ResourceAttributes, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if ok && key != "" {
			attrs = append(attrs, attribute.String(key, strings.TrimSpace(value)))
		}
	}
	return attrs
}
