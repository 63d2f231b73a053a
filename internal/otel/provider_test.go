package otel

import (
	"context"
	"testing"

	"github.com/mrzor/nblog/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
)

func TestSetup_DisabledIsNoop(t *testing.T) {
	tracer, cleanup, err := Setup(&config.OTELConfig{ServiceName: "nblog"}, "dev", zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	_, span := tracer.Start(context.Background(), "x")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestNewResource(t *testing.T) {
	cfg := &config.OTELConfig{ServiceName: "mixer-log", ResourceAttributes: "deployment=test"}
	res, err := NewResource(context.Background(), cfg, "1.2.3")
	require.NoError(t, err)

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "mixer-log", values[string(semconv.ServiceNameKey)])
	assert.Equal(t, "1.2.3", values[string(semconv.ServiceVersionKey)])
	assert.Equal(t, "test", values["deployment"])
}

func TestShutdownProvider_Nil(t *testing.T) {
	assert.NoError(t, ShutdownProvider(context.Background(), nil))
}
