package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInit_EmptyEndpointIsNoop(t *testing.T) {
	// Act
	shutdown, err := Init(context.Background(), "test-service", "")

	// Assert
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInit_WithEndpoint(t *testing.T) {
	// экспортер подключается лениво, поэтому Init не требует живого коллектора
	shutdown, err := Init(context.Background(), "test-service", "127.0.0.1:4318")

	require.NoError(t, err)
	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
