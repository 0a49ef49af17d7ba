package tracing

import (
	"context"
	"errors"
	"io"
	"testing"

	"serialvault/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// installRecorder swaps the global provider for one that keeps spans in memory
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})

	return recorder
}

func TestTracingManager_Disabled(t *testing.T) {
	tm := NewTracingManager(models.TracingConfig{Enabled: false}, "test", quietLogger())

	require.NoError(t, tm.Initialize(context.Background()))
	assert.Nil(t, tm.tracerProvider)
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestTracingManager_Stdout(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	tm := NewTracingManager(models.TracingConfig{
		Enabled:     true,
		UseStdout:   true,
		ServiceName: "serialvault-test",
		Environment: "test",
		SampleRate:  1.0,
	}, "test", quietLogger())

	require.NoError(t, tm.Initialize(context.Background()))
	assert.NotNil(t, tm.tracerProvider)
	assert.NoError(t, tm.Shutdown(context.Background()))
}

func TestTracingManager_OTLP(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	// The HTTP exporter connects lazily, so no collector is needed to start.
	tm := NewTracingManager(models.TracingConfig{
		Enabled:      true,
		ServiceName:  "serialvault-test",
		OTLPEndpoint: "127.0.0.1:4318",
		SampleRate:   0.5,
	}, "test", quietLogger())

	require.NoError(t, tm.Initialize(context.Background()))
	assert.NotNil(t, tm.tracerProvider)
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "serialkeys.insert", attribute.Int("count", 3))
	AddSpanAttributes(ctx, attribute.String("product_id", "38"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "serialkeys.insert", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("count", 3))
	assert.Contains(t, spans[0].Attributes(), attribute.String("product_id", "38"))
}

func TestRecordError_SetsStatus(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartSpan(context.Background(), "op")
	RecordError(ctx, errors.New("database is locked"))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "database is locked", spans[0].Status().Description)
	require.Len(t, spans[0].Events(), 1)
}

func TestRecordError_NilAndNoSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(context.Background(), errors.New("no span"))
		RecordError(context.Background(), nil)
		AddSpanAttributes(context.Background(), attribute.Bool("x", true))
	})
}

func TestGetOtelTraceID(t *testing.T) {
	assert.Empty(t, GetOtelTraceID(context.Background()))

	installRecorder(t)
	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	assert.Len(t, GetOtelTraceID(ctx), 32)
}
