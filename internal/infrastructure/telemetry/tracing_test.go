package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpan(t *testing.T) {
	rec := useRecorder(t)

	ctx, span := StartSpan(context.Background(), "checkout", "place_order", attribute.String("cart.id", "c1"))
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, nil)

	_, failing := StartSpan(context.Background(), "payment", "create_intent")
	EndSpan(failing, errors.New("gateway down"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "checkout.place_order", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("cart.id", "c1"))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)

	assert.Equal(t, "payment.create_intent", ended[1].Name())
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "gateway down", ended[1].Status().Description)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.LogsEnabled())
	assert.NotNil(t, p.Meter("test"))
	assert.False(t, p.LogCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestWithProfilingLabels(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), map[string]string{
		LabelRoute:  "/api/v1/cart",
		LabelMethod: "",
	}, func(ctx context.Context) {
		called = true
		assert.NotNil(t, ctx)
	})
	assert.True(t, called)

	called = false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestStartProfiler_Validation(t *testing.T) {
	p, err := StartProfiler("", "", zap.NewNop())
	assert.Error(t, err)
	assert.Nil(t, p)
}
