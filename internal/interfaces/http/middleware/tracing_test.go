package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracing_EnrichesServerSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	svc := newTestJWTService()
	r := gin.New()
	r.Use(RequestID(), Tracing("boutique-test"), Session(SessionConfig{JWTService: svc}), SpanEnricher())
	r.GET("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	req.Header.Set(AuthHeader, "Bearer "+issueToken(t, svc, true))
	r.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String("request_id", "trace-me"))
	assert.Contains(t, attrs, attribute.Bool("user.is_staff", true))

	var hasUser bool
	for _, kv := range attrs {
		if kv.Key == "user_id" && kv.Value.AsString() != "" {
			hasUser = true
		}
	}
	assert.True(t, hasUser)
}
