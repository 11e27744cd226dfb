package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	scopeKey
)

// requestScope is who a request acts for. Only one value lives in the
// context; each setter copies it.
type requestScope struct {
	requestID  string
	userID     string
	sessionKey string
}

// WithContext attaches a logger to ctx
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the attached logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func scopeOf(ctx context.Context) requestScope {
	s, _ := ctx.Value(scopeKey).(requestScope)
	return s
}

func withScope(ctx context.Context, edit func(*requestScope)) context.Context {
	s := scopeOf(ctx)
	edit(&s)
	return context.WithValue(ctx, scopeKey, s)
}

// WithRequestID records the request id on ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withScope(ctx, func(s *requestScope) { s.requestID = requestID })
}

// WithUserID records the signed-in user on ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return withScope(ctx, func(s *requestScope) { s.userID = userID })
}

// WithSessionKey records the anonymous cart session key on ctx
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	return withScope(ctx, func(s *requestScope) { s.sessionKey = sessionKey })
}

func GetRequestID(ctx context.Context) string  { return scopeOf(ctx).requestID }
func GetUserID(ctx context.Context) string     { return scopeOf(ctx).userID }
func GetSessionKey(ctx context.Context) string { return scopeOf(ctx).sessionKey }

// MaskSessionKey shortens a session key for logs. The full key grants access
// to the anonymous cart it names.
func MaskSessionKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:6] + "***"
}

func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return sc, sc.IsValid()
}

// GetTraceID returns the active trace id, or ""
func GetTraceID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the active span id, or ""
func GetSpanID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.SpanID().String()
	}
	return ""
}

// WithTraceContext adds trace_id and span_id when ctx carries a valid span
func WithTraceContext(ctx context.Context, l *zap.Logger) *zap.Logger {
	sc, ok := spanContext(ctx)
	if !ok {
		return l
	}
	return l.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// ContextFields returns the request, caller and trace fields found on ctx.
// A user id suppresses the session key.
func ContextFields(ctx context.Context) []zap.Field {
	s := scopeOf(ctx)
	fields := make([]zap.Field, 0, 4)
	if s.requestID != "" {
		fields = append(fields, zap.String("request_id", s.requestID))
	}
	switch {
	case s.userID != "":
		fields = append(fields, zap.String("user_id", s.userID))
	case s.sessionKey != "":
		fields = append(fields, zap.String("session_key", MaskSessionKey(s.sessionKey)))
	}
	if sc, ok := spanContext(ctx); ok {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()))
	}
	return fields
}

// L returns the logger attached to ctx with ContextFields applied.
//
//	logger.L(ctx).Info("Line added", zap.String("sku", sku))
func L(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(ContextFields(ctx)...)
}
