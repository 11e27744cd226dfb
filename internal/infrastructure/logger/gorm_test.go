package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

const stockLockSQL = `SELECT * FROM stock_records WHERE variant_id = 'v1' FOR UPDATE`

func newObservedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func traceQuery(l *GormLogger, ctx context.Context, elapsed time.Duration, err error) {
	l.Trace(ctx, time.Now().Add(-elapsed), func() (string, int64) { return stockLockSQL, 2 }, err)
}

func TestGormLogger_LogMode(t *testing.T) {
	l, _ := newObservedGorm(gormlogger.Info, WithSlowThreshold(time.Second))
	assert.Equal(t, time.Second, l.slowThreshold)

	changed, ok := l.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, changed.level)
	assert.Equal(t, gormlogger.Info, l.level)
	assert.Equal(t, time.Second, changed.slowThreshold)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		wantMsg string
		want    zapcore.Level
	}{
		{"error", gormlogger.Error, time.Millisecond, errors.New("deadlock detected"), "SQL error", zapcore.ErrorLevel},
		{"slow", gormlogger.Warn, time.Second, nil, "Slow SQL", zapcore.WarnLevel},
		{"normal", gormlogger.Info, time.Millisecond, nil, "SQL", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, recorded := newObservedGorm(tt.level)
			traceQuery(l, context.Background(), tt.elapsed, tt.err)

			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.want, entry.Level)
			assert.Equal(t, stockLockSQL, entry.ContextMap()["sql"])
			assert.Equal(t, int64(2), entry.ContextMap()["rows"])
		})
	}
}

func TestGormLogger_SlowLockTagged(t *testing.T) {
	l, recorded := newObservedGorm(gormlogger.Warn)
	traceQuery(l, context.Background(), time.Second, nil)

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, true, fields["row_lock"])
	assert.Equal(t, defaultSlowQuery, fields["threshold"])
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	l, recorded := newObservedGorm(gormlogger.Silent)
	traceQuery(l, context.Background(), time.Second, errors.New("boom"))
	assert.Zero(t, recorded.Len())

	l, recorded = newObservedGorm(gormlogger.Error)
	traceQuery(l, context.Background(), time.Millisecond, gormlogger.ErrRecordNotFound)
	assert.Zero(t, recorded.Len(), "not found is expected")

	traceQuery(l, context.Background(), time.Second, nil)
	assert.Zero(t, recorded.Len(), "slow queries need warn")

	l, recorded = newObservedGorm(gormlogger.Warn, WithSlowThreshold(0))
	traceQuery(l, context.Background(), time.Minute, nil)
	assert.Zero(t, recorded.Len(), "zero threshold disables slow logging")
}

func TestGormLogger_Trace_RequestFields(t *testing.T) {
	l, recorded := newObservedGorm(gormlogger.Info)
	ctx := WithUserID(WithRequestID(context.Background(), "req-7"), "user-7")

	traceQuery(l, ctx, time.Millisecond, nil)

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "user-7", fields["user_id"])
}

func TestGormLogger_Messages(t *testing.T) {
	l, recorded := newObservedGorm(gormlogger.Warn)
	ctx := context.Background()

	l.Info(ctx, "migrated %d tables", 9)
	l.Warn(ctx, "slow pool %s", "checkout")
	l.Error(ctx, "lost connection")

	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, "slow pool checkout", recorded.All()[0].Message)
	assert.Equal(t, "lost connection", recorded.All()[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("ERROR"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("whatever"))
}
