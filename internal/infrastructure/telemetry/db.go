package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBConfig configures InstrumentDB
type DBConfig struct {
	TraceEnabled  bool
	LogFullSQL    bool
	SlowQueryThan time.Duration
}

type queryStartKey struct{}

// DBInstrumentation adds query spans, a query duration histogram, slow
// query warnings and connection pool gauges to a GORM handle.
type DBInstrumentation struct {
	cfg      DBConfig
	logger   *zap.Logger
	duration *Histogram
	errors   *Counter
	poolReg  metric.Registration
}

// InstrumentDB registers the instrumentation on db
func InstrumentDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if cfg.SlowQueryThan <= 0 {
		cfg.SlowQueryThan = 200 * time.Millisecond
	}
	in := NewInstruments(meter)
	d := &DBInstrumentation{
		cfg:      cfg,
		logger:   logger,
		duration: in.Histogram("boutique_db_query_duration", "Database query duration", "s", DBDurationBuckets...),
		errors:   in.Counter("boutique_db_query_errors_total", "Failed database queries", "{query}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}

	if cfg.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName("postgres")}
		if !cfg.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return nil, fmt.Errorf("failed to register otelgorm: %w", err)
		}
	}

	if err := d.registerCallbacks(db); err != nil {
		return nil, fmt.Errorf("failed to register query callbacks: %w", err)
	}
	if err := d.observePool(db, meter); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.TraceEnabled),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThan))
	return d, nil
}

func (d *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("boutique:before_create", d.before),
		cb.Create().After("gorm:create").Register("boutique:after_create", d.after("insert")),
		cb.Query().Before("gorm:query").Register("boutique:before_query", d.before),
		cb.Query().After("gorm:query").Register("boutique:after_query", d.after("select")),
		cb.Update().Before("gorm:update").Register("boutique:before_update", d.before),
		cb.Update().After("gorm:update").Register("boutique:after_update", d.after("update")),
		cb.Delete().Before("gorm:delete").Register("boutique:before_delete", d.before),
		cb.Delete().After("gorm:delete").Register("boutique:after_delete", d.after("delete")),
		cb.Row().Before("gorm:row").Register("boutique:before_row", d.before),
		cb.Row().After("gorm:row").Register("boutique:after_row", d.after("row")),
		cb.Raw().Before("gorm:raw").Register("boutique:before_raw", d.before),
		cb.Raw().After("gorm:raw").Register("boutique:after_raw", d.after("raw")),
	)
}

func (d *DBInstrumentation) before(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
}

func (d *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		attrs := []attribute.KeyValue{
			AttrDBOperation.String(operation),
			AttrDBTable.String(db.Statement.Table),
		}
		d.duration.RecordDuration(ctx, elapsed, attrs...)

		failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
		if failed {
			d.errors.Inc(ctx, attrs...)
		}

		span := trace.SpanFromContext(ctx)
		if span.IsRecording() {
			span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
			if failed {
				span.SetStatus(codes.Error, db.Error.Error())
				span.RecordError(db.Error)
			}
		}

		if elapsed > d.cfg.SlowQueryThan {
			if span.IsRecording() {
				span.AddEvent("slow_query", trace.WithAttributes(
					attribute.Int64("duration_ms", elapsed.Milliseconds())))
			}
			d.logger.Warn("Slow query",
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.String("trace_id", TraceID(ctx)))
		}
	}
}

func (d *DBInstrumentation) observePool(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	conns, err := meter.Int64ObservableGauge("boutique_db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return fmt.Errorf("failed to create pool gauge: %w", err)
	}
	waits, err := meter.Int64ObservableCounter("boutique_db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return fmt.Errorf("failed to create pool wait counter: %w", err)
	}

	d.poolReg, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := sqlDB.Stats()
		o.ObserveInt64(conns, int64(s.InUse), metric.WithAttributes(AttrStatus.String("in_use")))
		o.ObserveInt64(conns, int64(s.Idle), metric.WithAttributes(AttrStatus.String("idle")))
		o.ObserveInt64(waits, s.WaitCount)
		return nil
	}, conns, waits)
	if err != nil {
		return fmt.Errorf("failed to register pool callback: %w", err)
	}
	return nil
}

// Close stops the pool stats callback
func (d *DBInstrumentation) Close() error {
	if d.poolReg == nil {
		return nil
	}
	return d.poolReg.Unregister()
}
