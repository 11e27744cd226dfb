package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boutique/backend/internal/infrastructure/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Database is the postgres connection shared by every repository
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// GormConfig is the gorm configuration shared by the server and tests.
// TranslateError turns unique violations into gorm.ErrDuplicatedKey, which
// the repositories map to ALREADY_EXISTS and DUPLICATE_PAYMENT.
func GormConfig(gormLogger logger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// Open connects to postgres, sizes the pool and waits for the first ping
func Open(ctx context.Context, cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	gcfg := GormConfig(gormLogger)
	gcfg.PrepareStmt = true
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	d, err := wrap(gdb)
	if err != nil {
		return nil, err
	}

	d.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	d.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	d.sql.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	d.sql.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		_ = d.sql.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return d, nil
}

func wrap(gdb *gorm.DB) (*Database, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return &Database{DB: gdb, sql: sqlDB}, nil
}

// SQL returns the underlying pool, used by the migrator
func (d *Database) SQL() *sql.DB { return d.sql }

func (d *Database) Close() error { return d.sql.Close() }

// Ping checks the connection; the health endpoint calls it per request
func (d *Database) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// ConnectionStats is the pool usage reported by /health
type ConnectionStats struct {
	Open         int
	InUse        int
	Idle         int
	WaitCount    int64
	WaitDuration time.Duration
}

// Stats snapshots the connection pool
func (d *Database) Stats() ConnectionStats {
	s := d.sql.Stats()
	return ConnectionStats{
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}
