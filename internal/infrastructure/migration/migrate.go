// Package migration applies the SQL schema with golang-migrate. The migrate
// CLI reads a directory so new files are picked up without a rebuild; the
// server applies the copy embedded in its binary on start-up.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator runs schema changes against one postgres database
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New reads migration files from dir
func New(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	return NewFromFS(db, os.DirFS(dir), log)
}

// NewFromFS reads migration files from the root of fsys
func NewFromFS(db *sql.DB, fsys fs.FS, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	m.Log = migrateLogger{log.Sugar()}
	return &Migrator{m: m, log: log}, nil
}

// migrateLogger routes golang-migrate output to zap; per-file lines are
// debug
type migrateLogger struct{ s *zap.SugaredLogger }

func (l migrateLogger) Printf(format string, v ...any) { l.s.Debugf(format, v...) }
func (l migrateLogger) Verbose() bool                  { return l.s.Desugar().Core().Enabled(zap.DebugLevel) }

func (m *Migrator) Up() error   { return m.apply("up", m.m.Up) }
func (m *Migrator) Down() error { return m.apply("down", m.m.Down) }

// Steps moves n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %+d", n), func() error { return m.m.Steps(n) })
}

func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// apply treats "nothing to do" as success and logs the resulting version
func (m *Migrator) apply(op string, run func() error) error {
	switch err := run(); {
	case errors.Is(err, migrate.ErrNoChange):
		m.log.Info("Schema up to date", zap.String("operation", op))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info("Schema migrated",
		zap.String("operation", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Version is 0 on an empty database
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything.
// Only used to recover from a migration that failed halfway.
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
