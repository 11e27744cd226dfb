package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "Boutique database migration tool",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "path",
				Value:   "migrations",
				Usage:   "directory holding NNNNNN_name.{up,down}.sql files",
				EnvVars: []string{"BOUTIQUE_MIGRATIONS_PATH"},
			},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withMigrator(func(_ *cli.Context, m *migration.Migrator) error {
					return m.Up()
				}),
			},
			{
				Name:  "down",
				Usage: "roll back every migration",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "confirm", Usage: "required; drops all data"}},
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
					if !c.Bool("confirm") {
						return errors.New("refusing to roll back everything without --confirm")
					}
					return m.Down()
				}),
			},
			{
				Name:      "step",
				Usage:     "apply n migrations (negative rolls back)",
				ArgsUsage: "<n>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
					n, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid step count %q", c.Args().First())
					}
					return m.Steps(n)
				}),
			},
			{
				Name:      "goto",
				Usage:     "migrate to a specific version",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
					v, err := strconv.ParseUint(c.Args().First(), 10, 32)
					if err != nil {
						return fmt.Errorf("invalid version %q", c.Args().First())
					}
					return m.GoTo(uint(v))
				}),
			},
			{
				Name:  "version",
				Usage: "print the current version",
				Action: withMigrator(func(_ *cli.Context, m *migration.Migrator) error {
					v, dirty, err := m.Version()
					if err != nil {
						return err
					}
					fmt.Printf("version=%d dirty=%t\n", v, dirty)
					return nil
				}),
			},
			{
				Name:      "force",
				Usage:     "set the version without running migrations (recovers a dirty state)",
				ArgsUsage: "<version>",
				Action: withMigrator(func(c *cli.Context, m *migration.Migrator) error {
					v, err := strconv.Atoi(c.Args().First())
					if err != nil {
						return fmt.Errorf("invalid version %q", c.Args().First())
					}
					return m.Force(v)
				}),
			},
			{
				Name:      "create",
				Usage:     "create the next migration file pair",
				ArgsUsage: "<name> [description]",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 {
						return errors.New("migration name required")
					}
					f, err := migration.Create(c.String("path"), c.Args().Get(0), c.Args().Get(1))
					if err != nil {
						return err
					}
					fmt.Println(f.UpPath)
					fmt.Println(f.DownPath)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "list migration files",
				Action: func(c *cli.Context) error {
					names, err := migration.List(c.String("path"))
					if err != nil {
						return err
					}
					for _, n := range names {
						fmt.Println(n)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

// withMigrator opens the database from the BOUTIQUE_* configuration and
// hands a Migrator to action
func withMigrator(action func(*cli.Context, *migration.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		log, err := logger.New(&logger.Config{
			Level:      c.String("log-level"),
			Format:     "console",
			Output:     "stdout",
			TimeFormat: "2006-01-02 15:04:05",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dir, err := filepath.Abs(c.String("path"))
		if err != nil {
			return err
		}

		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(c.Context); err != nil {
			return fmt.Errorf("failed to reach database: %w", err)
		}

		m, err := migration.New(db, dir, log)
		if err != nil {
			return err
		}
		defer m.Close()

		log.Info("Running migration command",
			zap.String("command", c.Command.Name),
			zap.String("path", dir))
		return action(c, m)
	}
}
