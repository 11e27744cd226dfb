package main

import (
	"errors"
	"fmt"
	"os"

	cartapp "github.com/boutique/backend/internal/application/cart"
	catalogapp "github.com/boutique/backend/internal/application/catalog"
	identityapp "github.com/boutique/backend/internal/application/identity"
	inventoryapp "github.com/boutique/backend/internal/application/inventory"
	"github.com/boutique/backend/internal/infrastructure/auth"
	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/infrastructure/persistence"
	"github.com/boutique/backend/internal/infrastructure/storage"
	"github.com/boutique/backend/internal/seed"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Load demo data into the boutique database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "create warehouses, attributes, products, variants and stock from a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "catalog definition",
						Required: true,
					},
				},
				Action: withSeeder(func(c *cli.Context, s *seed.Seeder, log *zap.Logger) error {
					catalog, err := seed.LoadCatalogFile(c.String("file"))
					if err != nil {
						return err
					}
					if catalog.Operator == nil {
						return errors.New("catalog file has no operator section")
					}
					session, err := s.OperatorSession(c.Context, *catalog.Operator)
					if err != nil {
						return err
					}
					res, err := s.SeedCatalog(c.Context, session, catalog)
					if err != nil {
						return err
					}
					log.Info("Catalog seeded",
						zap.Int("warehouses", res.Warehouses),
						zap.Int("attributes", res.Attributes),
						zap.Int("products", res.Products),
						zap.Int("variants", res.Variants))
					return nil
				}),
			},
			{
				Name:  "customers",
				Usage: "register fake customers with a default shipping address",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Value: 20},
					&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "faker seed; the same seed yields the same customers"},
					&cli.StringFlag{Name: "password", Value: "Customer123", Usage: "password for every customer"},
				},
				Action: withSeeder(func(c *cli.Context, s *seed.Seeder, _ *zap.Logger) error {
					if c.Int("count") <= 0 {
						return fmt.Errorf("count must be positive, got %d", c.Int("count"))
					}
					customers := seed.FakeCustomers(c.Uint64("seed"), c.Int("count"), c.String("password"))
					_, err := s.SeedCustomers(c.Context, customers)
					return err
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

// withSeeder connects to the database from the BOUTIQUE_* configuration and
// builds a Seeder over the same application services the API uses
func withSeeder(action func(*cli.Context, *seed.Seeder, *zap.Logger) error) cli.ActionFunc {
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

		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(c.String("log-level")))
		db, err := persistence.Open(c.Context, &cfg.Database, gormLog)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() { _ = db.Close() }()

		productRepo := persistence.NewGormProductRepository(db.DB)
		userRepo := persistence.NewGormUserRepository(db.DB)
		txScope := persistence.NewGormTransactionScope(db.DB)

		catalogAdmin := catalogapp.NewAdminService(catalogapp.AdminServiceConfig{
			Products:      productRepo,
			Attributes:    persistence.NewGormAttributeRepository(db.DB),
			Storage:       storage.NewMemoryObjectStorage("/uploads"),
			MaxUploadSize: cfg.HTTP.MaxUploadSize,
			Logger:        log,
		})
		inventory := inventoryapp.NewService(
			persistence.NewGormWarehouseRepository(db.DB),
			persistence.NewGormStockRepository(db.DB),
			productRepo, txScope, log)
		carts := cartapp.NewService(persistence.NewGormCartRepository(db.DB), productRepo, txScope, log)
		accounts := identityapp.NewAuthService(userRepo, auth.NewJWTService(cfg.JWT),
			auth.NewInMemoryTokenBlacklist(), carts, log)
		addresses := identityapp.NewAddressService(persistence.NewGormAddressRepository(db.DB), log)

		s := seed.New(seed.Config{
			Catalog:   catalogAdmin,
			Stock:     inventory,
			Users:     userRepo,
			Accounts:  accounts,
			Addresses: addresses,
			Logger:    log,
		})
		log.Info("Running seed command", zap.String("command", c.Command.Name))
		return action(c, s, log)
	}
}
