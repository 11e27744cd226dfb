package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "github.com/boutique/backend/internal/application/cart"
	catalogapp "github.com/boutique/backend/internal/application/catalog"
	"github.com/boutique/backend/internal/application/common"
	identityapp "github.com/boutique/backend/internal/application/identity"
	inventoryapp "github.com/boutique/backend/internal/application/inventory"
	orderapp "github.com/boutique/backend/internal/application/order"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/auth"
	"github.com/boutique/backend/internal/infrastructure/cache"
	"github.com/boutique/backend/internal/infrastructure/config"
	"github.com/boutique/backend/internal/infrastructure/event"
	"github.com/boutique/backend/internal/infrastructure/gateway"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/infrastructure/migration"
	"github.com/boutique/backend/internal/infrastructure/persistence"
	"github.com/boutique/backend/internal/infrastructure/scheduler"
	"github.com/boutique/backend/internal/infrastructure/storage"
	"github.com/boutique/backend/internal/infrastructure/telemetry"
	"github.com/boutique/backend/internal/interfaces/http/handler"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/boutique/backend/internal/interfaces/http/router"
	"github.com/boutique/backend/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/boutique/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Boutique Storefront API
//	@version		1.0
//	@description	Storefront, cart, checkout and payment API of the boutique backend.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@securityDefinitions.apikey	SessionKey
//	@in							header
//	@name						X-Session-Key
//	@description				Anonymous cart key

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// telemetry needs a logger before the final logger can export through it
	bootLog, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log, err := logger.New(logger.FromAppConfig(cfg.Log), providers.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting boutique backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.Open(context.Background(), &cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := migrateUp(db, log); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	dbInst, err := telemetry.InstrumentDB(db.DB, providers.Meter("boutique/db"), telemetry.DBConfig{
		TraceEnabled:  cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:    cfg.Telemetry.DBLogFullSQL,
		SlowQueryThan: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() { _ = dbInst.Close() }()

	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  providers.Meter("boutique/business"),
		Logger: log,
		Stock:  telemetry.NewGormStockLevelSource(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	defer func() { _ = metrics.Close() }()

	redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	idempotency := cache.NewIdempotencyStore(redisClient, log)

	objectStorage, uploads := newObjectStorage(cfg, log)

	var cardGateway interface {
		payment.Gateway
		payment.WebhookVerifier
	} = gateway.Unavailable{}
	if cfg.Stripe.SecretKey != "" {
		stripeGateway, err := gateway.NewStripeGateway(cfg.Stripe, nil, log)
		if err != nil {
			log.Fatal("Failed to create Stripe gateway", zap.Error(err))
		}
		cardGateway = stripeGateway
	} else {
		log.Warn("Stripe not configured, card payments are disabled")
	}

	// Repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	attributeRepo := persistence.NewGormAttributeRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	stockRepo := persistence.NewGormStockRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Event bus; handlers run synchronously after the publishing transaction
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewActivityLog(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	storefrontService := catalogapp.NewStorefrontService(productRepo, log)
	catalogAdminService := catalogapp.NewAdminService(catalogapp.AdminServiceConfig{
		Products:      productRepo,
		Attributes:    attributeRepo,
		Storage:       objectStorage,
		MaxUploadSize: cfg.HTTP.MaxUploadSize,
		Logger:        log,
	})
	cartService := cartapp.NewService(cartRepo, productRepo, txScope, log)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, cartService, log)
	addressService := identityapp.NewAddressService(addressRepo, log)
	inventoryService := inventoryapp.NewService(warehouseRepo, stockRepo, productRepo, txScope, log)
	checkoutService := orderapp.NewCheckoutService(addressRepo, txScope, metrics, log)
	orderService := orderapp.NewService(orderRepo, txScope, log)

	paymentCfg := paymentapp.ServiceConfig{
		Orders:        orderRepo,
		Payments:      paymentRepo,
		TxScope:       txScope,
		Gateway:       cardGateway,
		Storage:       objectStorage,
		Currency:      cfg.Checkout.Currency,
		MaxUploadSize: cfg.HTTP.MaxUploadSize,
		Metrics:       metrics,
		Logger:        log,
	}
	paymentService := paymentapp.NewService(paymentCfg)
	paymentAdminService := paymentapp.NewAdminService(paymentCfg)
	reconciler := paymentapp.NewReconciler(paymentCfg)
	webhookService := paymentapp.NewWebhookService(paymentapp.WebhookServiceConfig{
		Verifier:    cardGateway,
		Payments:    paymentRepo,
		Idempotency: idempotency,
		TxScope:     txScope,
		Metrics:     metrics,
		Logger:      log,
	})

	for _, p := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{
		catalogAdminService, authService, checkoutService, orderService,
		paymentService, paymentAdminService, reconciler, webhookService,
	} {
		p.SetEventPublisher(eventBus)
	}

	if cfg.Reconcile.Enabled && cfg.Stripe.SecretKey != "" {
		reconcileScheduler := scheduler.NewReconcileScheduler(reconciler, cfg.Reconcile, log)
		if err := reconcileScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start payment reconciliation", zap.Error(err))
		}
		defer func() {
			if err := reconcileScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping payment reconciliation", zap.Error(err))
			}
		}()
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.Secure(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	var authLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitRequests > 0 {
		engine.Use(middleware.RateLimit(
			newRateLimiter(redisClient, "ratelimit:api:", cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow),
			middleware.KeyByClientIP, log))
		if cfg.HTTP.AuthRateLimitRequests > 0 {
			authLimit = middleware.RateLimit(
				newRateLimiter(redisClient, "ratelimit:auth:", cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.RateLimitWindow),
				middleware.KeyByClientIP, log)
		}
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Int("auth_requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine.GET("/health", handler.NewHealthHandler(db, version).Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{Enabled: cfg.Swagger.Enabled, AllowedIPs: cfg.Swagger.AllowedIPs}),
		ginSwagger.WrapHandler(swaggerFiles.Handler))
	if uploads != nil {
		engine.GET("/uploads/*key", gin.WrapH(http.StripPrefix("/uploads", uploads)))
	}

	apiMiddleware := []gin.HandlerFunc{}
	if cfg.Telemetry.Enabled {
		apiMiddleware = append(apiMiddleware, middleware.Tracing(cfg.Telemetry.ServiceName))
	}
	apiMiddleware = append(apiMiddleware,
		middleware.Session(middleware.SessionConfig{JWTService: jwtService, TokenBlacklist: blacklist, Logger: log}),
		middleware.SpanEnricher(),
	)
	if cfg.Telemetry.MetricsEnabled {
		httpMetrics, err := middleware.HTTPMetrics(providers.Meter("boutique/http"))
		if err != nil {
			log.Fatal("Failed to create HTTP metrics", zap.Error(err))
		}
		apiMiddleware = append(apiMiddleware, httpMetrics)
	}
	if cfg.Telemetry.ProfilingEnabled {
		apiMiddleware = append(apiMiddleware, middleware.Profiling())
	}

	router.Mount(engine, "v1", apiMiddleware, router.Storefront(router.Handlers{
		Catalog:      handler.NewCatalogHandler(storefrontService),
		CatalogAdmin: handler.NewCatalogAdminHandler(catalogAdminService),
		Auth:         handler.NewAuthHandler(authService),
		Addresses:    handler.NewAddressHandler(addressService),
		Cart:         handler.NewCartHandler(cartService),
		Orders:       handler.NewOrderHandler(checkoutService, orderService),
		Payments:     handler.NewPaymentHandler(paymentService),
		PaymentAdmin: handler.NewPaymentAdminHandler(paymentAdminService),
		Webhooks:     handler.NewWebhookHandler(webhookService),
		Inventory:    handler.NewInventoryHandler(inventoryService),
	}, authLimit)...)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func migrateUp(db *persistence.Database, log *zap.Logger) error {
	m, err := migration.NewFromFS(db.SQL(), migrations.FS, log)
	if err != nil {
		return err
	}
	return m.Up()
}

// newObjectStorage picks S3 when a bucket is configured. Otherwise objects
// live in memory and the returned handler serves them under /uploads.
func newObjectStorage(cfg *config.Config, log *zap.Logger) (common.ObjectStorage, http.Handler) {
	if cfg.Storage.Bucket == "" {
		log.Warn("Object storage bucket not configured, keeping uploads in memory")
		mem := storage.NewMemoryObjectStorage("/uploads")
		return mem, mem
	}
	s3, err := storage.NewS3ObjectStorage(cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Could not verify object storage bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3, nil
}

func newRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) middleware.RateLimiter {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, prefix, limit, window)
	}
	return middleware.NewMemoryRateLimiter(limit, window)
}
