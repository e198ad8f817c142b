package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventquote_backend/internal/adapters"
	"eventquote_backend/internal/adapters/storage"
	"eventquote_backend/internal/bookings"
	"eventquote_backend/internal/catalog"
	"eventquote_backend/internal/email"
	"eventquote_backend/internal/events"
	"eventquote_backend/internal/exports"
	apphttp "eventquote_backend/internal/http"
	"eventquote_backend/internal/http/router"
	"eventquote_backend/internal/notification"
	"eventquote_backend/internal/payments"
	"eventquote_backend/internal/payments/gateway"
	"eventquote_backend/internal/pipeline"
	"eventquote_backend/internal/quotations"
	"eventquote_backend/internal/quotations/drafts"
	quotesvc "eventquote_backend/internal/quotations/service"
	"eventquote_backend/internal/scheduler"
	"eventquote_backend/internal/settings"
	settingssvc "eventquote_backend/internal/settings/service"
	"eventquote_backend/migrations"
	"eventquote_backend/platform/config"
	"eventquote_backend/platform/db"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/rediskit"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	redisClient, closeRedis := initRedis(ctx, cfg, log)
	if closeRedis != nil {
		defer closeRedis()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	pricingDefaults, err := settingssvc.LoadDefaults(cfg.GetPricingDefaultsFile())
	if err != nil {
		log.Error("failed to load pricing defaults", "error", err)
		panic("failed to load pricing defaults: " + err.Error())
	}

	refunder, err := initRefunder(cfg, log)
	if err != nil {
		log.Error("failed to initialize payment gateway", "error", err)
		panic("failed to initialize payment gateway: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	catalogModule := catalog.NewModule(pool, val, log)
	settingsModule := settings.NewModule(pool, settingsCache(redisClient, cfg), pricingDefaults, val, log)
	pipelineModule := pipeline.NewModule(pool, eventBus, val, log)
	paymentsModule := payments.NewModule(pool, refunder, val, log)
	bookingsModule := bookings.NewModule(pool, val, log)

	quotationsModule := quotations.NewModule(
		pool,
		eventBus,
		val,
		adapters.NewCatalogReader(catalogModule.Service()),
		settingsModule.Service(),
		draftStore(redisClient, cfg),
		log,
	)

	// Wire the cascade collaborators: quotations → pipeline, payments, bookings
	quotationsModule.Service().SetCascadeCollaborators(
		pipelineModule.Service(),
		adapters.NewPaymentLedger(paymentsModule.Service()),
		adapters.NewBookingManager(bookingsModule.Service),
	)

	if archive := initArchive(ctx, cfg, log); archive != nil {
		quotationsModule.Service().SetArchiveStore(archive)
	}

	if cfg.IsRedisEnabled() {
		retryClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize cascade retry scheduler", "error", err)
		} else {
			defer func() { _ = retryClient.Close() }()
			quotationsModule.Service().SetCascadeRetryScheduler(retryClient, cfg.GetCascadeRetryMaxAttempts())
		}
	} else {
		log.Warn("REDIS_URL not configured; failed cascade steps are not retried automatically")
	}

	exportsModule := exports.NewModule(quotationsModule.Service())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			catalogModule,
			settingsModule,
			pipelineModule,
			quotationsModule,
			paymentsModule,
			bookingsModule,
			exportsModule,
			notificationModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		notificationModule.SSE().Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, func()) {
	if !cfg.IsRedisEnabled() {
		log.Warn("REDIS_URL not configured; using in-memory drafts and uncached pricing configuration")
		return nil, nil
	}

	client, err := rediskit.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; continuing without it", "error", err)
		return nil, nil
	}
	return client, func() { _ = client.Close() }
}

func settingsCache(client *redis.Client, cfg config.PricingDefaultsConfig) settingssvc.Cache {
	if client == nil {
		return nil
	}
	return settingssvc.NewRedisCache(client, cfg.GetPricingConfigCacheTTL())
}

func draftStore(client *redis.Client, cfg config.DraftConfig) quotesvc.DraftStore {
	if client == nil {
		return drafts.NewMemoryStore(cfg.GetDraftTTL())
	}
	return drafts.NewRedisStore(client, cfg.GetDraftTTL())
}

func initRefunder(cfg config.PaymentGatewayConfig, log *logger.Logger) (gateway.Refunder, error) {
	if !cfg.GetPaymentGatewayMock() && cfg.GetMercadoPagoAccessToken() == "" {
		log.Warn("MERCADOPAGO_ACCESS_TOKEN not configured; provider payments are voided locally only")
		return nil, nil
	}
	return gateway.NewMercadoPagoGateway(cfg, log)
}

func initArchive(ctx context.Context, cfg *config.Config, log *logger.Logger) *storage.QuotationArchive {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; archived quotations are not exported to object storage")
		return nil
	}

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	archive := storage.NewQuotationArchive(storageSvc, cfg.GetMinioBucketQuotationArchive())
	if err := withRetry(ctx, log, "ensure quotation archive bucket", 5, 2*time.Second, func() error {
		return archive.Init(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketQuotationArchive())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "archiveBucket", cfg.GetMinioBucketQuotationArchive())
	return archive
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
