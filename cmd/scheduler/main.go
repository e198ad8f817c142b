package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"eventquote_backend/internal/adapters"
	"eventquote_backend/internal/adapters/storage"
	"eventquote_backend/internal/bookings"
	"eventquote_backend/internal/catalog"
	"eventquote_backend/internal/email"
	"eventquote_backend/internal/events"
	"eventquote_backend/internal/notification"
	"eventquote_backend/internal/payments"
	"eventquote_backend/internal/payments/gateway"
	"eventquote_backend/internal/pipeline"
	"eventquote_backend/internal/quotations"
	"eventquote_backend/internal/quotations/drafts"
	quoterepo "eventquote_backend/internal/quotations/repository"
	"eventquote_backend/internal/scheduler"
	"eventquote_backend/internal/settings"
	settingssvc "eventquote_backend/internal/settings/service"
	"eventquote_backend/platform/config"
	"eventquote_backend/platform/db"
	"eventquote_backend/platform/logger"
	"eventquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Operator emails for steps that keep failing are sent from the worker.
	notificationModule := notification.New(sender, cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	pricingDefaults, err := settingssvc.LoadDefaults(cfg.GetPricingDefaultsFile())
	if err != nil {
		log.Error("failed to load pricing defaults", "error", err)
		panic("failed to load pricing defaults: " + err.Error())
	}

	var refunder gateway.Refunder
	if cfg.GetPaymentGatewayMock() || cfg.GetMercadoPagoAccessToken() != "" {
		mp, err := gateway.NewMercadoPagoGateway(cfg, log)
		if err != nil {
			log.Error("failed to initialize payment gateway", "error", err)
			panic("failed to initialize payment gateway: " + err.Error())
		}
		refunder = mp
	}

	val := validator.New()

	// Worker-side quotation wiring (no HTTP handlers required).
	catalogModule := catalog.NewModule(pool, val, log)
	settingsModule := settings.NewModule(pool, nil, pricingDefaults, val, log)
	pipelineModule := pipeline.NewModule(pool, eventBus, val, log)
	paymentsModule := payments.NewModule(pool, refunder, val, log)
	bookingsModule := bookings.NewModule(pool, val, log)
	quotationsModule := quotations.NewModule(
		pool,
		eventBus,
		val,
		adapters.NewCatalogReader(catalogModule.Service()),
		settingsModule.Service(),
		drafts.NewMemoryStore(cfg.GetDraftTTL()),
		log,
	)
	quotationsModule.Service().SetCascadeCollaborators(
		pipelineModule.Service(),
		adapters.NewPaymentLedger(paymentsModule.Service()),
		adapters.NewBookingManager(bookingsModule.Service),
	)

	if cfg.IsMinIOEnabled() {
		storageSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		quotationsModule.Service().SetArchiveStore(storage.NewQuotationArchive(storageSvc, cfg.GetMinioBucketQuotationArchive()))
	}

	retryClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize cascade retry client", "error", err)
		panic("failed to initialize cascade retry client: " + err.Error())
	}
	defer func() { _ = retryClient.Close() }()
	quotationsModule.Service().SetCascadeRetryScheduler(retryClient, cfg.GetCascadeRetryMaxAttempts())

	cleanupInterval := getDurationEnv("CASCADE_RUN_CLEANUP_INTERVAL", time.Hour)
	retention := time.Duration(getPositiveIntEnv("CASCADE_RUN_RETENTION_DAYS", 180)) * 24 * time.Hour
	cascadeCleanup := scheduler.NewCascadeRunCleanup(quoterepo.New(pool), log, cleanupInterval, retention)
	go cascadeCleanup.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, quotationsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

func getPositiveIntEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}

	return parsed
}
