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

	"crm_backend/internal/adapters/storage"
	"crm_backend/internal/analytics"
	"crm_backend/internal/auth"
	authadapter "crm_backend/internal/auth/adapter"
	"crm_backend/internal/automation"
	"crm_backend/internal/communications"
	"crm_backend/internal/customers"
	"crm_backend/internal/dataio"
	"crm_backend/internal/deals"
	"crm_backend/internal/documents"
	"crm_backend/internal/domain"
	"crm_backend/internal/email"
	"crm_backend/internal/events"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/http/router"
	"crm_backend/internal/marketing"
	"crm_backend/internal/messaging"
	"crm_backend/internal/scheduler"
	"crm_backend/internal/scoring"
	scoringservice "crm_backend/internal/scoring/service"
	"crm_backend/internal/segmentation"
	"crm_backend/internal/tasks"
	"crm_backend/platform/cache"
	"crm_backend/platform/config"
	"crm_backend/platform/db"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
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

	var conn *db.DB
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		c, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer conn.Close()
	log.Info("database connection established", "dialect", conn.Dialect())

	if err := db.Migrate(ctx, conn); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	responseCache, closeCache := initCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	enqueuer, closeScheduler := initScoringEnqueuer(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	objects := initObjectStore(ctx, cfg, log)

	sender := email.NewSender(cfg, log)
	phones := phone.NewNormalizer(cfg.GetPhoneDefaultRegion())

	// Shared validator with every domain enum tag registered
	val := domain.NewValidator()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule, err := auth.NewModule(conn, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}
	users := authadapter.NewUserProviderAdapter(authModule.Repository())

	customersModule := customers.NewModule(conn, val, eventBus, phones, log)
	customerRepo := customersModule.Repository()

	dealsModule := deals.NewModule(conn, customerRepo, val, eventBus, log)
	tasksModule := tasks.NewModule(conn, customerRepo, val, eventBus, log)
	scoringModule := scoring.NewModule(conn, val, eventBus, enqueuer, log)
	segmentationModule := segmentation.NewModule(customerRepo, dealsModule.Repository(), responseCache, cfg.GetDashboardCacheTTL(), eventBus, log)
	analyticsModule := analytics.NewModule(conn, responseCache, cfg.GetDashboardCacheTTL(), val, eventBus, log)
	marketingModule := marketing.NewModule(conn, cfg, val, eventBus, phones, log)
	automationModule := automation.NewModule(conn, val, log)
	communicationsModule := communications.NewModule(conn, customerRepo, sender, val, log)
	messagingModule := messaging.NewModule(conn, users, val, eventBus, log)
	documentsModule := documents.NewModule(conn, customerRepo, objects, cfg.GetMinIOMaxFileSize(), val, eventBus, log)
	dataioModule := dataio.NewModule(conn, val, eventBus, phones, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewHealthAdapter(conn),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			customersModule,
			dealsModule,
			tasksModule,
			scoringModule,
			segmentationModule,
			analyticsModule,
			marketingModule,
			automationModule,
			communicationsModule,
			messagingModule,
			documentsModule,
			dataioModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (cache.Cache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; dashboard caching disabled")
		return cache.Nop{}, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to connect to redis; dashboard caching disabled", "error", err)
		return cache.Nop{}, nil
	}

	return cache.NewRedisCache(client, "crm:"), func() {
		_ = client.Close()
	}
}

func initScoringEnqueuer(cfg config.SchedulerConfig, log *logger.Logger) (scoringservice.Enqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background scoring disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initObjectStore(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; documents are stored in the database")
		return nil
	}

	var store *storage.MinIOStore
	if err := withRetry(ctx, log, "object storage", 5, 2*time.Second, func() error {
		s, err := storage.NewMinIOStore(ctx, cfg)
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to initialize object storage", "error", err)
		panic("failed to initialize object storage: " + err.Error())
	}
	log.Info("object storage initialized", "bucket", cfg.GetMinioBucketDocuments())
	return store
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
