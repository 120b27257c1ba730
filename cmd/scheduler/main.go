package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_backend/internal/customers"
	"crm_backend/internal/domain"
	"crm_backend/internal/email"
	"crm_backend/internal/events"
	"crm_backend/internal/scheduler"
	scoringservice "crm_backend/internal/scoring/service"
	"crm_backend/internal/tasks"
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

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := db.Migrate(ctx, conn); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}

	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Wait()

	val := domain.NewValidator()
	customersModule := customers.NewModule(conn, val, eventBus, phone.NewNormalizer(cfg.GetPhoneDefaultRegion()), log)
	tasksModule := tasks.NewModule(conn, customersModule.Repository(), val, eventBus, log)
	scoringSvc := scoringservice.New(conn, eventBus, log)

	handlers := scheduler.NewHandlers(
		scoringSvc,
		tasksModule.Service(),
		email.NewSender(cfg, log),
		cfg.GetDigestRecipient(),
		eventBus,
		log,
	)

	schedule, err := scheduler.LoadSchedule(cfg)
	if err != nil {
		log.Error("failed to load schedule", "error", err)
		panic("failed to load schedule: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodic(cfg, schedule, log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, handlers, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
