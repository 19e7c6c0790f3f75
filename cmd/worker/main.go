package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outreach_backend/internal/crm"
	"outreach_backend/internal/events"
	leadrepo "outreach_backend/internal/leads/repository"
	"outreach_backend/internal/outreach"
	"outreach_backend/internal/scheduler"
	"outreach_backend/internal/sender"
	"outreach_backend/internal/sweeper"
	"outreach_backend/internal/touches"
	"outreach_backend/platform/config"
	"outreach_backend/platform/db"
	"outreach_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting outreach worker", "env", cfg.Env)

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

	crmClient := crm.NewClient(cfg, log)
	crm.NewSyncer(crmClient, log).RegisterHandlers(eventBus)

	leadStore := leadrepo.New(pool)
	touchLedger := touches.New(pool)
	guard := outreach.NewGuard(touchLedger, cfg)

	var senders []sender.Sender
	if email := sender.NewEmailSender(cfg); email != nil {
		senders = append(senders, email)
	}
	if sms := sender.NewSMSSender(cfg); sms != nil {
		senders = append(senders, sms)
	}
	if voice := sender.NewVoiceSender(cfg); voice != nil {
		senders = append(senders, voice)
	}
	if len(senders) == 0 {
		log.Warn("no channel senders configured; cycles will claim nothing")
	}

	engine := outreach.NewEngine(leadStore, touchLedger, guard, senders, eventBus, cfg, log)
	log.Info("engine initialized", "channels", fmt.Sprintf("%v", engine.EnabledChannels()))

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	dispatcher := scheduler.NewDispatcher(client, engine.EnabledChannels(), cfg, log)
	go dispatcher.Run(ctx)

	staleSweeper := sweeper.New(leadStore, eventBus, cfg, log)
	go staleSweeper.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, engine, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
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
