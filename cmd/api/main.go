package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agency_portal_backend/internal/automation"
	"agency_portal_backend/internal/config"
	"agency_portal_backend/internal/directory"
	"agency_portal_backend/internal/events"
	apphttp "agency_portal_backend/internal/http"
	"agency_portal_backend/internal/http/router"
	"agency_portal_backend/internal/leads"
	"agency_portal_backend/internal/leads/scoring"
	"agency_portal_backend/internal/leads/sla"
	"agency_portal_backend/internal/store"
	"agency_portal_backend/platform/logger"
	"agency_portal_backend/platform/validator"
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

	var leadStore *store.RedisStore
	if err := withRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
		st, err := store.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return err
		}
		leadStore = st
		return nil
	}); err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer leadStore.Close()
	log.Info("redis connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	defaults := leads.DefaultsFromConfig(
		scoring.Weights{
			ContactQuality:  cfg.WeightContactQuality,
			IntentClarity:   cfg.WeightIntentClarity,
			BudgetRealism:   cfg.WeightBudgetRealism,
			TimelineUrgency: cfg.WeightTimelineUrgency,
			SourceQuality:   cfg.WeightSourceQuality,
		},
		sla.Targets{
			FirstContactHours:  cfg.SLAFirstContactHours,
			QualificationHours: cfg.SLAQualificationHours,
			ConversionHours:    cfg.SLAConversionHours,
		},
		cfg.AutoArchiveDays,
	)

	dir := directory.NewRedisDirectory(leadStore.Client())
	leadsModule := leads.NewModule(leadStore, dir, eventBus, val, defaults, log)

	reportStore := automation.NewRedisReportStore(leadStore.Client())
	reportEngine := automation.NewReportEngine(reportStore, leadsModule.Service(), log)
	scheduler := automation.NewScheduler(
		leadStore,
		leadsModule.Service(),
		eventBus,
		reportEngine,
		automation.NewLogNotifier(log),
		log,
		automation.RealClock(),
		automation.Config{
			Interval:     cfg.SchedulerInterval,
			FollowUpDays: cfg.FollowUpDays,
		},
	)
	automationModule := automation.NewModule(scheduler, reportEngine, val)

	scheduler.Start(ctx)
	defer scheduler.Stop()
	log.Info("automation scheduler started", "interval", cfg.SchedulerInterval.String())

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   leadStore,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			automationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
