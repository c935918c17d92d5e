package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studora/studora/internal/app"
	planningSubscribers "github.com/studora/studora/internal/planning/application/subscribers"
	"github.com/studora/studora/internal/shared/infrastructure/eventbus"
	"github.com/studora/studora/pkg/config"
	"github.com/studora/studora/pkg/observability"
)

func main() {
	// Setup logger
	logger := observability.NewLogger(observability.DefaultLogConfig())

	logger.Info("starting studora worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Update logger settings based on config
	if cfg.IsProduction() {
		logger = observability.NewLogger(observability.ProductionLogConfig())
	} else {
		logCfg := observability.DefaultLogConfig()
		logCfg.Level = observability.LogLevelDebug
		logger = observability.NewLogger(logCfg)
	}

	// The worker needs the full PostgreSQL stack
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Drain the outbox to RabbitMQ
	if err := container.OutboxProcessor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}
	defer container.OutboxProcessor.Stop()
	logger.Info("outbox processor started",
		"poll_interval", cfg.OutboxPollInterval,
		"batch_size", cfg.OutboxBatchSize,
		"max_retries", cfg.OutboxMaxRetries,
	)

	// Consume change events and reschedule the affected students
	subscriber := planningSubscribers.NewRescheduleSubscriber(container.RescheduleHandler, logger)
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, eventbus.NewConsumerRegistry(logger))
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, change events will not trigger reschedules", "error", err)
		} else {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
	} else {
		consumer.RegisterConsumer(subscriber)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("event consumer stopped", "error", err)
				cancel()
			}
		}()
		logger.Info("event consumer started", "event_types", subscriber.EventTypes())
	}

	// Periodically prune published outbox rows
	cleanupTicker := time.NewTicker(cfg.OutboxCleanupInterval)
	defer cleanupTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cleanupTicker.C:
				deleted, err := container.OutboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
				if err != nil {
					logger.Error("outbox cleanup failed", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
				}
			}
		}
	}()

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg, container, logger)
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")
}

// startHealthServer exposes liveness and readiness endpoints for the worker.
func startHealthServer(ctx context.Context, cfg *config.Config, container *app.Container, logger *slog.Logger) {
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(container.DB.Ping))
	health.Register("solver", func(checkCtx context.Context) observability.HealthCheckResult {
		state := container.SolverRunner.State()
		status := observability.HealthStatusHealthy
		if state == "open" {
			status = observability.HealthStatusDegraded
		}
		return observability.HealthCheckResult{
			Status:  status,
			Message: "circuit " + state,
		}
	})
	health.Register("outbox", func(checkCtx context.Context) observability.HealthCheckResult {
		stats := container.OutboxProcessor.GetStats()
		if !stats.IsRunning {
			return observability.HealthCheckResult{
				Status:  observability.HealthStatusUnhealthy,
				Message: "outbox processor not running",
			}
		}
		return observability.HealthCheckResult{
			Status:  observability.HealthStatusHealthy,
			Message: "outbox processor running",
			Details: map[string]any{
				"published":   stats.PublishedCount,
				"failed":      stats.FailedCount,
				"dead":        stats.DeadCount,
				"lag_seconds": stats.LagSeconds,
			},
		}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := container.OutboxProcessor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancelCheck := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancelCheck()
		overall := health.GetOverallHealth(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if overall.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(overall)
	})

	healthSrv := &http.Server{
		Addr:              cfg.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
