package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	automationservice "ticketops/contexts/event-ticketing/automation-service"
	fcmadapter "ticketops/contexts/event-ticketing/automation-service/adapters/fcm"
	"ticketops/contexts/event-ticketing/automation-service/adapters/memory"
	postgresadapter "ticketops/contexts/event-ticketing/automation-service/adapters/postgres"
	"ticketops/contexts/event-ticketing/automation-service/application/workers"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/platform/config"
	"ticketops/internal/platform/db"
	"ticketops/internal/platform/httpserver"
	"ticketops/internal/platform/messaging"
	"ticketops/internal/platform/metrics"
	"ticketops/internal/platform/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	module       automationservice.Module
	expiryJob    scheduler.Daily
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context, cfg config.Config) (*APIApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	module, pg, err := buildModule(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(module, prometheus.DefaultGatherer, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context, cfg config.Config) (*WorkerApp, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")

	module, pg, err := buildModule(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		module:   module,
		expiryJob: scheduler.Daily{
			Name:     "ticket-expiry",
			Hour:     cfg.ExpiryScheduleHour,
			Minute:   cfg.ExpiryScheduleMinute,
			Location: cfg.ExpiryScheduleLocation,
			Logger:   logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

// buildModule selects the store and push adapters named by cfg. The returned
// Postgres handle is nil for the memory store.
func buildModule(ctx context.Context, cfg config.Config, logger *slog.Logger) (automationservice.Module, *db.Postgres, error) {
	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return automationservice.Module{}, nil, err
	}
	logger.Info("event bus ready",
		"event", "bootstrap_event_bus_ready",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"brokers", strings.Join(bus.Brokers(), ","),
		"topic", cfg.OrderUpdatesTopic,
	)

	automationMetrics, err := metrics.NewAutomation(prometheus.DefaultRegisterer, metrics.Config{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return automationservice.Module{}, nil, err
	}

	options := automationservice.Options{
		OrderUpdatesTopic:        cfg.OrderUpdatesTopic,
		OrderNotifyConsumerGroup: cfg.OrderNotifyConsumerGroup,
		DisableNotifyDedup:       !cfg.EnableOrderNotifyDedup,
		ExpiryScanMode:           workers.ScanMode(cfg.ExpiryScanMode),
		ExpiryCandidateWindow:    cfg.ExpiryCandidateWindow,
		ExpiryBatchSize:          cfg.ExpiryBatchSize,
		ExpiryConcurrency:        cfg.ExpiryConcurrency,
		OutboxBatchSize:          cfg.OutboxBatchSize,
	}

	gateway, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return automationservice.Module{}, nil, err
	}

	if cfg.StoreBackend == config.StoreBackendMemory {
		logger.Warn("using in-memory record store",
			"event", "bootstrap_memory_store_selected",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store := memory.NewStore(memory.Seed{}, logger)
		module := automationservice.NewModule(automationservice.Dependencies{
			Orders:     store,
			Events:     store,
			Organizers: store,
			Tickets:    store,
			Ledger:     store,
			Outbox:     store,
			Gateway:    gateway,
			Bus:        bus,
			Clock:      store,
			IDGen:      store,
			Metrics:    automationMetrics,
			Options:    options,
			Logger:     logger,
		})
		module.Store = store
		return module, nil, nil
	}

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return automationservice.Module{}, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return automationservice.Module{}, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := automationservice.NewModule(automationservice.Dependencies{
		Orders:     repo,
		Events:     repo,
		Organizers: repo,
		Tickets:    repo,
		Ledger:     repo,
		Outbox:     repo,
		Gateway:    gateway,
		Bus:        bus,
		Clock:      postgresadapter.SystemClock{},
		IDGen:      postgresadapter.UUIDGenerator{},
		Metrics:    automationMetrics,
		Options:    options,
		Logger:     logger,
	})
	return module, pg, nil
}

func buildGateway(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.NotificationGateway, error) {
	if cfg.PushBackend == config.PushBackendMemory {
		return memory.NewGateway(logger), nil
	}
	return fcmadapter.NewGateway(ctx, fcmadapter.Config{
		ProjectID:       cfg.FCMProjectID,
		CredentialsFile: cfg.FCMCredentialsFile,
	}, logger)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run starts the order notifier consumer, the daily expiry schedule and the
// outbox relay loop, and blocks until ctx is cancelled.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.module.Notifier.Start(ctx); err != nil {
		return err
	}

	pollInterval := w.pollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", pollInterval.String(),
		"expiry_schedule", w.expiryJob.NextAfter(time.Now()).Format(time.RFC3339),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		w.expiryJob.Run(groupCtx, func(jobCtx context.Context) error {
			_, err := w.module.Reconciler.RunOnce(jobCtx)
			return err
		})
		return nil
	})
	group.Go(func() error {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			// Relay failures are logged by the relay and retried next tick.
			_, _ = w.module.Relay.RunOnce(groupCtx)
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	return group.Wait()
}

// RunExpiryOnce runs a single reconciliation pass outside the daily schedule.
func (w *WorkerApp) RunExpiryOnce(ctx context.Context) (workers.ExpirySummary, error) {
	return w.module.Reconciler.RunOnce(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
