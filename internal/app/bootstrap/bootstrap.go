package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	pollengine "strawpoll/contexts/polling/poll-engine"
	pollmemory "strawpoll/contexts/polling/poll-engine/adapters/memory"
	postgresadapter "strawpoll/contexts/polling/poll-engine/adapters/postgres"
	workerapp "strawpoll/contexts/polling/poll-engine/application/workers"
	"strawpoll/contexts/polling/poll-engine/domain/entities"
	"strawpoll/internal/platform/config"
	"strawpoll/internal/platform/db"
	"strawpoll/internal/platform/httpserver"
	"strawpoll/internal/platform/messaging"
	"strawpoll/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	// relay is set for the memory backend, whose outbox only lives in this process.
	relay        *workerapp.OutboxRelay
	bus          *messaging.Kafka
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Kafka
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return BuildAPIWithConfig(cfg, processLogger(cfg, "api"))
}

func BuildAPIWithConfig(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer, err := metrics.NewPollMetrics(metricsNamespace(cfg.ServiceName), registry)
	if err != nil {
		return nil, err
	}

	limits := entities.Limits{
		MaxOptions:     cfg.PollMaxOptions,
		MaxLabelLength: cfg.PollMaxLabelLength,
	}

	app := &APIApp{
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}

	var module pollengine.Module
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		pg, repo, err := openRepository(cfg, logger)
		if err != nil {
			return nil, err
		}
		app.postgres = pg
		module = pollengine.NewModule(pollengine.Dependencies{
			Ledger:   repo,
			Reader:   repo,
			Clock:    postgresadapter.SystemClock{},
			IDGen:    postgresadapter.UUIDGenerator{},
			Limits:   limits,
			Observer: observer,
			Logger:   logger,
		})
	default:
		store := pollmemory.NewStore(nil)
		module = pollengine.NewModule(pollengine.Dependencies{
			Ledger:   store,
			Reader:   store,
			Clock:    store,
			IDGen:    store,
			Limits:   limits,
			Observer: observer,
			Logger:   logger,
		})
		module.Store = store

		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		// Publish-only for now: no consumer subscribes to poll events yet, so
		// the relay drains the outbox without any handler acting on it.
		app.bus = kafka
		app.relay = &workerapp.OutboxRelay{
			Outbox:    store,
			Publisher: kafka,
			Clock:     store,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		}
	}

	app.server = httpserver.New(module, registry, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := processLogger(cfg, "worker")
	if cfg.StoreBackend != config.StoreBackendPostgres {
		return nil, errors.New("worker requires STORE_BACKEND=postgres")
	}

	pg, repo, err := openRepository(cfg, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		bus:      kafka,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     postgresadapter.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func openRepository(cfg config.Config, logger *slog.Logger) (*db.Postgres, *postgresadapter.Repository, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN, db.Options{
		MaxOpenConns:    cfg.PostgresMaxOpenConns,
		MaxIdleConns:    cfg.PostgresMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
	}
	return pg, repo, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"in_process_relay", a.relay != nil,
		)
	}
	if a.relay != nil {
		go runRelayLoop(ctx, *a.relay, a.pollInterval, a.logger)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return closeAll(a.bus, a.postgres)
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	return runRelayLoop(ctx, w.outboxRelay, w.pollInterval, w.logger)
}

func (w *WorkerApp) Close() error {
	return closeAll(w.bus, w.postgres)
}

func closeAll(bus *messaging.Kafka, pg *db.Postgres) error {
	var errs []error
	if bus != nil {
		errs = append(errs, bus.Close())
	}
	if pg != nil {
		errs = append(errs, pg.Close())
	}
	return errors.Join(errs...)
}

// processLogger installs a JSON handler at the configured level as the
// process default and returns it tagged with the service and process.
func processLogger(cfg config.Config, process string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})
	slog.SetDefault(slog.New(handler))
	return slog.Default().With("service", cfg.ServiceName, "process", process)
}

func runRelayLoop(ctx context.Context, relay workerapp.OutboxRelay, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if logger != nil {
				logger.Error("outbox relay cycle failed",
					"event", "bootstrap_outbox_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func metricsNamespace(service string) string {
	value := strings.ToLower(strings.TrimSpace(service))
	value = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, value)
	if value == "" {
		return "strawpoll"
	}
	if value[0] >= '0' && value[0] <= '9' {
		value = "_" + value
	}
	return value
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
