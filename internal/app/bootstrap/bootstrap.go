package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	exchangegateway "agora/contexts/governance-core/exchange-gateway"
	exchangepostgres "agora/contexts/governance-core/exchange-gateway/adapters/postgres"
	exchangeworkers "agora/contexts/governance-core/exchange-gateway/application/workers"
	governanceengine "agora/contexts/governance-core/governance-engine"
	governancepostgres "agora/contexts/governance-core/governance-engine/adapters/postgres"
	"agora/contexts/governance-core/governance-engine/application/workers"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/ledger"
	"agora/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres        *db.Postgres
	governanceRelay workers.OutboxRelay
	exchangeRelay   exchangeworkers.OutboxRelay
	pollInterval    time.Duration
	enabled         bool
	logger          *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if strings.TrimSpace(cfg.AdminAccount) == "" {
		return nil, errors.New("GOV_ADMIN_ACCOUNT is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	balances := ledger.NewPostgres(pg.DB, logger)
	repo := governancepostgres.NewRepository(pg.DB, logger)
	governanceModule := governanceengine.NewModule(governanceengine.Dependencies{
		Proposals:    repo,
		Balances:     balances,
		Outbox:       repo,
		Clock:        repo,
		IDGen:        repo,
		AdminAccount: cfg.AdminAccount,
		Logger:       logger,
	})

	exchangeRepo := exchangepostgres.NewRepository(pg.DB, logger)
	exchangeModule := exchangegateway.NewModule(exchangegateway.Dependencies{
		Ledger:         balances,
		Receipts:       exchangeRepo,
		Outbox:         exchangeRepo,
		Clock:          exchangeRepo,
		IDGen:          exchangeRepo,
		Rate:           cfg.ExchangeRate,
		ReserveAccount: cfg.ReserveAccount,
		DisableEvents:  !cfg.EnablePurchaseEvents,
		Logger:         logger,
	})

	server := httpserver.New(
		governanceModule,
		exchangeModule,
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pg.Ping(ctx)
		},
		logger,
		":"+cfg.HTTPPort,
	)

	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func (a *APIApp) Run() error {
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.postgres.Close()
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := governancepostgres.NewRepository(pg.DB, logger)
	governanceRelay := workers.OutboxRelay{
		Outbox:    repo,
		Publisher: bus,
		Clock:     repo,
		BatchSize: 100,
		Topic:     "governance.events",
		Logger:    logger,
	}

	exchangeRepo := exchangepostgres.NewRepository(pg.DB, logger)
	exchangeRelay := exchangeworkers.OutboxRelay{
		Outbox:    exchangeRepo,
		Publisher: bus,
		Clock:     exchangeRepo,
		BatchSize: 100,
		Topic:     "exchange.events",
		Logger:    logger,
	}

	return &WorkerApp{
		postgres:        pg,
		governanceRelay: governanceRelay,
		exchangeRelay:   exchangeRelay,
		pollInterval:    5 * time.Second,
		enabled:         cfg.EnableOutboxRelay,
		logger:          logger,
	}, nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if !w.enabled {
		w.logger.Info("outbox relay disabled; worker idle",
			"event", "worker_relay_disabled",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.governanceRelay.RunOnce(ctx); err != nil {
				w.logger.Error("governance relay cycle failed",
					"event", "worker_governance_relay_cycle_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
			if err := w.exchangeRelay.RunOnce(ctx); err != nil {
				w.logger.Error("exchange relay cycle failed",
					"event", "worker_exchange_relay_cycle_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
	}
}

func (w *WorkerApp) Close() error {
	return w.postgres.Close()
}
