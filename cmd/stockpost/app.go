package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/warehouse/internal/application/posting"
	"github.com/erp/warehouse/internal/infrastructure/cache"
	"github.com/erp/warehouse/internal/infrastructure/config"
	"github.com/erp/warehouse/internal/infrastructure/event"
	"github.com/erp/warehouse/internal/infrastructure/persistence"
	"github.com/erp/warehouse/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// app holds the wired posting services of one CLI invocation
type app struct {
	posting   *posting.PostingService
	money     *posting.MoneyPostingService
	bus       *event.InMemoryEventBus
	documents *persistence.GormDocumentRepository
	requests  *persistence.GormCashApprovalRequestRepository

	closers []func(context.Context) error
	logger  *zap.Logger
}

// newApp wires telemetry, the database, the company locker and the posting services
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *app, err error) {
	a := &app{logger: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("log export: %w", err)
	}
	a.closers = append(a.closers, lp.Shutdown)
	log = lp.Bridge(log)
	a.logger = log

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	a.closers = append(a.closers, mp.Shutdown)

	metrics, err := telemetry.NewPostingMetrics(mp.Meter(cfg.Telemetry.ServiceName))
	if err != nil {
		return nil, fmt.Errorf("posting metrics: %w", err)
	}

	dbOpts := []persistence.Option{persistence.WithLogger(log)}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		dbOpts = append(dbOpts, persistence.WithTracing(telemetry.NewDBTracingPlugin(tracingCfg, log)))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	factory := cache.NewLockerFactory(cfg.Redis, cache.LockOptionsFromConfig(cfg.Warehouse),
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	locker, closeLocker, err := factory.CreateLocker(ctx)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return closeLocker() })

	a.bus = event.NewInMemoryEventBus(log)
	journal := event.NewJournalHandler(event.NewWarehouseEventSerializer(), log)
	a.bus.Subscribe(journal, journal.EventTypes()...)
	if err := a.bus.Start(ctx); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.bus.Stop)

	a.documents = persistence.NewGormDocumentRepository(db.DB)
	a.requests = persistence.NewGormCashApprovalRequestRepository(db.DB)

	scope := persistence.NewGormTransactionScope(db.DB)
	a.money = posting.NewMoneyPostingService(scope, log)
	a.posting = posting.NewPostingService(scope,
		posting.NewStockLedger(posting.LedgerOptions{AllowNegative: cfg.Warehouse.AllowNegativeStock}, log),
		posting.NewAgentStockLedger(log),
		a.money,
		posting.NewDestinationResolver(locker, log),
		log,
	)
	a.posting.SetEventPublisher(a.bus)
	a.money.SetEventPublisher(a.bus)
	a.posting.SetMetrics(metrics)
	a.money.SetMetrics(metrics)

	return a, nil
}

// close shuts components down in reverse order of construction
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown incomplete", zap.Error(err))
		return err
	}
	return nil
}
