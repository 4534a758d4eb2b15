// Package app wires configured stores, locks, publishers and metrics
// into the engine for the command-line binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"zone-signal-lab/internal/config"
	"zone-signal-lab/internal/dedup"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/observability"
	"zone-signal-lab/internal/outcome"
	"zone-signal-lab/internal/params"
	"zone-signal-lab/internal/publish"
	"zone-signal-lab/internal/simulation"
	"zone-signal-lab/internal/storage"
	chstore "zone-signal-lab/internal/storage/clickhouse"
	"zone-signal-lab/internal/storage/memory"
	"zone-signal-lab/internal/storage/migrations"
	pgstore "zone-signal-lab/internal/storage/postgres"
)

// App holds everything a binary needs for one invocation.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *observability.Metrics

	BarStore     storage.BarStore
	RunStore     storage.RunStore
	SummaryStore storage.SummaryStore // nil when summaries are disabled

	Locker    dedup.Locker
	Publisher publish.Publisher // nil when kafka is disabled

	closers []func() error
}

// Open connects every configured backend. On error, anything already
// opened is closed before returning.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (a *App, err error) {
	if log == nil {
		log = logger.Nop()
	}
	a = &App{
		Config:  cfg,
		Log:     log,
		Metrics: observability.DefaultMetrics,
	}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}
	if err := a.openLocker(); err != nil {
		return nil, err
	}
	if err := a.openPublisher(); err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases all connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStorage(ctx context.Context) error {
	sc := a.Config.Storage

	// 1. Runs (PostgreSQL or memory)
	switch sc.Runs {
	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, sc.PostgresDSN)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		if sc.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				return fmt.Errorf("postgres migrations: %w", err)
			}
			if len(applied) > 0 {
				a.Log.Info("applied postgres migrations", logger.Any("files", applied))
			}
		}
		a.RunStore = observeRuns(pgstore.NewRunStore(pool), a.Metrics)
	default:
		a.RunStore = memory.NewRunStore()
	}

	// 2. Bars and summaries (ClickHouse or memory)
	var conn *chstore.Conn
	if sc.Bars == config.BackendClickHouse || sc.Summaries == config.BackendClickHouse {
		var err error
		if sc.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, sc.ClickHouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, sc.ClickHouseDSN)
		}
		if err != nil {
			return err
		}
		a.closers = append(a.closers, conn.Close)
	}

	switch sc.Bars {
	case config.BackendClickHouse:
		a.BarStore = observeBars(chstore.NewBarStore(conn), a.Metrics)
	default:
		a.BarStore = memory.NewBarStore()
	}

	switch sc.Summaries {
	case config.BackendClickHouse:
		a.SummaryStore = observeSummaries(chstore.NewSummaryStore(conn), a.Metrics)
	case config.BackendNone:
	default:
		a.SummaryStore = memory.NewSummaryStore()
	}

	a.Log.Debug("storage ready",
		logger.String("runs", sc.Runs),
		logger.String("bars", sc.Bars),
		logger.String("summaries", sc.Summaries),
	)
	return nil
}

func (a *App) openLocker() error {
	rc := a.Config.Redis
	if !rc.Enabled {
		a.Locker = dedup.NewMemoryLocker()
		return nil
	}

	l, err := dedup.NewRedisLocker(
		dedup.WithRedisHost(rc.Host),
		dedup.WithRedisPort(rc.Port),
		dedup.WithRedisPassword(rc.Password),
		dedup.WithRedisDB(rc.DB),
		dedup.WithRedisPrefix(rc.Prefix),
	)
	if err != nil {
		return fmt.Errorf("redis locker: %w", err)
	}
	a.closers = append(a.closers, l.Close)
	a.Locker = l
	return nil
}

func (a *App) openPublisher() error {
	kc := a.Config.Kafka
	if !kc.Enabled {
		return nil
	}

	p, err := publish.NewKafkaPublisher(
		publish.WithBrokers(kc.Brokers),
		publish.WithTopic(kc.Topic),
		publish.WithCompression(kc.Compression),
		publish.WithRequiredAcks(kc.RequiredAcks),
		publish.WithMaxAttempts(kc.MaxAttempts),
		publish.WithWriteTimeout(kc.WriteTimeout),
	)
	if err != nil {
		return fmt.Errorf("kafka publisher: %w", err)
	}
	a.closers = append(a.closers, p.Close)
	a.Publisher = p
	return nil
}

// Normalizer builds the parameter normalizer from engine settings.
func (a *App) Normalizer() *params.Normalizer {
	return params.NewNormalizer(
		params.WithPipSizes(a.Config.Engine.PipSizes),
		params.WithDefaultMinGapPips(a.Config.Engine.DefaultMinGapPips),
		params.WithLogger(a.Log),
	)
}

// Runner builds a simulation runner over the opened backends.
func (a *App) Runner() (*simulation.Runner, error) {
	tb, err := outcome.ParseTieBreak(a.Config.Engine.TieBreak)
	if err != nil {
		return nil, err
	}
	return simulation.NewRunner(simulation.RunnerOptions{
		BarStore:     a.BarStore,
		RunStore:     a.RunStore,
		SummaryStore: a.SummaryStore,
		Locker:       a.Locker,
		Publisher:    a.Publisher,
		Normalizer:   a.Normalizer(),
		Resolver:     outcome.NewResolver(tb),
		Metrics:      a.Metrics,
		Logger:       a.Log,
		LockTTL:      a.Config.Redis.LockTTL,
	}), nil
}
