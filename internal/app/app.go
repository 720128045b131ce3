package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"economy-fund/internal/config"
	"economy-fund/internal/funding"
	"economy-fund/internal/merchant"
	"economy-fund/internal/metrics"
	"economy-fund/internal/period"
	"economy-fund/internal/ranking"
	"economy-fund/internal/scheduler"
	"economy-fund/internal/service"
	"economy-fund/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newEngines(store *storage.Store) (*ranking.Engine, *funding.Allocator, *merchant.Allocator) {
	collector := metrics.NewCollector(store, a.Logger)
	engine := ranking.New(store, collector, store, a.Logger)
	allocator := funding.New(store, store, store, a.Logger)
	merchants := merchant.New(store, a.Logger)
	return engine, allocator, merchants
}

// resolvePeriod parses the --period flag, defaulting to the just-closed month.
func (a *App) resolvePeriod(value string) (period.Period, error) {
	if value == "" {
		return period.Previous(time.Now()), nil
	}
	return period.Parse(value)
}

// Run executes the long-running settlement service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		RunDay:       a.Config.Scheduler.RunDay,
		RunHour:      a.Config.Scheduler.RunHour,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	engine, allocator, merchants := a.newEngines(store)
	svc := service.New(a.Config, sched, engine, allocator, merchants, store, store, a.Logger)

	a.Logger.Info().Msg("starting settlement service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("settlement service stopped")
	return nil
}

// RankOptions configure the rank command.
type RankOptions struct {
	Period string
}

// FundOptions configure the fund command.
type FundOptions struct {
	Period  string
	CSVPath string
	DryRun  bool
}

// PayoutOptions configure the payout command.
type PayoutOptions struct {
	Period  string
	CSVPath string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Period string
}

// ExportOptions hold parameters for exporting a period's funding data.
type ExportOptions struct {
	Period  string
	CSVPath string
	PNGPath string
}
