package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"economy-fund/internal/config"
	"economy-fund/internal/funding"
	"economy-fund/internal/merchant"
	"economy-fund/internal/period"
	"economy-fund/internal/ranking"
	"economy-fund/internal/scheduler"
	"economy-fund/internal/storage"
)

// Service orchestrates the monthly settlement: rank, persist, allocate,
// disburse. Used by the `run` service mode; the CLI commands drive the same
// pieces one step at a time.
type Service struct {
	scheduler     *scheduler.Scheduler
	engine        *ranking.Engine
	allocator     *funding.Allocator
	merchants     *merchant.Allocator
	disbursements storage.DisbursementStore
	logger        zerolog.Logger

	fundingCfg funding.Config
	locker     storage.AdvisoryLocker
	lockKey    int64
}

// New constructs the settlement service.
func New(cfg *config.Config, sched *scheduler.Scheduler, engine *ranking.Engine, allocator *funding.Allocator, merchants *merchant.Allocator, disbursements storage.DisbursementStore, locker storage.AdvisoryLocker, logger zerolog.Logger) *Service {
	return &Service{
		scheduler:     sched,
		engine:        engine,
		allocator:     allocator,
		merchants:     merchants,
		disbursements: disbursements,
		logger:        logger.With().Str("component", "service").Logger(),
		fundingCfg:    cfg.Funding,
		locker:        locker,
		lockKey:       cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the monthly settlement loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.ProcessPeriod)
}

// ProcessPeriod settles one period end to end, guarded by an advisory lock
// so concurrent replicas cannot double-run the same month.
func (s *Service) ProcessPeriod(ctx context.Context, p period.Period) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Str("period", p.Month).Msg("skip period because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	return s.settle(ctx, p)
}

func (s *Service) settle(ctx context.Context, p period.Period) error {
	rankings, err := s.engine.RankAll(ctx, p)
	if err != nil {
		return fmt.Errorf("rank %s: %w", p.Month, err)
	}
	if err := s.engine.Save(ctx, p, rankings); err != nil {
		return err
	}
	if len(rankings) == 0 {
		s.logger.Warn().Str("period", p.Month).Msg("no economies ranked; skipping funding")
		return nil
	}

	existing, err := s.disbursements.CountDisbursements(ctx, p.Month, p.Year)
	if err != nil {
		return fmt.Errorf("count disbursements for %s: %w", p.Month, err)
	}
	if existing > 0 {
		s.logger.Info().Str("period", p.Month).Int64("rows", existing).Msg("disbursements already exist; skipping funding")
		return nil
	}

	pool, err := s.allocator.Calculate(ctx, p, s.fundingCfg)
	if err != nil {
		return err
	}

	batch, err := s.allocator.SaveDisbursements(ctx, pool)
	if err != nil {
		return err
	}

	merchantPool, err := s.merchants.Calculate(ctx, p, pool.Allocations)
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("period", p.Month).
		Str("batch_id", batch.String()).
		Int64("economy_pool_sats", pool.TotalPool).
		Int64("merchant_distributed_sats", merchantPool.TotalDistributed).
		Int64("merchant_unallocated_sats", merchantPool.TotalUnallocated).
		Msg("period settled")
	return nil
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
