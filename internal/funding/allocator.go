package funding

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

var (
	// ErrNoRankings signals a funding calculation for a period with no
	// persisted rankings. Not retried; the caller must rank first.
	ErrNoRankings = errors.New("funding: no rankings found for period")

	// ErrEconomyMissing signals a ranking row whose economy cannot be
	// resolved. Fatal for the calculation; the engine never substitutes a
	// placeholder name.
	ErrEconomyMissing = errors.New("funding: ranking references unknown economy")
)

// Performance weighting. The 0.6 new-merchant coefficient preserves the 2x
// discovery weighting used during ranking (0.3 x 2).
var (
	perfVideoWeight       = decimal.NewFromFloat(0.4)
	perfMerchantWeight    = decimal.NewFromFloat(0.3)
	perfNewMerchantWeight = decimal.NewFromFloat(0.6)

	one = decimal.NewFromInt(1)
)

// Allocation is one economy's share of a period's funding pool.
type Allocation struct {
	EconomyID        string
	EconomyName      string
	LightningAddress *string

	OverallRank    int
	VideosApproved int
	MerchantsTotal int
	MerchantsNew   int

	BaseAllocation   int64
	RankBonus        int64
	PerformanceBonus int64
	TotalFunding     int64
}

// Pool is a complete period allocation. TotalPool is the actual sum of the
// per-economy totals, which may undercut the configured nominal pools by
// floor rounding; the remainder is deliberately not redistributed.
type Pool struct {
	Period      period.Period
	Config      Config
	Allocations []Allocation
	TotalPool   int64
}

// PaymentRecord is the payment-collaborator view of one allocation.
type PaymentRecord struct {
	LightningAddress string
	AmountSats       int64
	EconomyName      string
	EconomyID        string
	Rank             int
	Note             string
}

// Allocator computes economy-level funding from persisted rankings.
type Allocator struct {
	rankings      storage.RankingStore
	economies     storage.EconomySource
	disbursements storage.DisbursementStore
	logger        zerolog.Logger
}

// New constructs an Allocator.
func New(rankings storage.RankingStore, economies storage.EconomySource, disbursements storage.DisbursementStore, logger zerolog.Logger) *Allocator {
	return &Allocator{
		rankings:      rankings,
		economies:     economies,
		disbursements: disbursements,
		logger:        logger.With().Str("component", "funding").Logger(),
	}
}

// Calculate derives the funding pool for a period from its saved rankings.
func (a *Allocator) Calculate(ctx context.Context, p period.Period, cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rankings, err := a.rankings.ListRankings(ctx, p.Month, p.Year)
	if err != nil {
		return nil, fmt.Errorf("list rankings for %s: %w", p.Month, err)
	}
	if len(rankings) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRankings, p.Month)
	}

	ids := make([]string, len(rankings))
	for i, r := range rankings {
		ids[i] = r.EconomyID
	}
	economies, err := a.economies.GetEconomies(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve economies for %s: %w", p.Month, err)
	}

	allocations, err := Allocate(rankings, economies, cfg)
	if err != nil {
		return nil, err
	}

	pool := &Pool{
		Period:      p,
		Config:      cfg,
		Allocations: allocations,
	}
	for _, alloc := range allocations {
		pool.TotalPool += alloc.TotalFunding
	}

	a.logger.Info().
		Str("period", p.Month).
		Int("economies", len(allocations)).
		Int64("total_pool", pool.TotalPool).
		Int64("nominal_pool", cfg.NominalTotal(len(allocations))).
		Msg("funding pool calculated")
	return pool, nil
}

// Allocate applies base + rank bonus + performance bonus over a ranked set.
// Degenerate denominators (zero total weight or score) contribute exactly
// zero, never a division error.
func Allocate(rankings []storage.EconomyRanking, economies map[string]storage.Economy, cfg Config) ([]Allocation, error) {
	// Harmonic rank weights: rank 1 takes the largest share.
	totalWeight := decimal.Zero
	weights := make([]decimal.Decimal, len(rankings))
	for i, r := range rankings {
		weights[i] = one.Div(decimal.NewFromInt(int64(r.OverallRank)))
		totalWeight = totalWeight.Add(weights[i])
	}

	totalPerf := decimal.Zero
	perfScores := make([]decimal.Decimal, len(rankings))
	for i, r := range rankings {
		perfScores[i] = performanceScore(r)
		totalPerf = totalPerf.Add(perfScores[i])
	}

	allocations := make([]Allocation, len(rankings))
	for i, r := range rankings {
		economy, ok := economies[r.EconomyID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEconomyMissing, r.EconomyID)
		}

		alloc := Allocation{
			EconomyID:        r.EconomyID,
			EconomyName:      economy.Name,
			LightningAddress: economy.LightningAddress,
			OverallRank:      r.OverallRank,
			VideosApproved:   r.VideosApproved,
			MerchantsTotal:   r.MerchantsTotal,
			MerchantsNew:     r.MerchantsNew,
			BaseAllocation:   cfg.BaseAmount,
		}

		if cfg.RankBonusEnabled && cfg.RankBonusPool > 0 && totalWeight.IsPositive() {
			alloc.RankBonus = share(weights[i], totalWeight, cfg.RankBonusPool)
		}
		if cfg.PerformanceBonusEnabled && cfg.PerformanceBonusPool > 0 && totalPerf.IsPositive() {
			alloc.PerformanceBonus = share(perfScores[i], totalPerf, cfg.PerformanceBonusPool)
		}

		alloc.TotalFunding = alloc.BaseAllocation + alloc.RankBonus + alloc.PerformanceBonus
		allocations[i] = alloc
	}
	return allocations, nil
}

// share floors weight/total x pool to whole sats. Sats lost to the floor
// stay unallocated rather than being redistributed.
func share(weight, total decimal.Decimal, pool int64) int64 {
	return weight.Div(total).Mul(decimal.NewFromInt(pool)).Floor().IntPart()
}

func performanceScore(r storage.EconomyRanking) decimal.Decimal {
	return perfVideoWeight.Mul(decimal.NewFromInt(int64(r.VideosApproved))).
		Add(perfMerchantWeight.Mul(decimal.NewFromInt(int64(r.MerchantsTotal)))).
		Add(perfNewMerchantWeight.Mul(decimal.NewFromInt(int64(r.MerchantsNew))))
}

// PaymentRecords filters a pool to economies with a lightning address.
func PaymentRecords(pool *Pool) []PaymentRecord {
	records := make([]PaymentRecord, 0, len(pool.Allocations))
	for _, alloc := range pool.Allocations {
		if alloc.LightningAddress == nil || *alloc.LightningAddress == "" {
			continue
		}
		records = append(records, PaymentRecord{
			LightningAddress: *alloc.LightningAddress,
			AmountSats:       alloc.TotalFunding,
			EconomyName:      alloc.EconomyName,
			EconomyID:        alloc.EconomyID,
			Rank:             alloc.OverallRank,
			Note:             fmt.Sprintf("%s circular economy funding - rank %d", pool.Period.Label(), alloc.OverallRank),
		})
	}
	return records
}

// SaveDisbursements persists one pending payout row per allocation under a
// single batch ID and writes the earned total back onto each ranking row.
// The write-back is the only ranking mutation after creation.
func (a *Allocator) SaveDisbursements(ctx context.Context, pool *Pool) (uuid.UUID, error) {
	batch := uuid.New()

	rows := make([]storage.Disbursement, len(pool.Allocations))
	for i, alloc := range pool.Allocations {
		method := storage.PaymentMethodManual
		if alloc.LightningAddress != nil && *alloc.LightningAddress != "" {
			method = storage.PaymentMethodLightning
		}
		rows[i] = storage.Disbursement{
			BatchID:          batch,
			EconomyID:        alloc.EconomyID,
			Month:            pool.Period.Month,
			Year:             pool.Period.Year,
			AmountSats:       alloc.TotalFunding,
			PaymentMethod:    method,
			LightningAddress: alloc.LightningAddress,
			Status:           storage.DisbursementPending,
		}
	}

	if err := a.disbursements.InsertDisbursements(ctx, rows); err != nil {
		return uuid.Nil, fmt.Errorf("insert disbursements for %s: %w", pool.Period.Month, err)
	}

	for _, alloc := range pool.Allocations {
		if err := a.rankings.SetFundingEarned(ctx, alloc.EconomyID, pool.Period.Month, pool.Period.Year, alloc.TotalFunding); err != nil {
			return uuid.Nil, fmt.Errorf("set funding earned for %s: %w", alloc.EconomyID, err)
		}
	}

	a.logger.Info().
		Str("period", pool.Period.Month).
		Str("batch_id", batch.String()).
		Int("disbursements", len(rows)).
		Int64("total_pool", pool.TotalPool).
		Msg("disbursements saved")
	return batch, nil
}
