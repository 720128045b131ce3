package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"economy-fund/internal/metrics"
	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

// Engine turns per-economy metrics into a period's ranking snapshot.
type Engine struct {
	economies storage.EconomySource
	collector *metrics.Collector
	store     storage.RankingStore
	logger    zerolog.Logger
}

// New constructs the rank engine.
func New(economies storage.EconomySource, collector *metrics.Collector, store storage.RankingStore, logger zerolog.Logger) *Engine {
	return &Engine{
		economies: economies,
		collector: collector,
		store:     store,
		logger:    logger.With().Str("component", "ranking").Logger(),
	}
}

// RankAll computes metrics for every active economy independently and derives
// the four rank orderings. Economies without an activity record are skipped;
// economies with zero activity still rank, last.
func (e *Engine) RankAll(ctx context.Context, p period.Period) ([]storage.EconomyRanking, error) {
	economies, err := e.economies.ListActiveEconomies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active economies: %w", err)
	}

	collected := make([]metrics.Metrics, 0, len(economies))
	for _, economy := range economies {
		m, found, err := e.collector.Collect(ctx, economy.ID, p)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		collected = append(collected, m)
	}

	rankings := Rank(p, collected)
	e.logger.Info().
		Str("period", p.Month).
		Int("economies", len(economies)).
		Int("ranked", len(rankings)).
		Msg("rankings computed")
	return rankings, nil
}

// Save replaces the period's persisted ranking set whole.
func (e *Engine) Save(ctx context.Context, p period.Period, rankings []storage.EconomyRanking) error {
	if err := e.store.ReplaceRankings(ctx, p.Month, p.Year, rankings); err != nil {
		return fmt.Errorf("replace rankings for %s: %w", p.Month, err)
	}
	e.logger.Info().Str("period", p.Month).Int("rows", len(rankings)).Msg("rankings saved")
	return nil
}

// Rank derives the four 1-based orderings over a metrics set. Each rank
// column is a permutation of 1..N. Ties break by economy ID ascending, so
// recomputation over unchanged data is order-independent.
func Rank(p period.Period, collected []metrics.Metrics) []storage.EconomyRanking {
	rankings := make([]storage.EconomyRanking, len(collected))
	for i, m := range collected {
		rankings[i] = storage.EconomyRanking{
			EconomyID:          m.EconomyID,
			Month:              p.Month,
			Year:               p.Year,
			VideosSubmitted:    m.VideosSubmitted,
			VideosApproved:     m.VideosApproved,
			VideosRejected:     m.VideosRejected,
			ApprovalRate:       m.ApprovalRate,
			MerchantsTotal:     m.MerchantsTotal,
			MerchantsNew:       m.MerchantsNew,
			MerchantsReturning: m.MerchantsReturning,
			VideoScore:         m.VideoScore,
			MerchantScore:      m.MerchantScore,
			NewMerchantScore:   m.NewMerchantScore,
			OverallScore:       m.OverallScore,
		}
	}

	assignRanks(rankings, func(r *storage.EconomyRanking) int64 {
		return int64(r.VideosApproved)
	}, func(r *storage.EconomyRanking, rank int) {
		r.RankByVideos = rank
	})
	assignRanks(rankings, func(r *storage.EconomyRanking) int64 {
		return int64(r.MerchantsTotal)
	}, func(r *storage.EconomyRanking, rank int) {
		r.RankByMerchants = rank
	})
	assignRanks(rankings, func(r *storage.EconomyRanking) int64 {
		return int64(r.MerchantsNew)
	}, func(r *storage.EconomyRanking, rank int) {
		r.RankByNewMerchants = rank
	})
	assignOverallRanks(rankings)

	sort.Slice(rankings, func(i, j int) bool {
		return rankings[i].OverallRank < rankings[j].OverallRank
	})
	return rankings
}

func assignRanks(rankings []storage.EconomyRanking, value func(*storage.EconomyRanking) int64, set func(*storage.EconomyRanking, int)) {
	order := sortedIndexes(rankings, func(i, j int) bool {
		vi, vj := value(&rankings[i]), value(&rankings[j])
		if vi != vj {
			return vi > vj
		}
		return rankings[i].EconomyID < rankings[j].EconomyID
	})
	for pos, idx := range order {
		set(&rankings[idx], pos+1)
	}
}

func assignOverallRanks(rankings []storage.EconomyRanking) {
	order := sortedIndexes(rankings, func(i, j int) bool {
		cmp := rankings[i].OverallScore.Cmp(rankings[j].OverallScore)
		if cmp != 0 {
			return cmp > 0
		}
		return rankings[i].EconomyID < rankings[j].EconomyID
	})
	for pos, idx := range order {
		rankings[idx].OverallRank = pos + 1
	}
}

func sortedIndexes(rankings []storage.EconomyRanking, less func(i, j int) bool) []int {
	order := make([]int, len(rankings))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return less(order[a], order[b])
	})
	return order
}
