package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"economy-fund/internal/config"
	"economy-fund/internal/funding"
	"economy-fund/internal/merchant"
	"economy-fund/internal/metrics"
	"economy-fund/internal/period"
	"economy-fund/internal/ranking"
	"economy-fund/internal/storage"
)

func strPtr(s string) *string {
	return &s
}

// fakeStore implements every storage interface the settlement path touches.
type fakeStore struct {
	economies     []storage.Economy
	counts        map[string]storage.VideoCounts
	merchants     map[string][]storage.FeaturedMerchant
	rankings      []storage.EconomyRanking
	disbursements []storage.Disbursement
	fundingEarned map[string]int64
	replaceCalls  int
}

func (f *fakeStore) ListActiveEconomies(ctx context.Context) ([]storage.Economy, error) {
	return f.economies, nil
}

func (f *fakeStore) GetEconomies(ctx context.Context, ids []string) (map[string]storage.Economy, error) {
	out := make(map[string]storage.Economy)
	for _, eco := range f.economies {
		out[eco.ID] = eco
	}
	return out, nil
}

func (f *fakeStore) CountVideos(ctx context.Context, economyID string, from, to time.Time) (storage.VideoCounts, bool, error) {
	return f.counts[economyID], true, nil
}

func (f *fakeStore) FeaturedMerchants(ctx context.Context, economyID string, from, to time.Time) ([]storage.FeaturedMerchant, error) {
	return f.merchants[economyID], nil
}

func (f *fakeStore) ReplaceRankings(ctx context.Context, month string, year int, rankings []storage.EconomyRanking) error {
	f.replaceCalls++
	f.rankings = rankings
	return nil
}

func (f *fakeStore) ListRankings(ctx context.Context, month string, year int) ([]storage.EconomyRanking, error) {
	return f.rankings, nil
}

func (f *fakeStore) SetFundingEarned(ctx context.Context, economyID, month string, year int, sats int64) error {
	if f.fundingEarned == nil {
		f.fundingEarned = make(map[string]int64)
	}
	f.fundingEarned[economyID] = sats
	return nil
}

func (f *fakeStore) InsertDisbursements(ctx context.Context, rows []storage.Disbursement) error {
	f.disbursements = append(f.disbursements, rows...)
	return nil
}

func (f *fakeStore) CountDisbursements(ctx context.Context, month string, year int) (int64, error) {
	return int64(len(f.disbursements)), nil
}

func (f *fakeStore) ListDisbursements(ctx context.Context, month string, year int) ([]storage.Disbursement, error) {
	return f.disbursements, nil
}

func newTestService(store *fakeStore) *Service {
	logger := zerolog.Nop()
	cfg := &config.Config{
		Funding: funding.Config{
			BaseAmount:              10000,
			RankBonusEnabled:        true,
			RankBonusPool:           300000,
			PerformanceBonusEnabled: true,
			PerformanceBonusPool:    300000,
		},
	}

	collector := metrics.NewCollector(store, logger)
	engine := ranking.New(store, collector, store, logger)
	allocator := funding.New(store, store, store, logger)
	merchants := merchant.New(store, logger)

	return New(cfg, nil, engine, allocator, merchants, store, nil, logger)
}

func seededStore() *fakeStore {
	now := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	return &fakeStore{
		economies: []storage.Economy{
			{ID: "eco-a", Name: "Economy A", LightningAddress: strPtr("a@ln.example"), Active: true},
			{ID: "eco-b", Name: "Economy B", Active: true},
		},
		counts: map[string]storage.VideoCounts{
			"eco-a": {Submitted: 4, Approved: 4},
			"eco-b": {Submitted: 2, Approved: 1, Rejected: 1},
		},
		merchants: map[string][]storage.FeaturedMerchant{
			"eco-a": {
				{ID: "m1", Name: "M1", LightningAddress: strPtr("m1@ln.example"), AddressVerified: true, FirstAppearance: now, VideoAppearances: 2},
				{ID: "m2", Name: "M2", LightningAddress: strPtr("m2@ln.example"), AddressVerified: true, FirstAppearance: now, VideoAppearances: 1},
			},
			"eco-b": {
				{ID: "m3", Name: "M3", FirstAppearance: now, VideoAppearances: 1},
			},
		},
	}
}

func TestProcessPeriodSettles(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	p, _ := period.Parse("2026-07")

	if err := svc.ProcessPeriod(context.Background(), p); err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	if len(store.rankings) != 2 {
		t.Fatalf("both economies should rank, got %d", len(store.rankings))
	}
	if len(store.disbursements) != 2 {
		t.Fatalf("one disbursement per economy expected, got %d", len(store.disbursements))
	}
	for _, d := range store.disbursements {
		if d.Status != storage.DisbursementPending {
			t.Fatalf("disbursements must be pending: %+v", d)
		}
	}
	if len(store.fundingEarned) != 2 {
		t.Fatalf("funding earned should be written back per economy: %+v", store.fundingEarned)
	}
}

func TestProcessPeriodSkipsFundingWhenDisbursed(t *testing.T) {
	store := seededStore()
	svc := newTestService(store)
	p, _ := period.Parse("2026-07")

	if err := svc.ProcessPeriod(context.Background(), p); err != nil {
		t.Fatalf("first settlement failed: %v", err)
	}
	before := len(store.disbursements)

	if err := svc.ProcessPeriod(context.Background(), p); err != nil {
		t.Fatalf("second settlement failed: %v", err)
	}

	if len(store.disbursements) != before {
		t.Fatalf("re-running a settled period must not add disbursements: %d -> %d", before, len(store.disbursements))
	}
	if store.replaceCalls != 2 {
		t.Fatalf("rankings are still replaced on re-run, got %d calls", store.replaceCalls)
	}
}
