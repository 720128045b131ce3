package merchant

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"economy-fund/internal/funding"
	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

func strPtr(s string) *string {
	return &s
}

func verifiedMerchant(id string, appearances int) storage.FeaturedMerchant {
	now := time.Now().UTC()
	return storage.FeaturedMerchant{
		ID:                id,
		Name:              "Merchant " + id,
		LightningAddress:  strPtr(id + "@ln.example"),
		AddressVerified:   true,
		AddressVerifiedAt: &now,
		VideoAppearances:  appearances,
	}
}

func unverifiedMerchant(id string) storage.FeaturedMerchant {
	return storage.FeaturedMerchant{
		ID:               id,
		Name:             "Merchant " + id,
		LightningAddress: strPtr(id + "@ln.example"),
		VideoAppearances: 1,
	}
}

func addresslessMerchant(id string) storage.FeaturedMerchant {
	return storage.FeaturedMerchant{ID: id, Name: "Merchant " + id, VideoAppearances: 1}
}

func allocation(economyID string, total int64) funding.Allocation {
	return funding.Allocation{
		EconomyID:    economyID,
		EconomyName:  "Economy " + economyID,
		OverallRank:  1,
		TotalFunding: total,
	}
}

func TestDistributeEqualSplitWithRemainder(t *testing.T) {
	merchants := []storage.FeaturedMerchant{
		verifiedMerchant("m1", 2),
		verifiedMerchant("m2", 1),
		verifiedMerchant("m3", 5),
	}

	breakdown := Distribute(allocation("eco-a", 1000000), merchants)

	if breakdown.VerifiedMerchants != 3 {
		t.Fatalf("expected 3 verified merchants, got %d", breakdown.VerifiedMerchants)
	}
	for _, payment := range breakdown.Payments {
		if payment.AmountSats != 333333 {
			t.Fatalf("every verified merchant gets the same floor amount, got %d", payment.AmountSats)
		}
		if payment.VideoAppearances < 1 {
			t.Fatalf("appearances must be >= 1 by construction: %+v", payment)
		}
	}
	if breakdown.DistributedAmount != 999999 || breakdown.UnallocatedAmount != 1 {
		t.Fatalf("remainder accounting wrong: distributed=%d unallocated=%d",
			breakdown.DistributedAmount, breakdown.UnallocatedAmount)
	}
}

func TestDistributeClassification(t *testing.T) {
	merchants := []storage.FeaturedMerchant{
		verifiedMerchant("m1", 1),
		unverifiedMerchant("m2"),
		addresslessMerchant("m3"),
		{ID: "m4", LightningAddress: strPtr(""), VideoAppearances: 1}, // empty address counts as none
	}

	breakdown := Distribute(allocation("eco-a", 900), merchants)

	if breakdown.VerifiedMerchants != 1 || breakdown.UnverifiedMerchants != 1 || breakdown.MerchantsWithoutAddresses != 2 {
		t.Fatalf("classification wrong: %+v", breakdown)
	}
	if len(breakdown.Payments) != 1 || breakdown.Payments[0].AmountSats != 900 {
		t.Fatalf("only the verified merchant is paid: %+v", breakdown.Payments)
	}
	if breakdown.DistributedAmount+breakdown.UnallocatedAmount != breakdown.TotalFunding {
		t.Fatalf("partition not exact: %+v", breakdown)
	}
}

func TestDistributeNoVerifiedMerchants(t *testing.T) {
	merchants := []storage.FeaturedMerchant{
		unverifiedMerchant("m1"),
		addresslessMerchant("m2"),
	}

	breakdown := Distribute(allocation("eco-c", 1000000), merchants)

	if len(breakdown.Payments) != 0 {
		t.Fatalf("no payments expected, got %d", len(breakdown.Payments))
	}
	if breakdown.UnallocatedAmount != 1000000 || breakdown.DistributedAmount != 0 {
		t.Fatalf("full allocation should be unallocated: %+v", breakdown)
	}
}

type fakeActivity struct {
	merchantsByEconomy map[string][]storage.FeaturedMerchant
}

func (f *fakeActivity) CountVideos(ctx context.Context, economyID string, from, to time.Time) (storage.VideoCounts, bool, error) {
	return storage.VideoCounts{}, true, nil
}

func (f *fakeActivity) FeaturedMerchants(ctx context.Context, economyID string, from, to time.Time) ([]storage.FeaturedMerchant, error) {
	return f.merchantsByEconomy[economyID], nil
}

// Worked example: three economies at 1,000,000 sats each with 3, 5, and 0
// verified merchants.
func TestCalculatePoolConservation(t *testing.T) {
	activity := &fakeActivity{merchantsByEconomy: map[string][]storage.FeaturedMerchant{
		"eco-a": {verifiedMerchant("a1", 1), verifiedMerchant("a2", 1), verifiedMerchant("a3", 2)},
		"eco-b": {verifiedMerchant("b1", 1), verifiedMerchant("b2", 1), verifiedMerchant("b3", 1), verifiedMerchant("b4", 3), verifiedMerchant("b5", 1)},
		"eco-c": {unverifiedMerchant("c1")},
	}}

	allocator := New(activity, zerolog.Nop())
	p, _ := period.Parse("2026-07")
	allocations := []funding.Allocation{
		allocation("eco-a", 1000000),
		allocation("eco-b", 1000000),
		allocation("eco-c", 1000000),
	}

	pool, err := allocator.Calculate(context.Background(), p, allocations)
	if err != nil {
		t.Fatalf("calculate failed: %v", err)
	}

	if pool.TotalPool != 3000000 {
		t.Fatalf("pool total should match input sum, got %d", pool.TotalPool)
	}
	if pool.TotalDistributed != 1999999 {
		t.Fatalf("expected 1,999,999 distributed, got %d", pool.TotalDistributed)
	}
	if pool.TotalUnallocated != 1000001 {
		t.Fatalf("expected 1,000,001 unallocated, got %d", pool.TotalUnallocated)
	}
	if pool.TotalDistributed+pool.TotalUnallocated != pool.TotalPool {
		t.Fatalf("conservation violated: %d + %d != %d",
			pool.TotalDistributed, pool.TotalUnallocated, pool.TotalPool)
	}

	perEconomy := map[string][2]int64{}
	for _, breakdown := range pool.Economies {
		perEconomy[breakdown.EconomyID] = [2]int64{breakdown.DistributedAmount, breakdown.UnallocatedAmount}
	}
	if perEconomy["eco-a"] != [2]int64{999999, 1} {
		t.Fatalf("eco-a split wrong: %v", perEconomy["eco-a"])
	}
	if perEconomy["eco-b"] != [2]int64{1000000, 0} {
		t.Fatalf("eco-b split wrong: %v", perEconomy["eco-b"])
	}
	if perEconomy["eco-c"] != [2]int64{0, 1000000} {
		t.Fatalf("eco-c split wrong: %v", perEconomy["eco-c"])
	}
}
