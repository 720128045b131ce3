package merchant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"economy-fund/internal/funding"
	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

// Payment is one verified merchant's share of its economy's funding.
type Payment struct {
	MerchantID        string
	Name              string
	LocalName         string
	Provider          string
	LightningAddress  string
	AmountSats        int64
	VideoAppearances  int
	AddressVerified   bool
	AddressVerifiedAt *time.Time
}

// Breakdown partitions one economy's funding across its merchants. The
// partition is exact: Distributed + Unallocated == TotalFunding always.
type Breakdown struct {
	EconomyID   string
	EconomyName string
	EconomyRank int

	TotalFunding int64

	VerifiedMerchants         int
	UnverifiedMerchants       int
	MerchantsWithoutAddresses int

	Payments          []Payment
	DistributedAmount int64
	UnallocatedAmount int64
}

// Pool aggregates merchant funding across all economies of a period.
type Pool struct {
	Period           period.Period
	Economies        []Breakdown
	TotalPool        int64
	TotalDistributed int64
	TotalUnallocated int64
}

// Allocator redistributes economy allocations down to verified merchants.
type Allocator struct {
	activity storage.ActivitySource
	logger   zerolog.Logger
}

// New constructs an Allocator.
func New(activity storage.ActivitySource, logger zerolog.Logger) *Allocator {
	return &Allocator{
		activity: activity,
		logger:   logger.With().Str("component", "merchant_funding").Logger(),
	}
}

// Calculate splits each economy allocation equally among the economy's
// verified merchants for the period. Merchant candidates are everyone
// featured in at least one approved video inside the window, fetched in one
// batched query per economy. An economy with no verified merchants is a
// valid terminal state: its whole allocation lands in UnallocatedAmount.
func (a *Allocator) Calculate(ctx context.Context, p period.Period, allocations []funding.Allocation) (*Pool, error) {
	from, to := p.Window()

	pool := &Pool{
		Period:    p,
		Economies: make([]Breakdown, 0, len(allocations)),
	}

	for _, alloc := range allocations {
		merchants, err := a.activity.FeaturedMerchants(ctx, alloc.EconomyID, from, to)
		if err != nil {
			return nil, fmt.Errorf("featured merchants for %s: %w", alloc.EconomyID, err)
		}

		breakdown := Distribute(alloc, merchants)
		pool.Economies = append(pool.Economies, breakdown)
		pool.TotalPool += breakdown.TotalFunding
		pool.TotalDistributed += breakdown.DistributedAmount
		pool.TotalUnallocated += breakdown.UnallocatedAmount

		if breakdown.VerifiedMerchants == 0 {
			a.logger.Warn().
				Str("economy_id", alloc.EconomyID).
				Int64("unallocated_sats", breakdown.UnallocatedAmount).
				Msg("no verified merchants; full allocation unallocated")
		}
	}

	a.logger.Info().
		Str("period", p.Month).
		Int("economies", len(pool.Economies)).
		Int64("distributed_sats", pool.TotalDistributed).
		Int64("unallocated_sats", pool.TotalUnallocated).
		Msg("merchant funding calculated")
	return pool, nil
}

// Distribute partitions one economy's funding over its featured merchants.
// Every merchant lands in exactly one class: verified (paid), unverified
// (address present but not verified), or no-address.
func Distribute(alloc funding.Allocation, merchants []storage.FeaturedMerchant) Breakdown {
	breakdown := Breakdown{
		EconomyID:    alloc.EconomyID,
		EconomyName:  alloc.EconomyName,
		EconomyRank:  alloc.OverallRank,
		TotalFunding: alloc.TotalFunding,
	}

	verified := make([]storage.FeaturedMerchant, 0, len(merchants))
	for _, m := range merchants {
		switch {
		case m.LightningAddress == nil || *m.LightningAddress == "":
			breakdown.MerchantsWithoutAddresses++
		case !m.AddressVerified:
			breakdown.UnverifiedMerchants++
		default:
			breakdown.VerifiedMerchants++
			verified = append(verified, m)
		}
	}

	if breakdown.VerifiedMerchants == 0 {
		breakdown.UnallocatedAmount = alloc.TotalFunding
		return breakdown
	}

	perMerchant := alloc.TotalFunding / int64(breakdown.VerifiedMerchants)
	breakdown.Payments = make([]Payment, 0, len(verified))
	for _, m := range verified {
		breakdown.Payments = append(breakdown.Payments, Payment{
			MerchantID:        m.ID,
			Name:              m.Name,
			LocalName:         m.LocalName,
			Provider:          m.PaymentProvider,
			LightningAddress:  *m.LightningAddress,
			AmountSats:        perMerchant,
			VideoAppearances:  m.VideoAppearances,
			AddressVerified:   m.AddressVerified,
			AddressVerifiedAt: m.AddressVerifiedAt,
		})
		breakdown.DistributedAmount += perMerchant
	}

	// Only the floor remainder is left over here; verified==0 keeps the
	// whole allocation instead.
	breakdown.UnallocatedAmount = alloc.TotalFunding - breakdown.DistributedAmount
	return breakdown
}
