package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

// Score weighting. New-merchant discovery counts double before the overall
// blend is applied.
var (
	videoWeight       = decimal.NewFromFloat(0.4)
	merchantWeight    = decimal.NewFromFloat(0.3)
	newMerchantWeight = decimal.NewFromFloat(0.3)

	one     = decimal.NewFromInt(1)
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// Metrics holds one economy's raw counts and derived scores for a period.
// Recomputed wholesale on every run, never patched.
type Metrics struct {
	EconomyID string

	VideosSubmitted int
	VideosApproved  int
	VideosRejected  int
	ApprovalRate    decimal.Decimal

	MerchantsTotal     int
	MerchantsNew       int
	MerchantsReturning int

	VideoScore       decimal.Decimal
	MerchantScore    decimal.Decimal
	NewMerchantScore decimal.Decimal
	OverallScore     decimal.Decimal
}

// Collector derives per-economy metrics from the activity source.
type Collector struct {
	activity storage.ActivitySource
	logger   zerolog.Logger
}

// NewCollector constructs a Collector.
func NewCollector(activity storage.ActivitySource, logger zerolog.Logger) *Collector {
	return &Collector{
		activity: activity,
		logger:   logger.With().Str("component", "metrics").Logger(),
	}
}

// Collect computes metrics for one economy over the period's calendar window.
// The boolean is false when the activity source has no record for the
// economy; that is a silent exclusion, never an error.
func (c *Collector) Collect(ctx context.Context, economyID string, p period.Period) (Metrics, bool, error) {
	from, to := p.Window()

	counts, found, err := c.activity.CountVideos(ctx, economyID, from, to)
	if err != nil {
		return Metrics{}, false, fmt.Errorf("count videos for %s: %w", economyID, err)
	}
	if !found {
		c.logger.Debug().Str("economy_id", economyID).Str("period", p.Month).Msg("no activity record; excluding economy")
		return Metrics{}, false, nil
	}

	merchants, err := c.activity.FeaturedMerchants(ctx, economyID, from, to)
	if err != nil {
		return Metrics{}, false, fmt.Errorf("featured merchants for %s: %w", economyID, err)
	}

	return Compute(economyID, counts, merchants, from, to), true, nil
}

// Compute derives scores from raw activity. A merchant is "new" when its
// first-ever appearance falls inside [from, to).
func Compute(economyID string, counts storage.VideoCounts, merchants []storage.FeaturedMerchant, from, to time.Time) Metrics {
	m := Metrics{
		EconomyID:       economyID,
		VideosSubmitted: counts.Submitted,
		VideosApproved:  counts.Approved,
		VideosRejected:  counts.Rejected,
		MerchantsTotal:  len(merchants),
		ApprovalRate:    decimal.Zero,
	}

	for _, merchant := range merchants {
		first := merchant.FirstAppearance.UTC()
		if !first.Before(from) && first.Before(to) {
			m.MerchantsNew++
		} else {
			m.MerchantsReturning++
		}
	}

	if m.VideosSubmitted > 0 {
		m.ApprovalRate = decimal.NewFromInt(int64(m.VideosApproved)).
			Div(decimal.NewFromInt(int64(m.VideosSubmitted))).
			Mul(hundred)
	}

	m.VideoScore = decimal.NewFromInt(int64(m.VideosApproved)).
		Mul(one.Add(m.ApprovalRate.Div(hundred)))
	m.MerchantScore = decimal.NewFromInt(int64(m.MerchantsTotal))
	m.NewMerchantScore = decimal.NewFromInt(int64(m.MerchantsNew)).Mul(two)
	m.OverallScore = videoWeight.Mul(m.VideoScore).
		Add(merchantWeight.Mul(m.MerchantScore)).
		Add(newMerchantWeight.Mul(m.NewMerchantScore))

	return m
}
