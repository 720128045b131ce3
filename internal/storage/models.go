package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Economy is a registered circular-economy organization.
type Economy struct {
	ID               string
	Name             string
	LightningAddress *string
	Active           bool
	CreatedAt        time.Time
}

// VideoCounts aggregates video submissions for one economy inside a period window.
type VideoCounts struct {
	Submitted int
	Approved  int
	Rejected  int
}

// FeaturedMerchant is a merchant that appeared in at least one approved video
// within a period window, together with its distinct appearance count.
type FeaturedMerchant struct {
	ID                string
	EconomyID         string
	Name              string
	LocalName         string
	PaymentProvider   string
	LightningAddress  *string
	AddressVerified   bool
	AddressVerifiedAt *time.Time
	FirstAppearance   time.Time
	VideoAppearances  int
}

// EconomyRanking is the persisted per-period ranking snapshot for one economy.
// Keyed by (economy_id, month, year); a period's set is always replaced whole.
type EconomyRanking struct {
	EconomyID string
	Month     string
	Year      int

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

	RankByVideos       int
	RankByMerchants    int
	RankByNewMerchants int
	OverallRank        int

	// FundingEarned is written back once disbursements are saved for the
	// period; nil until then.
	FundingEarned *int64

	CreatedAt time.Time
}

// Disbursement is one pending payout row per economy allocation.
type Disbursement struct {
	ID               int64
	BatchID          uuid.UUID
	EconomyID        string
	Month            string
	Year             int
	AmountSats       int64
	PaymentMethod    string
	LightningAddress *string
	Status           string
	CreatedAt        time.Time
}

// Disbursement statuses. Only "pending" is written by this engine; the
// payment collaborator owns the later transitions.
const (
	DisbursementPending    = "pending"
	DisbursementProcessing = "processing"
	DisbursementCompleted  = "completed"
	DisbursementFailed     = "failed"
)

const (
	PaymentMethodLightning = "lightning"
	PaymentMethodManual    = "manual"
)
