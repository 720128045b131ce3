package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	listActiveEconomiesSQL = `SELECT id, name, lightning_address, active, created_at
    FROM economies
    WHERE active
    ORDER BY id;`

	listEconomiesByIDSQL = `SELECT id, name, lightning_address, active, created_at
    FROM economies
    WHERE id = ANY($1);`

	countVideosSQL = `SELECT
        COUNT(*),
        COUNT(*) FILTER (WHERE status = 'approved'),
        COUNT(*) FILTER (WHERE status = 'rejected')
    FROM videos
    WHERE economy_id = $1
      AND submitted_at >= $2
      AND submitted_at < $3;`

	// One batched query per economy+window: every merchant featured in an
	// approved video, with its distinct-video appearance count. Replaces any
	// per-merchant lookup loop.
	featuredMerchantsSQL = `SELECT
        m.id,
        m.economy_id,
        m.name,
        m.local_name,
        m.payment_provider,
        m.lightning_address,
        m.address_verified,
        m.address_verified_at,
        m.first_appearance,
        COUNT(DISTINCT v.id) AS video_appearances
    FROM merchants m
    JOIN video_merchants vm ON vm.merchant_id = m.id
    JOIN videos v ON v.id = vm.video_id
    WHERE m.economy_id = $1
      AND v.status = 'approved'
      AND v.submitted_at >= $2
      AND v.submitted_at < $3
    GROUP BY
        m.id, m.economy_id, m.name, m.local_name, m.payment_provider,
        m.lightning_address, m.address_verified, m.address_verified_at,
        m.first_appearance
    ORDER BY m.id;`

	deleteRankingsSQL = `DELETE FROM economy_rankings WHERE month = $1 AND year = $2;`

	insertRankingSQL = `INSERT INTO economy_rankings (
        economy_id,
        month,
        year,
        videos_submitted,
        videos_approved,
        videos_rejected,
        approval_rate,
        merchants_total,
        merchants_new,
        merchants_returning,
        video_score,
        merchant_score,
        new_merchant_score,
        overall_score,
        rank_by_videos,
        rank_by_merchants,
        rank_by_new_merchants,
        overall_rank
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
    );`

	listRankingsSQL = `SELECT
        economy_id,
        month,
        year,
        videos_submitted,
        videos_approved,
        videos_rejected,
        approval_rate,
        merchants_total,
        merchants_new,
        merchants_returning,
        video_score,
        merchant_score,
        new_merchant_score,
        overall_score,
        rank_by_videos,
        rank_by_merchants,
        rank_by_new_merchants,
        overall_rank,
        funding_earned,
        created_at
    FROM economy_rankings
    WHERE month = $1 AND year = $2
    ORDER BY overall_rank;`

	setFundingEarnedSQL = `UPDATE economy_rankings
    SET funding_earned = $4
    WHERE economy_id = $1 AND month = $2 AND year = $3;`

	insertDisbursementSQL = `INSERT INTO disbursements (
        batch_id,
        economy_id,
        month,
        year,
        amount_sats,
        payment_method,
        lightning_address,
        status
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    );`

	countDisbursementsSQL = `SELECT COUNT(*) FROM disbursements WHERE month = $1 AND year = $2;`

	listDisbursementsSQL = `SELECT
        id,
        batch_id,
        economy_id,
        month,
        year,
        amount_sats,
        payment_method,
        lightning_address,
        status,
        created_at
    FROM disbursements
    WHERE month = $1 AND year = $2
    ORDER BY amount_sats DESC, economy_id;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// EconomySource lists registered economies.
type EconomySource interface {
	ListActiveEconomies(ctx context.Context) ([]Economy, error)
	GetEconomies(ctx context.Context, ids []string) (map[string]Economy, error)
}

// ActivitySource exposes per-economy video and merchant activity for a window.
type ActivitySource interface {
	CountVideos(ctx context.Context, economyID string, from, to time.Time) (VideoCounts, bool, error)
	FeaturedMerchants(ctx context.Context, economyID string, from, to time.Time) ([]FeaturedMerchant, error)
}

// RankingStore persists per-period ranking snapshots.
type RankingStore interface {
	ReplaceRankings(ctx context.Context, month string, year int, rankings []EconomyRanking) error
	ListRankings(ctx context.Context, month string, year int) ([]EconomyRanking, error)
	SetFundingEarned(ctx context.Context, economyID, month string, year int, sats int64) error
}

// DisbursementStore persists pending payout rows.
type DisbursementStore interface {
	InsertDisbursements(ctx context.Context, rows []Disbursement) error
	CountDisbursements(ctx context.Context, month string, year int) (int64, error)
	ListDisbursements(ctx context.Context, month string, year int) ([]Disbursement, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates Postgres access for the engine.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		// Unlock is best effort; the lock dies with the session anyway.
		_, _ = conn.Exec(ctxUnlock, advisoryUnlockSQL, key)
		conn.Release()
	}
	return unlock, true, nil
}

// ListActiveEconomies returns every active economy ordered by ID.
func (s *Store) ListActiveEconomies(ctx context.Context) ([]Economy, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveEconomiesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list active economies: %w", queryErr)
	}
	defer rows.Close()

	economies := make([]Economy, 0)
	for rows.Next() {
		var eco Economy
		if err := rows.Scan(&eco.ID, &eco.Name, &eco.LightningAddress, &eco.Active, &eco.CreatedAt); err != nil {
			return nil, err
		}
		economies = append(economies, eco)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return economies, nil
}

// GetEconomies resolves economies by ID into a map.
func (s *Store) GetEconomies(ctx context.Context, ids []string) (map[string]Economy, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listEconomiesByIDSQL, ids)
	if queryErr != nil {
		return nil, fmt.Errorf("get economies: %w", queryErr)
	}
	defer rows.Close()

	economies := make(map[string]Economy, len(ids))
	for rows.Next() {
		var eco Economy
		if err := rows.Scan(&eco.ID, &eco.Name, &eco.LightningAddress, &eco.Active, &eco.CreatedAt); err != nil {
			return nil, err
		}
		economies[eco.ID] = eco
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return economies, nil
}

// CountVideos aggregates video submissions for an economy within a window.
// The boolean mirrors sources that track explicit per-period records; the
// SQL implementation always has an answer.
func (s *Store) CountVideos(ctx context.Context, economyID string, from, to time.Time) (VideoCounts, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return VideoCounts{}, false, err
	}

	var counts VideoCounts
	if scanErr := pool.QueryRow(ctx, countVideosSQL, economyID, from, to).Scan(
		&counts.Submitted,
		&counts.Approved,
		&counts.Rejected,
	); scanErr != nil {
		return VideoCounts{}, false, fmt.Errorf("count videos: %w", scanErr)
	}
	return counts, true, nil
}

// FeaturedMerchants returns merchants featured in approved videos within a
// window, each with its distinct-video appearance count.
func (s *Store) FeaturedMerchants(ctx context.Context, economyID string, from, to time.Time) ([]FeaturedMerchant, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, featuredMerchantsSQL, economyID, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("featured merchants: %w", queryErr)
	}
	defer rows.Close()

	merchants := make([]FeaturedMerchant, 0)
	for rows.Next() {
		var m FeaturedMerchant
		if err := rows.Scan(
			&m.ID,
			&m.EconomyID,
			&m.Name,
			&m.LocalName,
			&m.PaymentProvider,
			&m.LightningAddress,
			&m.AddressVerified,
			&m.AddressVerifiedAt,
			&m.FirstAppearance,
			&m.VideoAppearances,
		); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return merchants, nil
}

// ReplaceRankings swaps out a period's ranking set in a single transaction,
// so a crash mid-replace can never leave the period partially written.
func (s *Store) ReplaceRankings(ctx context.Context, month string, year int, rankings []EconomyRanking) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace rankings: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteRankingsSQL, month, year); err != nil {
		return fmt.Errorf("delete rankings: %w", err)
	}

	for _, r := range rankings {
		if _, err := tx.Exec(ctx, insertRankingSQL,
			r.EconomyID,
			r.Month,
			r.Year,
			r.VideosSubmitted,
			r.VideosApproved,
			r.VideosRejected,
			r.ApprovalRate.String(),
			r.MerchantsTotal,
			r.MerchantsNew,
			r.MerchantsReturning,
			r.VideoScore.String(),
			r.MerchantScore.String(),
			r.NewMerchantScore.String(),
			r.OverallScore.String(),
			r.RankByVideos,
			r.RankByMerchants,
			r.RankByNewMerchants,
			r.OverallRank,
		); err != nil {
			return fmt.Errorf("insert ranking %s: %w", r.EconomyID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace rankings: %w", err)
	}
	return nil
}

// ListRankings returns a period's rankings ordered by overall rank.
func (s *Store) ListRankings(ctx context.Context, month string, year int) ([]EconomyRanking, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRankingsSQL, month, year)
	if queryErr != nil {
		return nil, fmt.Errorf("list rankings: %w", queryErr)
	}
	defer rows.Close()

	rankings := make([]EconomyRanking, 0)
	for rows.Next() {
		ranking, scanErr := scanRanking(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rankings = append(rankings, ranking)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rankings, nil
}

// SetFundingEarned writes an allocation total back onto a ranking row.
func (s *Store) SetFundingEarned(ctx context.Context, economyID, month string, year int, sats int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, setFundingEarnedSQL, economyID, month, year, sats)
	if execErr != nil {
		return fmt.Errorf("set funding earned: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// InsertDisbursements inserts pending payout rows in one transaction.
func (s *Store) InsertDisbursements(ctx context.Context, disbursements []Disbursement) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert disbursements: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, d := range disbursements {
		if _, err := tx.Exec(ctx, insertDisbursementSQL,
			d.BatchID,
			d.EconomyID,
			d.Month,
			d.Year,
			d.AmountSats,
			d.PaymentMethod,
			d.LightningAddress,
			d.Status,
		); err != nil {
			return fmt.Errorf("insert disbursement %s: %w", d.EconomyID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert disbursements: %w", err)
	}
	return nil
}

// CountDisbursements counts payout rows for a period.
func (s *Store) CountDisbursements(ctx context.Context, month string, year int) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countDisbursementsSQL, month, year).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count disbursements: %w", scanErr)
	}
	return count, nil
}

// ListDisbursements returns a period's payout rows.
func (s *Store) ListDisbursements(ctx context.Context, month string, year int) ([]Disbursement, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listDisbursementsSQL, month, year)
	if queryErr != nil {
		return nil, fmt.Errorf("list disbursements: %w", queryErr)
	}
	defer rows.Close()

	disbursements := make([]Disbursement, 0)
	for rows.Next() {
		var d Disbursement
		if err := rows.Scan(
			&d.ID,
			&d.BatchID,
			&d.EconomyID,
			&d.Month,
			&d.Year,
			&d.AmountSats,
			&d.PaymentMethod,
			&d.LightningAddress,
			&d.Status,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		disbursements = append(disbursements, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return disbursements, nil
}

func scanRanking(rows pgx.Rows) (EconomyRanking, error) {
	var (
		r               EconomyRanking
		approvalStr     string
		videoScoreStr   string
		merchScoreStr   string
		newMerchStr     string
		overallScoreStr string
	)

	if err := rows.Scan(
		&r.EconomyID,
		&r.Month,
		&r.Year,
		&r.VideosSubmitted,
		&r.VideosApproved,
		&r.VideosRejected,
		&approvalStr,
		&r.MerchantsTotal,
		&r.MerchantsNew,
		&r.MerchantsReturning,
		&videoScoreStr,
		&merchScoreStr,
		&newMerchStr,
		&overallScoreStr,
		&r.RankByVideos,
		&r.RankByMerchants,
		&r.RankByNewMerchants,
		&r.OverallRank,
		&r.FundingEarned,
		&r.CreatedAt,
	); err != nil {
		return EconomyRanking{}, err
	}

	var convErr error
	r.ApprovalRate, convErr = decimal.NewFromString(approvalStr)
	if convErr != nil {
		return EconomyRanking{}, fmt.Errorf("parse approval rate: %w", convErr)
	}
	r.VideoScore, convErr = decimal.NewFromString(videoScoreStr)
	if convErr != nil {
		return EconomyRanking{}, fmt.Errorf("parse video score: %w", convErr)
	}
	r.MerchantScore, convErr = decimal.NewFromString(merchScoreStr)
	if convErr != nil {
		return EconomyRanking{}, fmt.Errorf("parse merchant score: %w", convErr)
	}
	r.NewMerchantScore, convErr = decimal.NewFromString(newMerchStr)
	if convErr != nil {
		return EconomyRanking{}, fmt.Errorf("parse new merchant score: %w", convErr)
	}
	r.OverallScore, convErr = decimal.NewFromString(overallScoreStr)
	if convErr != nil {
		return EconomyRanking{}, fmt.Errorf("parse overall score: %w", convErr)
	}

	return r, nil
}
