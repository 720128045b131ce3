package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"economy-fund/internal/funding"
	"economy-fund/internal/merchant"
	"economy-fund/internal/period"
	"economy-fund/internal/storage"
)

// Payout redistributes a period's saved disbursements down to verified
// merchants. Economy amounts come from the disbursement rows rather than a
// fresh allocation, so the economy-level calculation is never repeated once
// disbursed.
func (a *App) Payout(ctx context.Context, opts PayoutOptions) error {
	p, err := a.resolvePeriod(opts.Period)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	allocations, err := allocationsFromDisbursements(ctx, store, p)
	if err != nil {
		return err
	}

	_, _, merchants := a.newEngines(store)

	pool, err := merchants.Calculate(ctx, p, allocations)
	if err != nil {
		return err
	}

	printMerchantPool(pool)

	if opts.CSVPath != "" {
		if err := writeTextFile(opts.CSVPath, merchant.CSV(pool)); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Msg("merchant payout CSV written")
	}
	return nil
}

// allocationsFromDisbursements rebuilds the merchant allocator's input from
// persisted disbursement and ranking rows.
func allocationsFromDisbursements(ctx context.Context, store *storage.Store, p period.Period) ([]funding.Allocation, error) {
	disbursements, err := store.ListDisbursements(ctx, p.Month, p.Year)
	if err != nil {
		return nil, err
	}
	if len(disbursements) == 0 {
		return nil, fmt.Errorf("no disbursements found for %s; run fund first", p.Month)
	}

	rankings, err := store.ListRankings(ctx, p.Month, p.Year)
	if err != nil {
		return nil, err
	}
	rankingByEconomy := make(map[string]storage.EconomyRanking, len(rankings))
	for _, r := range rankings {
		rankingByEconomy[r.EconomyID] = r
	}

	ids := make([]string, len(disbursements))
	for i, d := range disbursements {
		ids[i] = d.EconomyID
	}
	economies, err := store.GetEconomies(ctx, ids)
	if err != nil {
		return nil, err
	}

	allocations := make([]funding.Allocation, 0, len(disbursements))
	for _, d := range disbursements {
		economy, ok := economies[d.EconomyID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", funding.ErrEconomyMissing, d.EconomyID)
		}
		ranking, ok := rankingByEconomy[d.EconomyID]
		if !ok {
			return nil, fmt.Errorf("no ranking row for economy %s in %s", d.EconomyID, p.Month)
		}

		allocations = append(allocations, funding.Allocation{
			EconomyID:        d.EconomyID,
			EconomyName:      economy.Name,
			LightningAddress: d.LightningAddress,
			OverallRank:      ranking.OverallRank,
			VideosApproved:   ranking.VideosApproved,
			MerchantsTotal:   ranking.MerchantsTotal,
			MerchantsNew:     ranking.MerchantsNew,
			TotalFunding:     d.AmountSats,
		})
	}
	return allocations, nil
}

func printMerchantPool(pool *merchant.Pool) {
	fmt.Fprintf(os.Stdout, "merchant funding for %s\n", pool.Period.Month)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Economy\tRank\tVerified\tUnverified\tNo Address\tDistributed\tUnallocated")

	for _, breakdown := range pool.Economies {
		fmt.Fprintf(
			writer,
			"%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			breakdown.EconomyName,
			breakdown.EconomyRank,
			breakdown.VerifiedMerchants,
			breakdown.UnverifiedMerchants,
			breakdown.MerchantsWithoutAddresses,
			breakdown.DistributedAmount,
			breakdown.UnallocatedAmount,
		)
	}

	writer.Flush()
	fmt.Fprintf(os.Stdout, "pool: %d sats, distributed: %d, unallocated: %d\n",
		pool.TotalPool, pool.TotalDistributed, pool.TotalUnallocated)
}
