package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"economy-fund/internal/funding"
)

// Fund calculates a period's economy-level funding pool, prints it, and
// unless --dry-run saves the pending disbursements. The once-per-period
// guard lives here, at the collaborator boundary, not inside the allocator.
func (a *App) Fund(ctx context.Context, opts FundOptions) error {
	p, err := a.resolvePeriod(opts.Period)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if !opts.DryRun {
		existing, err := store.CountDisbursements(ctx, p.Month, p.Year)
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("disbursements already exist for %s; refusing to recalculate", p.Month)
		}
	}

	_, allocator, _ := a.newEngines(store)

	pool, err := allocator.Calculate(ctx, p, a.Config.Funding)
	if err != nil {
		return err
	}

	printPool(pool)

	if opts.CSVPath != "" {
		if err := writeTextFile(opts.CSVPath, funding.CSV(pool)); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Msg("funding CSV written")
	}

	if opts.DryRun {
		a.Logger.Info().Str("period", p.Month).Msg("dry-run: disbursements not saved")
		return nil
	}

	batch, err := allocator.SaveDisbursements(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "saved %d pending disbursements (batch %s)\n", len(pool.Allocations), batch)
	return nil
}

func printPool(pool *funding.Pool) {
	fmt.Fprintf(os.Stdout, "funding pool for %s\n", pool.Period.Month)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tEconomy\tBase\tRank Bonus\tPerf Bonus\tTotal (sats)\tMethod")

	for _, alloc := range pool.Allocations {
		method := "manual"
		if alloc.LightningAddress != nil && *alloc.LightningAddress != "" {
			method = "lightning"
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			alloc.OverallRank,
			alloc.EconomyName,
			alloc.BaseAllocation,
			alloc.RankBonus,
			alloc.PerformanceBonus,
			alloc.TotalFunding,
			method,
		)
	}

	writer.Flush()
	fmt.Fprintf(os.Stdout, "total: %d sats (nominal %d)\n", pool.TotalPool, pool.Config.NominalTotal(len(pool.Allocations)))
}
