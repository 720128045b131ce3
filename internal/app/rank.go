package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"economy-fund/internal/storage"
)

// Rank recomputes and persists a period's rankings, replacing any prior set.
func (a *App) Rank(ctx context.Context, opts RankOptions) error {
	p, err := a.resolvePeriod(opts.Period)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, _, _ := a.newEngines(store)

	rankings, err := engine.RankAll(ctx, p)
	if err != nil {
		return err
	}
	if err := engine.Save(ctx, p, rankings); err != nil {
		return err
	}

	if len(rankings) == 0 {
		fmt.Fprintf(os.Stdout, "no economies ranked for %s\n", p.Month)
		return nil
	}

	names, err := economyNames(ctx, store, rankings)
	if err != nil {
		return err
	}
	printRankings(p.Month, rankings, names)
	return nil
}

// economyNames resolves display names for ranked economies. Missing rows
// fall back to the raw ID; only the funding calculation treats a missing
// economy as fatal.
func economyNames(ctx context.Context, store storage.EconomySource, rankings []storage.EconomyRanking) (map[string]string, error) {
	ids := make([]string, len(rankings))
	for i, r := range rankings {
		ids[i] = r.EconomyID
	}
	economies, err := store.GetEconomies(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(rankings))
	for _, r := range rankings {
		if eco, ok := economies[r.EconomyID]; ok {
			names[r.EconomyID] = eco.Name
		} else {
			names[r.EconomyID] = r.EconomyID
		}
	}
	return names, nil
}

func printRankings(month string, rankings []storage.EconomyRanking, names map[string]string) {
	fmt.Fprintf(os.Stdout, "rankings for %s\n", month)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tEconomy\tScore\tVideos (appr/subm)\tMerchants\tNew\tFunding (sats)")

	for _, r := range rankings {
		fundingEarned := "-"
		if r.FundingEarned != nil {
			fundingEarned = fmt.Sprintf("%d", *r.FundingEarned)
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			r.OverallRank,
			names[r.EconomyID],
			r.OverallScore.StringFixed(2),
			r.VideosApproved,
			r.VideosSubmitted,
			r.MerchantsTotal,
			r.MerchantsNew,
			fundingEarned,
		)
	}

	writer.Flush()
}
