package app

import (
	"context"
	"fmt"
	"os"
)

// Show prints a period's persisted rankings.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	p, err := a.resolvePeriod(opts.Period)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rankings, err := store.ListRankings(ctx, p.Month, p.Year)
	if err != nil {
		return err
	}
	if len(rankings) == 0 {
		fmt.Fprintf(os.Stdout, "no rankings found for %s\n", p.Month)
		return nil
	}

	names, err := economyNames(ctx, store, rankings)
	if err != nil {
		return err
	}
	printRankings(p.Month, rankings, names)
	return nil
}
