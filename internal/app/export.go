package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"

	"economy-fund/internal/funding"
	"economy-fund/internal/storage"
)

// Export renders a period's funding CSV and/or overall-score chart. With no
// explicit paths both files land in the configured export directory.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	p, err := a.resolvePeriod(opts.Period)
	if err != nil {
		return err
	}

	if opts.CSVPath == "" && opts.PNGPath == "" {
		dir := a.Config.Export.OutputDir
		opts.CSVPath = filepath.Join(dir, fmt.Sprintf("funding-%s.csv", p.Month))
		opts.PNGPath = filepath.Join(dir, fmt.Sprintf("rankings-%s.png", p.Month))
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.CSVPath != "" {
		_, allocator, _ := a.newEngines(store)
		pool, err := allocator.Calculate(ctx, p, a.Config.Funding)
		if err != nil {
			return err
		}
		if err := writeTextFile(opts.CSVPath, funding.CSV(pool)); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.CSVPath).Int("records", len(funding.PaymentRecords(pool))).Msg("funding CSV exported")
	}

	if opts.PNGPath != "" {
		rankings, err := store.ListRankings(ctx, p.Month, p.Year)
		if err != nil {
			return err
		}
		if len(rankings) == 0 {
			a.Logger.Info().Str("period", p.Month).Msg("no rankings found; skipping chart")
			return nil
		}
		names, err := economyNames(ctx, store, rankings)
		if err != nil {
			return err
		}
		if err := writeScoreChart(opts.PNGPath, p.Month, rankings, names); err != nil {
			return err
		}
		a.Logger.Info().Str("path", opts.PNGPath).Msg("score chart exported")
	}

	return nil
}

func writeScoreChart(path, month string, rankings []storage.EconomyRanking, names map[string]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	bars := make([]chart.Value, 0, len(rankings))
	for _, r := range rankings {
		bars = append(bars, chart.Value{
			Label: names[r.EconomyID],
			Value: r.OverallScore.InexactFloat64(),
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Overall score by economy (%s)", month),
		Width:    1280,
		Height:   720,
		BarWidth: 60,
		Bars:     bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func writeTextFile(path, content string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content+"\n"), 0o644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
