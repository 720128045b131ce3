package cli

import (
	"github.com/spf13/cobra"

	"economy-fund/internal/app"
)

var (
	rankPeriod string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Compute and save economy rankings for a period",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.RankOptions{
			Period: rankPeriod,
		}
		return getApp().Rank(cmd.Context(), opts)
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankPeriod, "period", "", "Period as YYYY-MM (defaults to the previous month)")
}
