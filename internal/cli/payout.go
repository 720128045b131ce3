package cli

import (
	"github.com/spf13/cobra"

	"economy-fund/internal/app"
)

var (
	payoutPeriod  string
	payoutCSVPath string
)

var payoutCmd = &cobra.Command{
	Use:   "payout",
	Short: "Redistribute saved disbursements to verified merchants",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PayoutOptions{
			Period:  payoutPeriod,
			CSVPath: payoutCSVPath,
		}
		return getApp().Payout(cmd.Context(), opts)
	},
}

func init() {
	payoutCmd.Flags().StringVar(&payoutPeriod, "period", "", "Period as YYYY-MM (defaults to the previous month)")
	payoutCmd.Flags().StringVar(&payoutCSVPath, "csv", "", "Path to write the merchant payment CSV")
}
