package cli

import (
	"github.com/spf13/cobra"

	"economy-fund/internal/app"
)

var (
	fundPeriod  string
	fundCSVPath string
	fundDryRun  bool
)

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Calculate economy funding and save pending disbursements",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.FundOptions{
			Period:  fundPeriod,
			CSVPath: fundCSVPath,
			DryRun:  fundDryRun,
		}
		return getApp().Fund(cmd.Context(), opts)
	},
}

func init() {
	fundCmd.Flags().StringVar(&fundPeriod, "period", "", "Period as YYYY-MM (defaults to the previous month)")
	fundCmd.Flags().StringVar(&fundCSVPath, "csv", "", "Path to write the payment CSV")
	fundCmd.Flags().BoolVar(&fundDryRun, "dry-run", false, "Calculate without saving disbursements")
}
