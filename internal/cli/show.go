package cli

import (
	"github.com/spf13/cobra"

	"economy-fund/internal/app"
)

var (
	showPeriod string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display a period's saved rankings",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ShowOptions{
			Period: showPeriod,
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().StringVar(&showPeriod, "period", "", "Period as YYYY-MM (defaults to the previous month)")
}
