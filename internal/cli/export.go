package cli

import (
	"github.com/spf13/cobra"

	"economy-fund/internal/app"
)

var (
	exportPeriod  string
	exportCSVPath string
	exportPNGPath string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a period's funding CSV and/or score chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Period:  exportPeriod,
			CSVPath: exportCSVPath,
			PNGPath: exportPNGPath,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPeriod, "period", "", "Period as YYYY-MM (defaults to the previous month)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data (defaults under export.output_dir)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart (defaults under export.output_dir)")
}
