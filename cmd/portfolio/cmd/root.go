package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "A simulated stock portfolio with daily P&L tracking",
	Long: `Portfolio keeps a simulated cash balance and a set of stock holdings with
their weighted-average cost, values them at the latest daily close, and
records one P&L snapshot per day.

Trades can be placed through the HTTP API (serve) or directly from the
command line (buy, sell). Prices are read from the daily_prices table of the
configured store.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "directory containing config.yml")
}
