package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"paper-trader/internal/portfolio"

	"github.com/spf13/cobra"
)

var buyCmd = &cobra.Command{
	Use:   "buy <SYMBOL> <QUANTITY>",
	Short: "Buy shares at the latest close",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args, (*portfolio.Portfolio).Buy)
	},
}

var sellCmd = &cobra.Command{
	Use:   "sell <SYMBOL> <QUANTITY>",
	Short: "Sell shares at the latest close",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrade(cmd, args, (*portfolio.Portfolio).Sell)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Write today's P&L snapshot",
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(buyCmd)
	rootCmd.AddCommand(sellCmd)
	rootCmd.AddCommand(updateCmd)
}

type tradeFunc func(p *portfolio.Portfolio, ctx context.Context, symbol string, quantity int64) (portfolio.Summary, error)

func runTrade(cmd *cobra.Command, args []string, trade tradeFunc) error {
	symbol := strings.ToUpper(strings.TrimSpace(args[0]))
	quantity, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("quantity must be an integer, got %q", args[1])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := trade(a.portfolio, cmd.Context(), symbol, quantity)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), summary, a.cfg.Portfolio.Currency)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := a.portfolio.UpdateDailyPnL(cmd.Context())
	if err != nil {
		return fmt.Errorf("update daily pnl: %w", err)
	}
	return printSummary(cmd.OutOrStdout(), summary, a.cfg.Portfolio.Currency)
}
