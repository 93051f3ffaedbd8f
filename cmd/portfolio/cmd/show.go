package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"paper-trader/internal/models"
	"paper-trader/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	showJSON     bool
	historyLimit int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show holdings valued at the latest prices",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent daily P&L snapshots",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recent trades",
	Args:  cobra.NoArgs,
	RunE:  runTrades,
}

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Manage daily close prices",
}

var priceSetCmd = &cobra.Command{
	Use:     "set <SYMBOL> <YYYY-MM-DD> <CLOSE>",
	Short:   "Record a daily close price (sqlite backend)",
	Example: "  portfolio price set AAPL 2025-06-02 150.25",
	Args:    cobra.ExactArgs(3),
	RunE:    runPriceSet,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tradesCmd)
	rootCmd.AddCommand(priceCmd)
	priceCmd.AddCommand(priceSetCmd)

	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the summary as JSON")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 30, "number of rows")
	tradesCmd.Flags().IntVarP(&historyLimit, "limit", "n", 30, "number of rows")
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	summary, err := a.portfolio.Summary(cmd.Context())
	if err != nil {
		return fmt.Errorf("summary: %w", err)
	}
	if showJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(cmd.OutOrStdout(), summary, a.cfg.Portfolio.Currency)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", historyLimit)
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	recs, err := a.store.PnLHistory(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("pnl history: %w", err)
	}
	return printPnLHistory(cmd.OutOrStdout(), recs, a.cfg.Portfolio.Currency)
}

func runTrades(cmd *cobra.Command, args []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", historyLimit)
	}
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	trades, err := a.store.ListTrades(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	return printTrades(cmd.OutOrStdout(), trades, a.cfg.Portfolio.Currency)
}

func runPriceSet(cmd *cobra.Command, args []string) error {
	p := models.DailyPrice{Symbol: strings.ToUpper(strings.TrimSpace(args[0])), Date: args[1]}
	if _, err := time.Parse(models.DateLayout, p.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD, got %q", p.Date)
	}
	closePrice, err := decimal.NewFromString(args[2])
	if err != nil || !closePrice.IsPositive() {
		return fmt.Errorf("close price must be a positive number, got %q", args[2])
	}
	p.ClosePrice = closePrice

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	w, ok := a.store.(store.PriceWriter)
	if !ok {
		return fmt.Errorf("store backend %q does not accept price writes", a.cfg.Store.Backend)
	}
	if err := w.SavePrice(cmd.Context(), p); err != nil {
		return fmt.Errorf("save price: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s close %s\n", p.Symbol, p.Date, p.ClosePrice)
	return nil
}
