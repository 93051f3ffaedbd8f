package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"paper-trader/internal/models"
	"paper-trader/internal/portfolio"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// formatMoney renders amount in the minor units of currency, falling back to
// two decimals for unknown codes.
func formatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}

// signedMoney prefixes gains with "+".
func signedMoney(amount decimal.Decimal, currency string) string {
	if amount.IsPositive() {
		return "+" + formatMoney(amount, currency)
	}
	return formatMoney(amount, currency)
}

func printSummary(w io.Writer, s portfolio.Summary, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "SYMBOL\tQTY\tAVG PRICE\tCOST\t")
	for _, symbol := range s.Symbols() {
		pos := s.Holdings[symbol]
		cost := pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity))
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t\n", symbol, pos.Quantity,
			formatMoney(pos.AvgPrice, currency), formatMoney(cost, currency))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nCash:           %s\nUnrealized P&L: %s\nTotal:          %s\n",
		formatMoney(s.Cash, currency), signedMoney(s.UnrealizedPnL, currency), formatMoney(s.Total, currency))
	return err
}

func printPnLHistory(w io.Writer, recs []models.PnLRecord, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "DATE\tCASH\tUNREALIZED\tTOTAL\t")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", r.Date,
			formatMoney(r.Cash, currency), signedMoney(r.UnrealizedPnL, currency), formatMoney(r.Total, currency))
	}
	return tw.Flush()
}

func printTrades(w io.Writer, trades []models.Trade, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "EXECUTED\tSIDE\tSYMBOL\tQTY\tPRICE\tAMOUNT\t")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t\n", t.ExecutedAt.Local().Format("2006-01-02 15:04:05"),
			t.Side, t.Symbol, t.Quantity, formatMoney(t.Price, currency), formatMoney(t.Amount, currency))
	}
	return tw.Flush()
}
