package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/report"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	CSV bool
}

type summaryText struct {
	report.Summary
}

func (s summaryText) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-18s %s\n", "Total sales:", s.TotalSales.StringFixed(2))
	fmt.Fprintf(&b, "%-18s %d\n", "Orders:", s.OrderCount)
	fmt.Fprintf(&b, "%-18s %s\n", "Average order:", s.AverageOrder.StringFixed(2))
	fmt.Fprintf(&b, "%-18s %s\n", "Est. gross profit:", s.EstGrossProfit.StringFixed(2))

	if len(s.TopItems) > 0 {
		b.WriteString("\nTop items:\n")
		for _, it := range s.TopItems {
			fmt.Fprintf(&b, "  %-20s %4d  %10s\n", it.Name, it.Quantity, it.Revenue.StringFixed(2))
		}
	}
	if len(s.Payments) > 0 {
		b.WriteString("\nPayments:\n")
		for _, p := range s.Payments {
			fmt.Fprintf(&b, "  %-20s %10s\n", p.Name, p.Value.StringFixed(2))
		}
	}
	if len(s.LowStock) > 0 {
		b.WriteString("\nLow stock:\n")
		for _, it := range s.LowStock {
			fmt.Fprintf(&b, "  %-20s %s %s\n", it.Name, it.Quantity.String(), it.Unit)
		}
	}
	return b.String()
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize sales",
		Long: `Summarize the account's order history: totals, top items, payment
methods, order types, categories and low stock. Cancelled orders are left out.
With --csv, print every order as CSV instead.

Examples:
  easypos report
  easypos report --format json
  easypos report --csv > orders.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "print the orders as CSV")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	return withTerminal(opts.RootOptions, cmd, func(_ config.Config, term *terminal.Terminal) error {
		st := term.State()
		if opts.CSV {
			if err := report.WriteCSV(out.Writer, st.Orders, time.Local); err != nil {
				return WrapExitError(ExitCommandError, "failed to write csv", err)
			}
			return nil
		}
		return out.Success(summaryText{report.Summarize(st, time.Local)})
	})
}
