package cli

import (
	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// ReceiptOptions holds flags for the receipt command.
type ReceiptOptions struct {
	*RootOptions
	Kitchen bool
}

// ReceiptResult is a rendered ticket.
type ReceiptResult struct {
	OrderID string `json:"orderId"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
}

// NewReceiptCommand creates the receipt command.
func NewReceiptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReceiptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "receipt <order-id>",
		Short: "Print the bill or kitchen ticket of an order",
		Long: `Print the 32-column bill of a stored order, or with --kot its kitchen
ticket. A kitchen ticket prints the lines not yet sent and marks them sent;
when every line has been sent it is a reprint.

Examples:
  easypos receipt ORD-0192
  easypos receipt ORD-0192 --kot`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceipt(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Kitchen, "kot", false, "print the kitchen ticket instead of the bill")

	return cmd
}

func runReceipt(opts *ReceiptOptions, orderID string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	return withTerminal(opts.RootOptions, cmd, func(_ config.Config, term *terminal.Terminal) error {
		var (
			text string
			kind = "bill"
			err  error
		)
		if opts.Kitchen {
			kind = "kot"
			text, err = term.KitchenTicket(orderID)
		} else {
			text, err = term.Bill(orderID)
		}
		if err != nil {
			return out.Fail(ExitFailure, "cannot print receipt", err)
		}

		if out.Format == "json" {
			return out.Success(ReceiptResult{OrderID: orderID, Kind: kind, Text: text})
		}
		_, err = out.Writer.Write([]byte(text))
		return err
	})
}
