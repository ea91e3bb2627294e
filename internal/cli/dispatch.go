package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	*RootOptions
	Args string // JSON payload
}

// DispatchResult is the outcome of one raw dispatch.
type DispatchResult struct {
	Type        pos.Kind `json:"type"`
	Seq         int64    `json:"seq"`
	Orders      int      `json:"orders"`
	Tables      int      `json:"tables"`
	CartLines   int      `json:"cartLines"`
	NextInvoice string   `json:"nextInvoice"`
}

func (r DispatchResult) Text() string {
	return fmt.Sprintf("Dispatched %s (seq %d): %d orders, %d tables, %d cart lines, next invoice %s\n",
		r.Type, r.Seq, r.Orders, r.Tables, r.CartLines, r.NextInvoice)
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{RootOptions: rootOpts}

	kinds := make([]string, 0, len(pos.Kinds()))
	for _, k := range pos.Kinds() {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:   "dispatch <TYPE>",
		Short: "Apply one raw action to the account",
		Long: `Apply one action straight to the reducer, with no lifecycle checks.

The action is journaled on the device and the account snapshot is saved
before the command returns.

Action types:
  ` + strings.Join(kinds, "\n  ") + `

Examples:
  easypos dispatch ADD_TABLE --args '{"table":{"id":"T1","name":"Table 1","status":"AVAILABLE"}}'
  easypos dispatch UPDATE_ORDER_STATUS --args '{"orderId":"ORD-1","status":"COOKING"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Args, "args", "{}", "action payload as JSON")

	return cmd
}

func runDispatch(opts *DispatchOptions, kind string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	action, err := pos.ParseAction(strings.ToUpper(kind), []byte(opts.Args))
	if err != nil {
		return out.Fail(ExitCommandError, "invalid action", err)
	}

	return withTerminal(opts.RootOptions, cmd, func(_ config.Config, term *terminal.Terminal) error {
		st := term.Dispatch(action)
		out.VerboseLog("dispatched %s at seq %d", action.Kind(), term.Seq())
		return out.Success(DispatchResult{
			Type:        action.Kind(),
			Seq:         term.Seq(),
			Orders:      len(st.Orders),
			Tables:      len(st.Tables),
			CartLines:   len(st.Cart),
			NextInvoice: st.Settings.InvoiceLabel(),
		})
	})
}
