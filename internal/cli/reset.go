package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// ResetResult reports what a reset cleared.
type ResetResult struct {
	Account   string `json:"account"`
	Orders    int    `json:"orders"`
	Menu      int    `json:"menu"`
	Tables    int    `json:"tables"`
	Inventory int    `json:"inventory"`
}

func (r ResetResult) Text() string {
	return fmt.Sprintf("Cleared %s: %d orders, %d menu items, %d tables, %d inventory items\n",
		r.Account, r.Orders, r.Menu, r.Tables, r.Inventory)
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear orders, menu, tables and inventory",
		Long: `Clear the account's business data: orders, menu, tables and inventory.
Settings and team members are kept. Take a backup first; this cannot be
undone.

Examples:
  easypos backup && easypos reset --yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Yes, "yes", false, "confirm clearing the business data")

	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	if !opts.Yes {
		return NewExitError(ExitCommandError, "reset clears orders, menu, tables and inventory; pass --yes to confirm")
	}

	return withTerminal(opts.RootOptions, cmd, func(cfg config.Config, term *terminal.Terminal) error {
		before := term.State()
		term.Dispatch(pos.ClearBusinessData())
		return out.Success(ResetResult{
			Account:   cfg.Account,
			Orders:    len(before.Orders),
			Menu:      len(before.Menu),
			Tables:    len(before.Tables),
			Inventory: len(before.Inventory),
		})
	})
}
