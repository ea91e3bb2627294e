package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Account string
	Type    string
	Limit   int
}

// JournalResult lists journal entries.
type JournalResult struct {
	Account string         `json:"account"`
	Entries []engine.Entry `json:"entries"`
}

func (r JournalResult) Text() string {
	if len(r.Entries) == 0 {
		return fmt.Sprintf("No journal entries for %q.\n", r.Account)
	}
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%6d  %s  %-26s %s\n", e.Seq, e.At.Local().Format(time.DateTime), e.Action.Type, e.Action.Payload)
	}
	return b.String()
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List the device's action journal",
		Long: `List the actions this device dispatched for an account, in sequence
order. The journal lives in the local store (local_path).

Examples:
  easypos journal
  easypos journal --type ADD_ORDER
  easypos journal --limit 20 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "", "account to list (defaults to the configured account)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only entries of this action type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the last n entries")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	cfg, logCloser, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	account := opts.Account
	if account == "" {
		account = cfg.Account
	}

	local, err := store.Open(cfg.LocalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}
	defer local.Close()

	entries, err := local.ReadJournal(cmd.Context(), account)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	if opts.Type != "" {
		kind := pos.Kind(strings.ToUpper(opts.Type))
		filtered := entries[:0]
		for _, e := range entries {
			if e.Action.Type == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}

	return out.Success(JournalResult{Account: account, Entries: entries})
}
