package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/store"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Account string
	Verify  bool
}

// ReplayResult summarizes the replayed state.
type ReplayResult struct {
	Account       string `json:"account"`
	Entries       int    `json:"entries"`
	LastSeq       int64  `json:"last_seq"`
	Orders        int    `json:"orders"`
	Tables        int    `json:"tables"`
	NextInvoice   string `json:"next_invoice"`
	Hash          string `json:"hash"`
	Deterministic bool   `json:"deterministic"`

	// MatchesStore is set with --verify: whether the replayed state equals
	// the account store's snapshot.
	MatchesStore *bool  `json:"matches_store,omitempty"`
	StoreHash    string `json:"store_hash,omitempty"`
}

func (r ReplayResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Replayed %d entries for %q (last seq %d)\n", r.Entries, r.Account, r.LastSeq)
	fmt.Fprintf(&b, "  orders: %d, tables: %d, next invoice: %s\n", r.Orders, r.Tables, r.NextInvoice)
	fmt.Fprintf(&b, "  hash: %s\n", r.Hash)
	if r.Deterministic {
		b.WriteString("  ✓ deterministic\n")
	} else {
		b.WriteString("  ✗ two replays disagree\n")
	}
	if r.MatchesStore != nil {
		if *r.MatchesStore {
			b.WriteString("  ✓ matches the account store\n")
		} else {
			fmt.Fprintf(&b, "  ✗ account store differs (store hash %s)\n", r.StoreHash)
		}
	}
	return b.String()
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the account state from the journal",
		Long: `Fold the device's journal for an account over the default restaurant,
twice, and check both runs agree. With --verify, also compare the result
with the snapshot in the account store.

Exit codes:
  0 - Replay is deterministic (and matches the store with --verify)
  1 - Replays disagree, or the store differs
  2 - Command error (store unavailable, undecodable entry)

Examples:
  easypos replay
  easypos replay --verify --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "", "account to replay (defaults to the configured account)")
	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "compare with the account store's snapshot")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	cfg, logCloser, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	account := opts.Account
	if account == "" {
		account = cfg.Account
	}
	if account == "" {
		return WrapExitError(ExitCommandError, "cannot replay", errNoAccount)
	}

	local, err := store.Open(cfg.LocalPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}
	defer local.Close()

	entries, err := local.ReadJournal(ctx, account)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	base := pos.Initial().WithPersisted(snapshot.Default().Persisted())
	first, lastSeq, err := engine.Replay(base, entries)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	second, _, err := engine.Replay(base, entries)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	hash, err := canonicalHash(first)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash state", err)
	}
	again, err := canonicalHash(second)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash state", err)
	}

	result := ReplayResult{
		Account:       account,
		Entries:       len(entries),
		LastSeq:       lastSeq,
		Orders:        len(first.Orders),
		Tables:        len(first.Tables),
		NextInvoice:   first.Settings.InvoiceLabel(),
		Hash:          hash,
		Deterministic: hash == again,
	}
	out.VerboseLog("replayed %d entries for %s", len(entries), account)

	if opts.Verify {
		storeHash, err := storedHash(ctx, cfg, local, account)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read account store", err)
		}
		matches := storeHash == hash
		result.MatchesStore = &matches
		result.StoreHash = storeHash
	}

	if err := out.Success(result); err != nil {
		return err
	}
	switch {
	case !result.Deterministic:
		return NewExitError(ExitFailure, "replays disagree")
	case result.MatchesStore != nil && !*result.MatchesStore:
		return NewExitError(ExitFailure, "replayed state differs from the account store")
	}
	return nil
}

// canonicalHash hashes the persisted part of st with every collection in
// snapshot order, so states that differ only in list order agree.
func canonicalHash(st pos.State) (string, error) {
	return pos.Initial().WithPersisted(snapshot.FromState(st).Persisted()).PersistedHash()
}

// storedHash reads the account's current snapshot through the configured
// account store.
func storedHash(ctx context.Context, cfg config.Config, local *store.Store, account string) (string, error) {
	remote, closer, err := terminal.OpenRemote(ctx, cfg, local)
	if err != nil {
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}

	subCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	payloads, err := remote.Subscribe(subCtx, account)
	if err != nil {
		return "", err
	}

	var snap snapshot.Snapshot
	select {
	case p, ok := <-payloads:
		if !ok {
			return "", fmt.Errorf("subscription for %s closed", account)
		}
		if p.Err != nil {
			return "", p.Err
		}
		snap = snapshot.Default()
		if p.Snapshot != nil {
			snap = p.Snapshot.WithSeededAdmin()
		}
	case <-subCtx.Done():
		return "", fmt.Errorf("no snapshot for %s within %s: %w", account, readyTimeout, subCtx.Err())
	}
	return pos.Initial().WithPersisted(snap.Persisted()).PersistedHash()
}

