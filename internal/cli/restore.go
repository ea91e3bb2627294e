package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/backup"
	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// RestoreOptions holds flags for the restore command.
type RestoreOptions struct {
	*RootOptions
	S3 bool
}

// RestoreResult counts what a restore replaced.
type RestoreResult struct {
	Source      string `json:"source"`
	Orders      int    `json:"orders"`
	Menu        int    `json:"menu"`
	Tables      int    `json:"tables"`
	Inventory   int    `json:"inventory"`
	TeamMembers int    `json:"teamMembers"`
}

func (r RestoreResult) Text() string {
	return fmt.Sprintf("Restored %s: %d orders, %d menu items, %d tables, %d inventory items, %d team members\n",
		r.Source, r.Orders, r.Menu, r.Tables, r.Inventory, r.TeamMembers)
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RestoreOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Restore the account from a backup file",
		Long: `Replace the collections present in a backup file. The file must carry
data.menu and data.settings; anything else it lacks keeps its current value.
A file that fails validation changes nothing.

Exit codes:
  0 - Restored
  1 - Not a valid backup file
  2 - Command error (unreadable file, store unavailable)

Examples:
  easypos restore backups/easypos_backup_2024-03-15.json
  easypos restore easypos_backup_2024-03-15.json --s3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.S3, "s3", false, "read the named object from backup.s3_bucket")

	return cmd
}

func runRestore(opts *RestoreOptions, name string, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)

	return withTerminal(opts.RootOptions, cmd, func(cfg config.Config, term *terminal.Terminal) error {
		var (
			data []byte
			err  error
		)
		if opts.S3 {
			sink, _, serr := backupSink(cmd.Context(), cfg, true)
			if serr != nil {
				return serr
			}
			data, err = sink.Get(cmd.Context(), name)
		} else {
			data, err = os.ReadFile(name)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read backup", err)
		}

		doc, err := backup.Parse(data)
		if err != nil {
			return out.Fail(ExitFailure, "cannot restore", err)
		}

		action := doc.Action()
		term.Dispatch(action)
		return out.Success(RestoreResult{
			Source:      name,
			Orders:      len(action.Orders),
			Menu:        len(action.Menu),
			Tables:      len(action.Tables),
			Inventory:   len(action.Inventory),
			TeamMembers: len(action.TeamMembers),
		})
	})
}
