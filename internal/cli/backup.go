package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/backup"
	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// BackupOptions holds flags for the backup command.
type BackupOptions struct {
	*RootOptions
	Output string
	S3     bool
}

// BackupResult reports where a backup went.
type BackupResult struct {
	Location string `json:"location"`
	Orders   int    `json:"orders"`
	Bytes    int    `json:"bytes"`
}

func (r BackupResult) Text() string {
	return fmt.Sprintf("Backed up %d orders (%d bytes) to %s\n", r.Orders, r.Bytes, r.Location)
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BackupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the account to a backup file",
		Long: `Export menu, inventory, tables, orders, settings and team members as a
version 1.0 backup document. The cart and the logged-in staff member are not
exported.

By default the file goes to backup.dir as easypos_backup_<date>.json.

Examples:
  easypos backup
  easypos backup -o today.json
  easypos backup -o -        # stdout
  easypos backup --s3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file (- for stdout)")
	cmd.Flags().BoolVar(&opts.S3, "s3", false, "upload to backup.s3_bucket")

	return cmd
}

func runBackup(opts *BackupOptions, cmd *cobra.Command) error {
	out := newFormatter(opts.RootOptions, cmd)
	if opts.Output != "" && opts.S3 {
		return NewExitError(ExitCommandError, "--output and --s3 are exclusive")
	}

	return withTerminal(opts.RootOptions, cmd, func(cfg config.Config, term *terminal.Terminal) error {
		now := term.Now()
		st := term.State()
		data, err := backup.Encode(backup.Export(st, now))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to encode backup", err)
		}

		result := BackupResult{Orders: len(st.Orders), Bytes: len(data)}
		switch {
		case opts.Output == "-":
			_, err := out.Writer.Write(append(data, '\n'))
			return err

		case opts.Output != "":
			if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
				return WrapExitError(ExitCommandError, "failed to write backup", err)
			}
			result.Location = opts.Output

		default:
			sink, where, err := backupSink(cmd.Context(), cfg, opts.S3)
			if err != nil {
				return err
			}
			name := backup.FileName(now)
			if err := sink.Put(cmd.Context(), name, data); err != nil {
				return WrapExitError(ExitCommandError, "failed to store backup", err)
			}
			result.Location = where + name
		}
		return out.Success(result)
	})
}

// backupSink picks the configured directory or, with useS3, the bucket.
// where is a human-readable prefix for the stored name.
func backupSink(ctx context.Context, cfg config.Config, useS3 bool) (sink backup.Sink, where string, err error) {
	if !useS3 {
		return backup.FileSink{Dir: cfg.Backup.Dir}, cfg.Backup.Dir + string(os.PathSeparator), nil
	}
	if cfg.Backup.S3Bucket == "" {
		return nil, "", NewExitError(ExitCommandError, "backup.s3_bucket is not configured")
	}
	s3Sink, err := backup.NewS3Sink(ctx, cfg.Backup.S3Region, cfg.Backup.S3Bucket, cfg.Backup.S3Prefix)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "failed to set up s3", err)
	}
	return s3Sink, fmt.Sprintf("s3://%s/%s/", cfg.Backup.S3Bucket, cfg.Backup.S3Prefix), nil
}
