package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/backup"
	"github.com/azairamail/EASYAiPOS/internal/harness"
)

// FileCheck is the validation outcome of one file.
type FileCheck struct {
	File  string `json:"file"`
	Kind  string `json:"kind"` // "backup" | "scenario"
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateResult holds every file's outcome.
type ValidateResult struct {
	Files   []FileCheck `json:"files"`
	Invalid int         `json:"invalid"`
}

func (r ValidateResult) Text() string {
	var b strings.Builder
	for _, f := range r.Files {
		if f.Valid {
			fmt.Fprintf(&b, "✓ %s (%s)\n", f.File, f.Kind)
			continue
		}
		fmt.Fprintf(&b, "✗ %s (%s): %s\n", f.File, f.Kind, f.Error)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Check backup files and scenarios without applying them",
		Long: `Check that files parse and validate. Files ending in .yaml or .yml are
read as harness scenarios; anything else as a backup document.

Exit codes:
  0 - Every file is valid
  1 - At least one file is invalid
  2 - Command error

Examples:
  easypos validate backups/easypos_backup_2024-03-15.json
  easypos validate scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)

	result := ValidateResult{Files: make([]FileCheck, 0, len(files))}
	for _, file := range files {
		check := checkFile(file)
		if !check.Valid {
			result.Invalid++
		}
		result.Files = append(result.Files, check)
	}

	if err := out.Success(result); err != nil {
		return err
	}
	if result.Invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files invalid", result.Invalid, len(files)))
	}
	return nil
}

func checkFile(file string) FileCheck {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		check := FileCheck{File: file, Kind: "scenario"}
		if _, err := harness.LoadScenario(file); err != nil {
			check.Error = err.Error()
			return check
		}
		check.Valid = true
		return check
	}

	check := FileCheck{File: file, Kind: "backup"}
	data, err := os.ReadFile(file)
	if err != nil {
		check.Error = err.Error()
		return check
	}
	if _, err := backup.Parse(data); err != nil {
		check.Error = err.Error()
		return check
	}
	check.Valid = true
	return check
}
