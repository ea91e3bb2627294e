package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/logging"
	"github.com/azairamail/EASYAiPOS/internal/terminal"
)

// readyTimeout bounds the wait for the account snapshot.
const readyTimeout = 30 * time.Second

var errNoAccount = errors.New("no account configured (set account in the config file or EASYPOS_ACCOUNT)")

// loadConfig reads the configuration and installs the process logger on
// the command's stderr. The returned closer releases the log file.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (config.Config, io.Closer, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	slog.SetDefault(logger)
	return cfg, closer, nil
}

// openTerminal opens and starts a terminal for cfg. When cfg names an
// account the terminal signs in and the call returns once the account's
// snapshot has loaded. requireAccount rejects a config without one.
func openTerminal(ctx context.Context, cfg config.Config, requireAccount bool) (*terminal.Terminal, error) {
	if requireAccount && cfg.Account == "" {
		return nil, WrapExitError(ExitCommandError, "cannot open terminal", errNoAccount)
	}

	term, err := terminal.Open(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open terminal", err)
	}
	fail := func(msg string, err error) (*terminal.Terminal, error) {
		if cerr := term.Close(); cerr != nil {
			slog.Error("close terminal", "error", cerr)
		}
		return nil, WrapExitError(ExitCommandError, msg, err)
	}

	if err := term.Start(ctx); err != nil {
		return fail("failed to start terminal", err)
	}
	if cfg.Account == "" {
		return term, nil
	}
	if err := term.SignIn(ctx, cfg.Account); err != nil {
		return fail(fmt.Sprintf("failed to sign in %s", cfg.Account), err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := term.WaitReady(waitCtx); err != nil {
		return fail(fmt.Sprintf("account %s did not load", cfg.Account), err)
	}
	return term, nil
}

// withTerminal loads the config, opens a signed-in terminal and runs fn.
// The terminal is closed afterwards, which flushes the journal and any
// pending account write.
func withTerminal(opts *RootOptions, cmd *cobra.Command, fn func(cfg config.Config, term *terminal.Terminal) error) (err error) {
	cfg, logCloser, err := loadConfig(opts, cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	term, err := openTerminal(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := term.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "failed to close terminal", cerr)
		}
	}()

	return fn(cfg, term)
}
