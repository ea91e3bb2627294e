package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/api"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the terminal and its HTTP API",
		Long: `Run a terminal and serve it over HTTP until interrupted.

With an account configured the terminal signs in and syncs it; without one
it serves the signed-out default restaurant.

Examples:
  easypos serve
  easypos serve --addr :9090
  EASYPOS_ACCOUNT=acme easypos serve --config easypos.cue`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) (err error) {
	cfg, logCloser, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}
	if !opts.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term, err := openTerminal(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := term.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "failed to close terminal", cerr)
		}
	}()

	router, err := api.NewRouter(term, api.Options{
		JWTSecret: cfg.HTTP.JWTSecret,
		Rate:      cfg.HTTP.Rate,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build router", err)
	}

	if err := api.Serve(ctx, cfg.HTTP.Addr, router); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitCommandError, "http server failed", err)
	}
	return nil
}

