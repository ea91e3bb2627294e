package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/azairamail/EASYAiPOS/internal/api"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	*RootOptions
	Account string
	TTL     time.Duration
}

// TokenResult is a signed bearer token.
type TokenResult struct {
	Account   string    `json:"account"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r TokenResult) Text() string {
	return r.Token + "\n"
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for the account",
		Long: `Sign an HS256 bearer token with http.jwt_secret whose subject is the
account. The API accepts it while the terminal is signed in to that account.

Examples:
  easypos token
  easypos token --ttl 720h`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Account, "account", "", "token subject (defaults to the configured account)")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}

func runToken(opts *TokenOptions, cmd *cobra.Command) error {
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
	if account == "" {
		return WrapExitError(ExitCommandError, "cannot issue token", errNoAccount)
	}
	if cfg.HTTP.JWTSecret == "" {
		return NewExitError(ExitCommandError, "http.jwt_secret is not configured")
	}
	if opts.TTL <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("ttl must be positive, got %s", opts.TTL))
	}

	now := time.Now()
	token, err := api.IssueToken([]byte(cfg.HTTP.JWTSecret), account, opts.TTL, now)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to sign token", err)
	}
	return out.Success(TokenResult{Account: account, Token: token, ExpiresAt: now.Add(opts.TTL).UTC()})
}
