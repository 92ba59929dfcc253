package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

var tokenCmd = &cobra.Command{
	Use:   "token NAME",
	Short: "Acquire an OAuth2 token for a connection",
	Long: `Acquire an access token for an OAuth2 connection and print its type,
expiry and fingerprint. The token itself is never printed.

Examples:
  connauth token internal`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	cfg, err := application.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !cfg.Auth.Type().IsOAuth2() {
		return auth.NewConfigurationError("authenticationType", fmt.Sprintf("connection %q uses %s, not OAuth2", cfg.Name, cfg.Auth.Type()))
	}

	var s *spinner.Spinner
	if !quietOutput {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " Requesting token..."
		s.Start()
	}

	token, err := application.Services().Builder.Acquire(cmd.Context(), cfg.Auth)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", text.FgGreen.Sprint("✓"), "Token acquired")
	fmt.Fprintf(out, "  Type:        %s\n", token.TokenType)
	fmt.Fprintf(out, "  Expires:     %s (in %s)\n", token.ExpiresAt.Format(time.RFC3339), time.Until(token.ExpiresAt).Round(time.Second))
	fmt.Fprintf(out, "  Fingerprint: %s\n", logging.Fingerprint(token.AccessToken.Reveal()))
	if token.Scope != "" {
		fmt.Fprintf(out, "  Scope:       %s\n", token.Scope)
	}
	return nil
}
