package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "Encrypt a secret value for a connections file",
	Long: `Read a plaintext secret from stdin and print its ciphertext, produced by
the configured protector, for use in a secret field of a connection record.
A single trailing newline is removed from the input.

Examples:
  printf '%s' "$CLIENT_SECRET" | connauth protect
  base64 -w0 client.p12 | connauth protect`,
	Args: cobra.NoArgs,
	RunE: runProtect,
}

func runProtect(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read secret from stdin: %w", err)
	}
	plaintext := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if plaintext == "" {
		return fmt.Errorf("no secret provided on stdin")
	}

	ciphertext, err := application.Services().Protector.Protect(cmd.Context(), plaintext)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ciphertext)
	return nil
}
