package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/internal/mtls"
	"github.com/giantswarm/connauth/pkg/auth"
)

var headersCmd = &cobra.Command{
	Use:   "headers NAME",
	Short: "Build the transport headers for a connection",
	Long: `Build the headers a connection attaches to its MCP requests, acquiring
an OAuth2 token when needed. Header values are redacted; only their
length is shown.

Examples:
  connauth headers github
  connauth headers internal -f ./connections.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runHeaders,
}

func runHeaders(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	record, err := application.Record(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	result, err := application.Services().Builder.BuildFromRecord(cmd.Context(), record)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s (%s)\n", text.FgHiCyan.Sprint("Connection:"), record.Name, record.Type())

	names := make([]string, 0, len(result.Headers))
	for name := range result.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintln(out, "  (no headers)")
	}
	for _, name := range names {
		value := auth.Secret(result.Headers[name])
		fmt.Fprintf(out, "  %s: %s (%d chars)\n", name, value, len(value))
	}

	if result.Certificate != nil && len(result.Certificate.Certificate) > 0 {
		fmt.Fprintf(out, "%s %s\n", text.FgHiCyan.Sprint("Client certificate:"), mtls.IdentityOf(result.Certificate.Certificate[0]))
	}
	return nil
}
