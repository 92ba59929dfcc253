package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/internal/mcpclient"
	"github.com/giantswarm/connauth/pkg/strings"
)

var connectCmd = &cobra.Command{
	Use:   "connect NAME",
	Short: "Open an authenticated MCP session and list its tools",
	Long: `Build the credentials for a connection, open a streamable HTTP MCP
session with them and list the tools the server offers.

Examples:
  connauth connect github`,
	Args: cobra.ExactArgs(1),
	RunE: runConnect,
}

func runConnect(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	cfg, err := application.Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	var s *spinner.Spinner
	if !quietOutput {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = fmt.Sprintf(" Connecting to %s...", cfg.Endpoint)
		s.Start()
	}

	client, err := mcpclient.Dial(cmd.Context(), application.Services().Builder, cfg)
	if s != nil {
		s.Stop()
	}
	if err != nil {
		return err
	}
	defer client.Close()

	tools, err := client.ListTools(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	info := client.ServerInfo()
	fmt.Fprintf(out, "%s Connected to %s (%s %s)\n", text.FgGreen.Sprint("✓"), cfg.Name, info.Name, info.Version)
	if len(tools) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("No tools offered"))
		return nil
	}
	for _, tool := range tools {
		if tool.Description == "" {
			fmt.Fprintf(out, "  - %s\n", tool.Name)
			continue
		}
		fmt.Fprintf(out, "  - %s  %s\n", tool.Name, text.FgHiBlack.Sprint(strings.Summary(tool.Description, strings.SummaryWidth)))
	}
	return nil
}
