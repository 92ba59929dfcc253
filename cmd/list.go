package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured connections",
	Long: `List the configured connections with their authentication type and
endpoints. Secret fields are never shown.

Examples:
  connauth list
  connauth list -f ./connections.yaml`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	application, err := newApplication()
	if err != nil {
		return err
	}

	snapshot, err := application.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if snapshot.Len() == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprint("No connections configured"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"NAME", "TYPE", "ENDPOINT", "TOKEN ENDPOINT", "CLIENT ID"})
	for _, r := range snapshot.Records() {
		tokenEndpoint, clientID := "-", "-"
		if r.Type().IsOAuth2() {
			tokenEndpoint, clientID = r.OAuth2TokenEndpoint, r.OAuth2ClientID
		}
		t.AppendRow(table.Row{r.Name, string(r.Type()), r.Endpoint, tokenEndpoint, clientID})
	}
	t.Render()

	fmt.Fprintf(out, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(snapshot.Len()),
		text.FgHiBlue.Sprint("connections"))
	return nil
}
