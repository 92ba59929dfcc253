package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/internal/export"
)

var (
	exportOutput string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export connections with secrets removed",
	Long: `Write the configured connections as a deployment artifact. Every secret
field is cleared; all other settings are kept.

Examples:
  connauth export
  connauth export --format json -o connections.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	exportCmd.Flags().StringVar(&exportFormat, "format", "yaml", "Artifact format (yaml or json)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	application, err := newApplication()
	if err != nil {
		return err
	}
	snapshot, err := application.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	return export.Export(w, snapshot.Records(), format)
}
