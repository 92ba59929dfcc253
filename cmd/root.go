package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/giantswarm/connauth/internal/app"
	"github.com/giantswarm/connauth/internal/config"
	"github.com/giantswarm/connauth/pkg/auth"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfiguration indicates invalid configuration or connection settings.
	ExitCodeConfiguration = 2
	// ExitCodeTransport indicates the token endpoint or remote server rejected
	// the request or could not be reached.
	ExitCodeTransport = 3
	// ExitCodeToken indicates the token endpoint returned an unusable token.
	ExitCodeToken = 4
)

// Global flags
var (
	configDir       string
	connectionsFile string
	debugLogging    bool
	quietOutput     bool
)

// rootCmd represents the base command for connauth.
var rootCmd = &cobra.Command{
	Use:   "connauth",
	Short: "Authenticate outbound connections to remote MCP servers",
	Long: `connauth builds the credentials used to connect to remote MCP servers:
API keys, Basic credentials, custom headers and OAuth2 client credentials
tokens obtained with a client secret, a signed JWT assertion or a mutual
TLS client certificate.

Connection records are read from a YAML file or a Kubernetes Secret. Their
secret fields are stored encrypted and are never printed.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code derived from the
// error type.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "connauth version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var validation config.ValidationErrors
	if auth.IsConfigurationError(err) || errors.As(err, &validation) {
		return ExitCodeConfiguration
	}
	if auth.IsTransportError(err) {
		return ExitCodeTransport
	}
	if auth.IsTokenError(err) {
		return ExitCodeToken
	}
	return ExitCodeError
}

// newApplication bootstraps connauth from the global flags.
func newApplication() (*app.Application, error) {
	cfg := app.NewConfig(configDir, connectionsFile, debugLogging, quietOutput)
	return app.NewApplication(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default is $HOME/.config/connauth)")
	rootCmd.PersistentFlags().StringVarP(&connectionsFile, "file", "f", "", "Connections file, overriding the configured source")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietOutput, "quiet", "q", false, "Suppress log output and progress indicators")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(headersCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(protectCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(watchCmd)
}
