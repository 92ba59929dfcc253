package app

import (
	"io"

	"github.com/giantswarm/connauth/internal/config"
)

// Config holds the command-line settings that shape bootstrap.
type Config struct {
	// ConfigPath is the directory holding config.yaml. Empty uses
	// ~/.config/connauth.
	ConfigPath string

	// ConnectionsFile overrides the connections file from config.yaml.
	ConnectionsFile string

	// Debug forces debug-level logging.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// LogOutput receives log lines; nil means stderr.
	LogOutput io.Writer

	// Loaded is populated by NewApplication.
	Loaded *config.Config
}

// NewConfig creates a bootstrap configuration.
func NewConfig(configPath, connectionsFile string, debug, silent bool) *Config {
	return &Config{
		ConfigPath:      configPath,
		ConnectionsFile: connectionsFile,
		Debug:           debug,
		Silent:          silent,
	}
}
