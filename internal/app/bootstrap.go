package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/giantswarm/connauth/internal/config"
	"github.com/giantswarm/connauth/internal/connection"
	"github.com/giantswarm/connauth/internal/oauth"
	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

// startCacheCleanup is replaced in tests.
var startCacheCleanup = (*oauth.TokenCache).StartCleanup

// Application is a bootstrapped connauth instance.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads configuration, initializes logging and wires the
// services.
func NewApplication(cfg *Config) (*Application, error) {
	configPath := cfg.ConfigPath
	if configPath == "" {
		var err error
		configPath, err = config.GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load connauth configuration: %w", err)
	}
	if cfg.ConnectionsFile != "" {
		loaded.ConnectionsFile = cfg.ConnectionsFile
		loaded.Kubernetes.SecretName = ""
	}
	cfg.Loaded = &loaded

	level, _ := logging.ParseLevel(loaded.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	if cfg.Silent {
		logOutput = io.Discard
	}
	logging.InitForCLI(level, logOutput)

	services, err := InitializeServices(&loaded)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{config: cfg, services: services}, nil
}

// Services returns the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Settings returns the loaded configuration.
func (a *Application) Settings() config.Config {
	return *a.config.Loaded
}

// Snapshot loads the current connection records.
func (a *Application) Snapshot(ctx context.Context) (*connection.Snapshot, error) {
	return a.services.Source.Load(ctx)
}

// Record returns the record named name.
func (a *Application) Record(ctx context.Context, name string) (connection.Record, error) {
	snapshot, err := a.Snapshot(ctx)
	if err != nil {
		return connection.Record{}, err
	}
	record, ok := snapshot.Get(name)
	if !ok {
		return connection.Record{}, auth.NewConfigurationError("name", fmt.Sprintf("connection %q not found in %s", name, a.services.Source.Describe()))
	}
	return record, nil
}

// Resolve loads and decrypts the connection named name.
func (a *Application) Resolve(ctx context.Context, name string) (*connection.Config, error) {
	record, err := a.Record(ctx, name)
	if err != nil {
		return nil, err
	}
	return a.services.Resolver.Resolve(ctx, record)
}

// Watch follows the connections file and clears the token cache whenever
// it changes. It starts the token cache cleanup too. Both stop when ctx is
// done. Kubernetes sources are not watched.
func (a *Application) Watch(ctx context.Context) (*connection.Watcher, error) {
	source, ok := a.services.Source.(*connection.FileSource)
	if !ok {
		return nil, fmt.Errorf("watching is only supported for connection files")
	}

	w, err := connection.NewWatcher(ctx, source, connection.WatcherConfig{
		OnChange: func(*connection.Snapshot) { a.services.Acquirer.ClearCache() },
		Metrics:  a.services.Metrics,
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	startCacheCleanup(a.services.Acquirer.Cache(), ctx, a.config.Loaded.CacheCleanupInterval)
	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return w, nil
}
