package config

import (
	"time"

	"github.com/giantswarm/connauth/internal/connection"
)

const (
	DefaultHTTPTimeout          = 30 * time.Second
	DefaultTokenExpirySkew      = 30 * time.Second
	DefaultAssertionLifetime    = 5 * time.Minute
	DefaultTokenLifetime        = 5 * time.Minute
	DefaultCacheCleanupInterval = 5 * time.Minute

	// DefaultConnectionsFileName is resolved relative to the config directory.
	DefaultConnectionsFileName = "connections.yaml"
)

// GetDefaultConfig returns the configuration used when no file exists.
// ConnectionsFile is left empty and resolved against the config directory
// by LoadConfig.
func GetDefaultConfig() Config {
	return Config{
		LogLevel:             "info",
		HTTPTimeout:          DefaultHTTPTimeout,
		TokenExpirySkew:      DefaultTokenExpirySkew,
		AssertionLifetime:    DefaultAssertionLifetime,
		DefaultTokenLifetime: DefaultTokenLifetime,
		CacheCleanupInterval: DefaultCacheCleanupInterval,
		Protector: ProtectorConfig{
			Type: "none",
		},
		Kubernetes: KubernetesConfig{
			Namespace: "default",
			Key:       connection.DefaultSecretKey,
		},
		Metrics: MetricsConfig{
			Namespace: "connauth",
		},
	}
}
