package config

import (
	"time"

	"github.com/giantswarm/connauth/internal/secret"
)

// Config is the top-level connauth configuration.
type Config struct {
	LogLevel string `yaml:"logLevel,omitempty"`

	HTTPTimeout          time.Duration `yaml:"httpTimeout,omitempty"`          // Token endpoint and MCP request timeout
	TokenExpirySkew      time.Duration `yaml:"tokenExpirySkew,omitempty"`      // Tokens this close to expiry are re-acquired
	AssertionLifetime    time.Duration `yaml:"assertionLifetime,omitempty"`    // Validity of private_key_jwt assertions
	DefaultTokenLifetime time.Duration `yaml:"defaultTokenLifetime,omitempty"` // Used when the endpoint omits expires_in
	CacheCleanupInterval time.Duration `yaml:"cacheCleanupInterval,omitempty"`

	// ConnectionsFile is the YAML file holding connection records. Ignored
	// when Kubernetes.SecretName is set.
	ConnectionsFile string `yaml:"connectionsFile,omitempty"`

	Protector  ProtectorConfig  `yaml:"protector"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ProtectorConfig selects how secret fields are encrypted at rest.
type ProtectorConfig struct {
	Type    string      `yaml:"type,omitempty"` // aead, vault or none
	KeyFile string      `yaml:"keyFile,omitempty"`
	Vault   VaultConfig `yaml:"vault"`
}

// VaultConfig configures the Vault transit protector.
type VaultConfig struct {
	Address  string `yaml:"address,omitempty"`
	Mount    string `yaml:"mount,omitempty"`
	Key      string `yaml:"key,omitempty"`
	TokenEnv string `yaml:"tokenEnv,omitempty"`
}

// KubernetesConfig points at a Secret holding connection records.
type KubernetesConfig struct {
	Namespace  string `yaml:"namespace,omitempty"`
	SecretName string `yaml:"secretName,omitempty"`
	Key        string `yaml:"key,omitempty"`
}

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	Namespace string `yaml:"namespace,omitempty"`
}

// UsesKubernetes reports whether records come from a Kubernetes Secret.
func (c Config) UsesKubernetes() bool {
	return c.Kubernetes.SecretName != ""
}

// ProtectorOptions converts the protector settings for secret.New.
func (c Config) ProtectorOptions() (secret.Type, secret.Options, error) {
	t, err := secret.ParseType(c.Protector.Type)
	if err != nil {
		return "", secret.Options{}, err
	}
	return t, secret.Options{
		KeyFile: expandHome(c.Protector.KeyFile),
		Vault: secret.VaultTransitConfig{
			Address:  c.Protector.Vault.Address,
			Mount:    c.Protector.Vault.Mount,
			Key:      c.Protector.Vault.Key,
			TokenEnv: c.Protector.Vault.TokenEnv,
		},
	}, nil
}
