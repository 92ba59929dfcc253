package secret

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	vaultapi "github.com/hashicorp/vault/api"

	"github.com/giantswarm/connauth/pkg/logging"
)

// DefaultTransitMount is the default mount path of the transit engine.
const DefaultTransitMount = "transit"

// VaultTransitConfig configures a VaultTransitProtector.
type VaultTransitConfig struct {
	// Address of the Vault server. Empty uses VAULT_ADDR.
	Address string
	// Mount is the transit engine mount path.
	Mount string
	// Key is the transit key name.
	Key string
	// TokenEnv names the environment variable holding the Vault token.
	// Empty uses VAULT_TOKEN.
	TokenEnv string
}

// VaultTransitProtector encrypts with HashiCorp Vault's transit engine.
// Ciphertext is Vault's own "vault:vN:..." format.
type VaultTransitProtector struct {
	client *vaultapi.Client
	mount  string
	key    string
}

// NewVaultTransitProtector creates a Vault client for cfg.
func NewVaultTransitProtector(cfg VaultTransitConfig) (*VaultTransitProtector, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("vault transit key name is required")
	}
	if cfg.Mount == "" {
		cfg.Mount = DefaultTransitMount
	}

	apiCfg := vaultapi.DefaultConfig()
	if apiCfg.Error != nil {
		return nil, fmt.Errorf("failed to read vault environment: %w", apiCfg.Error)
	}
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}

	client, err := vaultapi.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	tokenEnv := cfg.TokenEnv
	if tokenEnv == "" {
		tokenEnv = vaultapi.EnvVaultToken
	}
	if token := os.Getenv(tokenEnv); token != "" {
		client.SetToken(token)
	}

	return NewVaultTransitProtectorWithClient(client, cfg.Mount, cfg.Key), nil
}

// NewVaultTransitProtectorWithClient uses an existing Vault client.
func NewVaultTransitProtectorWithClient(client *vaultapi.Client, mount, key string) *VaultTransitProtector {
	if mount == "" {
		mount = DefaultTransitMount
	}
	return &VaultTransitProtector{
		client: client,
		mount:  strings.Trim(mount, "/"),
		key:    key,
	}
}

// Protect encrypts plaintext. Empty plaintext yields empty ciphertext.
func (p *VaultTransitProtector) Protect(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	path := fmt.Sprintf("%s/encrypt/%s", p.mount, p.key)
	secret, err := p.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"plaintext": base64.StdEncoding.EncodeToString([]byte(plaintext)),
	})
	if err != nil {
		return "", fmt.Errorf("vault transit encrypt failed: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault transit encrypt returned no data")
	}
	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok || ciphertext == "" {
		return "", fmt.Errorf("vault transit encrypt returned no ciphertext")
	}

	logging.Debug("Secret", "Encrypted value with transit key %s", p.key)
	return ciphertext, nil
}

// Unprotect decrypts ciphertext. Empty ciphertext yields empty plaintext
// without a call to Vault.
func (p *VaultTransitProtector) Unprotect(ctx context.Context, ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if !strings.HasPrefix(ciphertext, "vault:") {
		return "", &DecryptError{Backend: "vault", Reason: "unrecognized ciphertext format"}
	}

	path := fmt.Sprintf("%s/decrypt/%s", p.mount, p.key)
	secret, err := p.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": ciphertext,
	})
	if err != nil {
		return "", &DecryptError{Backend: "vault", Reason: "transit decrypt failed", Err: err}
	}
	if secret == nil || secret.Data == nil {
		return "", &DecryptError{Backend: "vault", Reason: "transit decrypt returned no data"}
	}
	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return "", &DecryptError{Backend: "vault", Reason: "transit decrypt returned no plaintext"}
	}
	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", &DecryptError{Backend: "vault", Reason: "transit plaintext is not valid base64"}
	}
	return string(plaintext), nil
}
