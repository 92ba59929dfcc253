package secret

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/giantswarm/connauth/pkg/logging"
)

// aeadPrefix marks ciphertext produced by AEADProtector.
const aeadPrefix = "aead:v1:"

// AEADProtector encrypts with XChaCha20-Poly1305 under a local 256-bit key.
// Ciphertext is "aead:v1:" followed by base64 of nonce||sealed box.
type AEADProtector struct {
	key []byte
}

// NewAEADProtector creates a protector from a 32-byte key.
func NewAEADProtector(key []byte) (*AEADProtector, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("aead key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &AEADProtector{key: k}, nil
}

// LoadAEADProtector reads a key file holding 32 raw bytes, or 64 hex or
// base64 characters of key material (surrounding whitespace ignored).
func LoadAEADProtector(path string) (*AEADProtector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read aead key file: %w", err)
	}

	if info, err := os.Stat(path); err == nil && info.Mode().Perm()&0o077 != 0 {
		logging.Warn("Secret", "Key file %s is accessible by other users (mode %s)", path, info.Mode().Perm())
	}

	key, err := decodeKey(data)
	if err != nil {
		return nil, fmt.Errorf("invalid aead key file %s: %w", path, err)
	}
	return NewAEADProtector(key)
}

func decodeKey(data []byte) ([]byte, error) {
	if len(data) == chacha20poly1305.KeySize {
		return data, nil
	}
	text := strings.TrimSpace(string(data))
	if k, err := hex.DecodeString(text); err == nil && len(k) == chacha20poly1305.KeySize {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(text); err == nil && len(k) == chacha20poly1305.KeySize {
		return k, nil
	}
	return nil, fmt.Errorf("expected %d bytes of key material", chacha20poly1305.KeySize)
}

// GenerateKey returns a fresh random key suitable for NewAEADProtector.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// Protect encrypts plaintext. Empty plaintext yields empty ciphertext.
func (p *AEADProtector) Protect(_ context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := chacha20poly1305.NewX(p.key)
	if err != nil {
		return "", fmt.Errorf("aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("aead: failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return aeadPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Unprotect decrypts ciphertext produced by Protect.
func (p *AEADProtector) Unprotect(_ context.Context, ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if !strings.HasPrefix(ciphertext, aeadPrefix) {
		return "", &DecryptError{Backend: "aead", Reason: "unrecognized ciphertext format"}
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(ciphertext, aeadPrefix))
	if err != nil {
		return "", &DecryptError{Backend: "aead", Reason: "ciphertext is not valid base64"}
	}

	aead, err := chacha20poly1305.NewX(p.key)
	if err != nil {
		return "", fmt.Errorf("aead: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", &DecryptError{Backend: "aead", Reason: "ciphertext is truncated"}
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", &DecryptError{Backend: "aead", Reason: "authentication failed (wrong key or tampered ciphertext)"}
	}
	return string(plaintext), nil
}
