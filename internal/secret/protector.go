package secret

import (
	"context"
	"fmt"
	"strings"
)

// Protector encrypts and decrypts single credential values.
type Protector interface {
	// Protect returns the ciphertext for plaintext.
	Protect(ctx context.Context, plaintext string) (string, error)
	// Unprotect returns the plaintext for ciphertext. Empty input yields
	// empty output.
	Unprotect(ctx context.Context, ciphertext string) (string, error)
}

// Type names a Protector implementation in configuration.
type Type string

const (
	TypeAEAD  Type = "aead"
	TypeVault Type = "vault"
	TypeNone  Type = "none"
)

// ParseType matches s case-insensitively. An empty value selects TypeNone.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeAEAD:
		return TypeAEAD, nil
	case TypeVault:
		return TypeVault, nil
	case TypeNone, "":
		return TypeNone, nil
	}
	return "", fmt.Errorf("unknown protector type %q", s)
}

// PlaintextProtector stores values unencrypted. Records protected with it
// must be kept somewhere that is itself access controlled.
type PlaintextProtector struct{}

// Protect returns plaintext unchanged.
func (PlaintextProtector) Protect(_ context.Context, plaintext string) (string, error) {
	return plaintext, nil
}

// Unprotect returns ciphertext unchanged.
func (PlaintextProtector) Unprotect(_ context.Context, ciphertext string) (string, error) {
	return ciphertext, nil
}

// DecryptError reports a ciphertext that could not be decrypted. It never
// carries the ciphertext or any partial plaintext.
type DecryptError struct {
	Backend string
	Reason  string
	Err     error
}

// Error implements the error interface.
func (e *DecryptError) Error() string {
	msg := fmt.Sprintf("%s: cannot decrypt secret: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *DecryptError) Unwrap() error {
	return e.Err
}

// Options holds the settings of every Protector implementation; New uses
// the ones matching the selected type.
type Options struct {
	// KeyFile is the AEAD key file.
	KeyFile string
	// Vault configures the transit protector.
	Vault VaultTransitConfig
}

// New creates the Protector of type t.
func New(t Type, opts Options) (Protector, error) {
	switch t {
	case TypeAEAD:
		if opts.KeyFile == "" {
			return nil, fmt.Errorf("protector type %q requires a key file", t)
		}
		return LoadAEADProtector(opts.KeyFile)
	case TypeVault:
		return NewVaultTransitProtector(opts.Vault)
	case TypeNone, "":
		return PlaintextProtector{}, nil
	}
	return nil, fmt.Errorf("unknown protector type %q", t)
}
