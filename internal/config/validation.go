package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/giantswarm/connauth/internal/secret"
	"github.com/giantswarm/connauth/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// Validate checks the configuration. All problems are returned as
// ValidationErrors.
func (c Config) Validate() error {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs.Add("logLevel", "must be one of: debug, info, warn, error", c.LogLevel)
	}

	validatePositive(&errs, "httpTimeout", c.HTTPTimeout)
	validatePositive(&errs, "defaultTokenLifetime", c.DefaultTokenLifetime)
	validatePositive(&errs, "cacheCleanupInterval", c.CacheCleanupInterval)
	if c.TokenExpirySkew < 0 {
		errs.Add("tokenExpirySkew", "must not be negative", c.TokenExpirySkew.String())
	}
	if c.AssertionLifetime <= 0 || c.AssertionLifetime > time.Hour {
		errs.Add("assertionLifetime", "must be between 1s and 1h", c.AssertionLifetime.String())
	}

	t, err := secret.ParseType(c.Protector.Type)
	if err != nil {
		errs.Add("protector.type", "must be one of: aead, vault, none", c.Protector.Type)
	}
	switch t {
	case secret.TypeAEAD:
		if strings.TrimSpace(c.Protector.KeyFile) == "" {
			errs.Add("protector.keyFile", "is required for the aead protector")
		}
	case secret.TypeVault:
		if strings.TrimSpace(c.Protector.Vault.Key) == "" {
			errs.Add("protector.vault.key", "is required for the vault protector")
		}
	}

	if c.UsesKubernetes() && strings.TrimSpace(c.Kubernetes.Key) == "" {
		errs.Add("kubernetes.key", "must not be empty")
	}
	if !c.UsesKubernetes() && strings.TrimSpace(c.ConnectionsFile) == "" {
		errs.Add("connectionsFile", "is required unless kubernetes.secretName is set")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validatePositive(errs *ValidationErrors, field string, d time.Duration) {
	if d <= 0 {
		errs.Add(field, "must be a positive duration", d.String())
	}
}
