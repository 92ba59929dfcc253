package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ConfigurationError
		expected string
	}{
		{
			name:     "field and reason",
			err:      NewConfigurationError("oauth2ClientId", "is required"),
			expected: "invalid configuration for oauth2ClientId: is required",
		},
		{
			name:     "with cause",
			err:      &ConfigurationError{Field: "oauth2PrivateKey", Reason: "cannot be parsed", Err: errors.New("asn1: structure error")},
			expected: "invalid configuration for oauth2PrivateKey: cannot be parsed: asn1: structure error",
		},
		{
			name:     "empty",
			err:      &ConfigurationError{},
			expected: "invalid configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTransportError(t *testing.T) {
	tests := []struct {
		name     string
		err      *TransportError
		expected string
	}{
		{
			name:     "status with oauth error",
			err:      &TransportError{Endpoint: "https://idp/token", StatusCode: 401, OAuthError: "invalid_client"},
			expected: "token endpoint https://idp/token returned status 401 (invalid_client)",
		},
		{
			name:     "status only",
			err:      &TransportError{Endpoint: "https://idp/token", StatusCode: 503},
			expected: "token endpoint https://idp/token returned status 503",
		},
		{
			name:     "network failure",
			err:      &TransportError{Endpoint: "https://idp/token", Err: errors.New("connection refused")},
			expected: "token request to https://idp/token failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestTokenError(t *testing.T) {
	err := &TokenError{Endpoint: "https://idp/token", Reason: "access_token is empty"}
	assert.Equal(t, "invalid token response from https://idp/token: access_token is empty", err.Error())
}

func TestPredicatesUnwrap(t *testing.T) {
	cfgErr := fmt.Errorf("building headers: %w", NewConfigurationError("endpoint", "is required"))
	transportErr := fmt.Errorf("acquire: %w", &TransportError{Endpoint: "e", StatusCode: 401})
	tokenErr := fmt.Errorf("acquire: %w", &TokenError{Endpoint: "e", Reason: "empty"})

	assert.True(t, IsConfigurationError(cfgErr))
	assert.False(t, IsConfigurationError(transportErr))
	assert.True(t, IsTransportError(transportErr))
	assert.False(t, IsTransportError(tokenErr))
	assert.True(t, IsTokenError(tokenErr))
	assert.False(t, IsTokenError(nil))
}

func TestTransportErrorPreservesContextCancellation(t *testing.T) {
	err := &TransportError{Endpoint: "e", Err: context.Canceled}
	assert.True(t, errors.Is(err, context.Canceled))
}
