package auth

import (
	"errors"
	"fmt"
)

// ConfigurationError reports missing or invalid connection settings.
// Field names the offending setting, never its value.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	msg := "invalid configuration"
	if e.Field != "" {
		msg += " for " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed exchange with a token endpoint: either a
// network failure (Err set, StatusCode zero) or a non-2xx response.
type TransportError struct {
	Endpoint   string
	StatusCode int
	// OAuthError is the RFC 6749 "error" code from the response body, if the
	// endpoint sent one. The error_description is deliberately dropped since
	// some servers echo request parameters in it.
	OAuthError string
	Err        error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.OAuthError != "":
		return fmt.Sprintf("token endpoint %s returned status %d (%s)", e.Endpoint, e.StatusCode, e.OAuthError)
	case e.StatusCode != 0:
		return fmt.Sprintf("token endpoint %s returned status %d", e.Endpoint, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("token request to %s failed: %v", e.Endpoint, e.Err)
	default:
		return fmt.Sprintf("token request to %s failed", e.Endpoint)
	}
}

// Unwrap returns the underlying network error, if any.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// TokenError reports a successful HTTP exchange that did not yield a usable
// access token.
type TokenError struct {
	Endpoint string
	Reason   string
	Err      error
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	msg := fmt.Sprintf("invalid token response from %s: %s", e.Endpoint, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *TokenError) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTransportError reports whether err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsTokenError reports whether err is or wraps a TokenError.
func IsTokenError(err error) bool {
	var target *TokenError
	return errors.As(err, &target)
}
