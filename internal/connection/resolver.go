package connection

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/giantswarm/connauth/internal/secret"
	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

// Resolver decrypts Records into Configs.
type Resolver struct {
	protector secret.Protector
}

// NewResolver creates a resolver using protector for the secret fields.
// A nil protector treats secret fields as plaintext.
func NewResolver(protector secret.Protector) *Resolver {
	if protector == nil {
		protector = secret.PlaintextProtector{}
	}
	return &Resolver{protector: protector}
}

// Resolve validates record and decrypts only the secret fields its
// authentication type uses.
func (r *Resolver) Resolve(ctx context.Context, record Record) (*Config, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	cfg := &Config{Name: record.Name, Endpoint: record.Endpoint}

	switch record.Type() {
	case AuthAnonymous:
		cfg.Auth = Anonymous{}

	case AuthAPIKey:
		key, err := r.unprotect(ctx, "apiKey", record.APIKey)
		if err != nil {
			return nil, err
		}
		cfg.Auth = APIKey{HeaderName: record.APIKeyHeaderName, Prefix: record.APIKeyPrefix, Key: key}

	case AuthBasic:
		password, err := r.unprotect(ctx, "basicPassword", record.BasicPassword)
		if err != nil {
			return nil, err
		}
		cfg.Auth = Basic{Username: record.BasicUsername, Password: password}

	case AuthOAuth2ClientCredentials:
		clientSecret, err := r.unprotect(ctx, "oauth2ClientSecret", record.OAuth2ClientSecret)
		if err != nil {
			return nil, err
		}
		cfg.Auth = ClientCredentials{
			TokenEndpoint: record.OAuth2TokenEndpoint,
			ClientID:      record.OAuth2ClientID,
			ClientSecret:  clientSecret,
			Scopes:        record.OAuth2Scopes,
		}

	case AuthOAuth2PrivateKeyJWT:
		privateKey, err := r.unprotect(ctx, "oauth2PrivateKey", record.OAuth2PrivateKey)
		if err != nil {
			return nil, err
		}
		cfg.Auth = PrivateKeyJWT{
			TokenEndpoint: record.OAuth2TokenEndpoint,
			ClientID:      record.OAuth2ClientID,
			PrivateKey:    privateKey,
			KeyID:         record.OAuth2KeyID,
			Scopes:        record.OAuth2Scopes,
		}

	case AuthOAuth2MTLS:
		encoded, err := r.unprotect(ctx, "oauth2ClientCertificate", record.OAuth2ClientCertificate)
		if err != nil {
			return nil, err
		}
		certificate, err := decodeCertificate(encoded)
		if err != nil {
			return nil, err
		}
		password, err := r.unprotect(ctx, "oauth2ClientCertificatePassword", record.OAuth2ClientCertificatePassword)
		if err != nil {
			return nil, err
		}
		cfg.Auth = MTLS{
			TokenEndpoint:       record.OAuth2TokenEndpoint,
			ClientID:            record.OAuth2ClientID,
			Certificate:         certificate,
			CertificatePassword: password,
			Scopes:              record.OAuth2Scopes,
		}

	case AuthCustomHeaders:
		headers := make([]Header, len(record.AdditionalHeaders))
		copy(headers, record.AdditionalHeaders)
		cfg.Auth = CustomHeaders{Headers: headers}
	}

	logging.Debug("Connection", "Resolved connection %s (%s)", record.Name, record.Type())
	return cfg, nil
}

func (r *Resolver) unprotect(ctx context.Context, field, ciphertext string) (auth.Secret, error) {
	plaintext, err := r.protector.Unprotect(ctx, ciphertext)
	if err != nil {
		return "", &auth.ConfigurationError{Field: field, Reason: "cannot decrypt stored secret", Err: err}
	}
	return auth.Secret(plaintext), nil
}

// decodeCertificate turns the stored base64 text back into certificate
// bytes. PEM text stored without base64 is accepted as-is.
func decodeCertificate(encoded auth.Secret) (auth.Secret, error) {
	text := strings.TrimSpace(encoded.Reveal())
	if text == "" {
		return "", nil
	}
	if strings.HasPrefix(text, "-----BEGIN ") {
		return auth.Secret(text), nil
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return "", auth.NewConfigurationError("oauth2ClientCertificate", "stored certificate is not valid base64")
	}
	return auth.Secret(raw), nil
}
