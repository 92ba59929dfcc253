package oauth

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/giantswarm/connauth/pkg/auth"
)

const (
	// ClientAssertionType is the client_assertion_type for private_key_jwt.
	ClientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

	// DefaultAssertionLifetime is the validity window of a client assertion.
	DefaultAssertionLifetime = 5 * time.Minute

	// maxAssertionLifetime caps configured lifetimes. Assertions are single
	// use; anything longer only widens the replay window.
	maxAssertionLifetime = time.Hour
)

// AssertionBuilder builds RS256-signed client assertions (RFC 7523) for the
// private_key_jwt client authentication method.
type AssertionBuilder struct {
	lifetime time.Duration
	now      func() time.Time
	newID    func() string
}

// NewAssertionBuilder returns a builder issuing assertions valid for
// lifetime. Zero or negative values select DefaultAssertionLifetime.
func NewAssertionBuilder(lifetime time.Duration) *AssertionBuilder {
	if lifetime <= 0 {
		lifetime = DefaultAssertionLifetime
	}
	if lifetime > maxAssertionLifetime {
		lifetime = maxAssertionLifetime
	}
	return &AssertionBuilder{
		lifetime: lifetime,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Lifetime returns the validity window of built assertions.
func (b *AssertionBuilder) Lifetime() time.Duration {
	return b.lifetime
}

// Build returns a compact JWS with header {alg: RS256, typ: JWT, kid} and
// claims iss = sub = clientID, aud = tokenEndpoint, a fresh jti, iat and exp.
// kid is omitted when keyID is empty.
//
// privateKeyPEM may be PKCS#1 or PKCS#8. An empty or unparseable key yields
// a *auth.ConfigurationError that does not contain the key.
func (b *AssertionBuilder) Build(tokenEndpoint, clientID string, privateKeyPEM auth.Secret, keyID string) (string, error) {
	if privateKeyPEM.IsEmpty() {
		return "", auth.NewConfigurationError("oauth2PrivateKey", "private key is required")
	}
	if clientID == "" {
		return "", auth.NewConfigurationError("oauth2ClientId", "client id is required")
	}
	if tokenEndpoint == "" {
		return "", auth.NewConfigurationError("oauth2TokenEndpoint", "token endpoint is required")
	}

	key, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return "", err
	}

	now := b.now().UTC()
	claims := jwt.MapClaims{
		"iss": clientID,
		"sub": clientID,
		"aud": tokenEndpoint,
		"jti": b.newID(),
		"iat": now.Unix(),
		"exp": now.Add(b.lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if keyID != "" {
		token.Header["kid"] = keyID
	}

	signed, err := token.SignedString(key)
	if err != nil {
		return "", &auth.ConfigurationError{Field: "oauth2PrivateKey", Reason: "failed to sign client assertion", Err: err}
	}
	return signed, nil
}

// parsePrivateKey decodes an RSA private key. The error never wraps the
// parser's error since some parsers quote their input.
func parsePrivateKey(privateKeyPEM auth.Secret) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM.Reveal()))
	if err != nil {
		reason := "private key is not a PEM-encoded RSA key"
		if errors.Is(err, jwt.ErrNotRSAPrivateKey) {
			reason = "private key is not an RSA key"
		}
		return nil, auth.NewConfigurationError("oauth2PrivateKey", reason)
	}
	if key.N.BitLen() < 2048 {
		return nil, auth.NewConfigurationError("oauth2PrivateKey", "RSA key must be at least 2048 bits")
	}
	return key, nil
}
