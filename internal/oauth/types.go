package oauth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/connauth/pkg/auth"
)

const (
	// DefaultExpirySkew is subtracted from a token's expiry when deciding
	// whether a cached token can still be used. It accounts for clock skew
	// and the time the token spends in flight.
	DefaultExpirySkew = 30 * time.Second

	// DefaultTokenLifetime is assumed when a token response carries no (or a
	// zero) expires_in.
	DefaultTokenLifetime = 5 * time.Minute

	// MaxTokenLifetime caps the expires_in a token endpoint can claim.
	MaxTokenLifetime = 24 * time.Hour

	// DefaultHTTPTimeout bounds every token endpoint request.
	DefaultHTTPTimeout = 30 * time.Second
)

// Flow identifies how the client authenticates to the token endpoint.
type Flow string

const (
	FlowClientSecret  Flow = "client_secret"
	FlowPrivateKeyJWT Flow = "private_key_jwt"
	FlowMTLS          Flow = "tls_client_auth"
)

// Token is an access token obtained from a token endpoint.
type Token struct {
	// AccessToken is the bearer token. It formats as [REDACTED].
	AccessToken auth.Secret

	// TokenType as reported by the endpoint, typically "Bearer".
	TokenType string

	// ExpiresAt is the absolute expiry, in UTC.
	ExpiresAt time.Time

	// Scope is the granted scope, if the endpoint reported one.
	Scope string
}

// IsExpired reports whether the token is expired at now or will expire
// within skew.
func (t *Token) IsExpired(now time.Time, skew time.Duration) bool {
	if t == nil || t.AccessToken.IsEmpty() {
		return true
	}
	return !now.Add(skew).Before(t.ExpiresAt)
}

// ToOAuth2Token converts the token for use with golang.org/x/oauth2.
// The token type is always reported as Bearer, matching the Authorization
// header the header builder produces.
func (t *Token) ToOAuth2Token() *oauth2.Token {
	if t == nil {
		return nil
	}
	return &oauth2.Token{
		AccessToken: t.AccessToken.Reveal(),
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}
}

// CacheKey identifies a cached token. Two acquisitions share a token only if
// every field matches.
type CacheKey struct {
	TokenEndpoint string
	ClientID      string
	Scopes        string
	Flow          Flow

	// Discriminator separates credentials of the same client: the key ID
	// (or key fingerprint) for private_key_jwt, the certificate identity for
	// mTLS and a fingerprint of the secret for client_secret. It never holds
	// secret material itself.
	Discriminator string
}

// String renders the key for use as a single-flight group key.
func (k CacheKey) String() string {
	return strings.Join([]string{k.TokenEndpoint, k.ClientID, k.Scopes, string(k.Flow), k.Discriminator}, "\x00")
}

// credentialFingerprint returns a hex SHA-256 digest of credential material
// so that it can separate cache entries without being stored itself.
func credentialFingerprint(flow Flow, material string) string {
	sum := sha256.Sum256([]byte(string(flow) + "\x00" + material))
	return hex.EncodeToString(sum[:])
}

// normalizeScopes collapses whitespace in a space-delimited scope list.
// Order is kept: "a b" and "b a" are distinct keys.
func normalizeScopes(scopes string) string {
	return strings.Join(strings.Fields(scopes), " ")
}
