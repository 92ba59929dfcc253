package connection

import (
	"github.com/giantswarm/connauth/pkg/auth"
)

// Config is a decrypted, immutable view of one connection's authentication
// settings. It is produced by a Resolver right before use and should not
// be retained.
type Config struct {
	Name     string
	Endpoint string
	Auth     Auth
}

// Auth is one of Anonymous, APIKey, Basic, ClientCredentials,
// PrivateKeyJWT, MTLS or CustomHeaders.
type Auth interface {
	Type() AuthenticationType
	isAuth()
}

// Anonymous sends no credentials.
type Anonymous struct{}

// APIKey sends a static key in a header.
type APIKey struct {
	// HeaderName defaults to Authorization when empty.
	HeaderName string
	// Prefix, when set, is joined to the key with a single space.
	Prefix string
	Key    auth.Secret
}

// Basic sends RFC 7617 Basic credentials.
type Basic struct {
	Username string
	Password auth.Secret
}

// ClientCredentials obtains a bearer token with a client secret.
type ClientCredentials struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  auth.Secret
	Scopes        string
}

// PrivateKeyJWT obtains a bearer token with a signed client assertion.
type PrivateKeyJWT struct {
	TokenEndpoint string
	ClientID      string
	// PrivateKey is a PEM-encoded RSA key (PKCS#1 or PKCS#8).
	PrivateKey auth.Secret
	KeyID      string
	Scopes     string
}

// MTLS obtains a bearer token by presenting a client certificate, and
// presents the same certificate to the remote server.
type MTLS struct {
	TokenEndpoint string
	ClientID      string
	// Certificate holds the raw PKCS#12 or PEM bytes.
	Certificate         auth.Secret
	CertificatePassword auth.Secret
	Scopes              string
}

// CustomHeaders sends a fixed, ordered list of headers.
type CustomHeaders struct {
	Headers []Header
}

func (Anonymous) Type() AuthenticationType         { return AuthAnonymous }
func (APIKey) Type() AuthenticationType            { return AuthAPIKey }
func (Basic) Type() AuthenticationType             { return AuthBasic }
func (ClientCredentials) Type() AuthenticationType { return AuthOAuth2ClientCredentials }
func (PrivateKeyJWT) Type() AuthenticationType     { return AuthOAuth2PrivateKeyJWT }
func (MTLS) Type() AuthenticationType              { return AuthOAuth2MTLS }
func (CustomHeaders) Type() AuthenticationType     { return AuthCustomHeaders }

func (Anonymous) isAuth()         {}
func (APIKey) isAuth()            {}
func (Basic) isAuth()             {}
func (ClientCredentials) isAuth() {}
func (PrivateKeyJWT) isAuth()     {}
func (MTLS) isAuth()              {}
func (CustomHeaders) isAuth()     {}

// CertificateBytes returns the raw certificate material.
func (m MTLS) CertificateBytes() []byte {
	return []byte(m.Certificate.Reveal())
}
