package headers

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"strings"

	"golang.org/x/oauth2"

	"github.com/giantswarm/connauth/internal/connection"
	"github.com/giantswarm/connauth/internal/mtls"
	"github.com/giantswarm/connauth/internal/oauth"
	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

// DefaultAPIKeyHeader is used when an ApiKey connection names no header.
const DefaultAPIKeyHeader = "Authorization"

// MetricsRecorder receives one outcome per Build call.
type MetricsRecorder interface {
	RecordHeaderBuild(authType, outcome string)
}

// Result is what the transport needs to authenticate one connection.
type Result struct {
	// Headers is a fresh map owned by the caller.
	Headers map[string]string
	// Certificate is set for OAuth2Mtls connections; the remote server
	// must be presented the same certificate as the token endpoint.
	Certificate *tls.Certificate
}

// Builder produces transport headers for connections.
type Builder struct {
	acquirer *oauth.Acquirer
	resolver *connection.Resolver
	metrics  MetricsRecorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithResolver sets the resolver used by BuildFromRecord. The default
// treats stored secrets as plaintext.
func WithResolver(resolver *connection.Resolver) Option {
	return func(b *Builder) {
		if resolver != nil {
			b.resolver = resolver
		}
	}
}

// WithMetrics records build outcomes.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(b *Builder) {
		b.metrics = metrics
	}
}

// NewBuilder creates a Builder acquiring OAuth2 tokens with acquirer. A nil
// acquirer gets a private one with default settings.
func NewBuilder(acquirer *oauth.Acquirer, opts ...Option) *Builder {
	if acquirer == nil {
		acquirer = oauth.NewAcquirer()
	}
	b := &Builder{
		acquirer: acquirer,
		resolver: connection.NewResolver(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Acquirer returns the token acquirer backing the OAuth2 schemes.
func (b *Builder) Acquirer() *oauth.Acquirer {
	return b.acquirer
}

// Build returns the headers for cfg.
func (b *Builder) Build(ctx context.Context, cfg *connection.Config) (*Result, error) {
	if cfg == nil || cfg.Auth == nil {
		return nil, auth.NewConfigurationError("authenticationType", "connection has no authentication settings")
	}

	result, err := b.build(ctx, cfg.Auth)
	authType := string(cfg.Auth.Type())
	if err != nil {
		b.record(authType, "error")
		logging.Warn("Headers", "Failed to build headers for connection %s (%s): %v", cfg.Name, authType, err)
		return nil, err
	}

	b.record(authType, "success")
	logging.Debug("Headers", "Built %d headers for connection %s (%s), client certificate: %t",
		len(result.Headers), cfg.Name, authType, result.Certificate != nil)
	return result, nil
}

// BuildFromRecord resolves record and builds its headers. The decrypted
// configuration does not outlive the call.
func (b *Builder) BuildFromRecord(ctx context.Context, record connection.Record) (*Result, error) {
	cfg, err := b.resolver.Resolve(ctx, record)
	if err != nil {
		b.record(string(record.Type()), "error")
		return nil, err
	}
	return b.Build(ctx, cfg)
}

func (b *Builder) build(ctx context.Context, a connection.Auth) (*Result, error) {
	switch a := a.(type) {
	case connection.Anonymous:
		return &Result{Headers: map[string]string{}}, nil

	case connection.APIKey:
		return apiKeyHeaders(a)

	case connection.Basic:
		return basicHeaders(a)

	case connection.CustomHeaders:
		headers := make(map[string]string, len(a.Headers))
		for _, h := range a.Headers {
			headers[h.Name] = h.Value
		}
		return &Result{Headers: headers}, nil

	case connection.ClientCredentials, connection.PrivateKeyJWT:
		token, err := b.Acquire(ctx, a)
		if err != nil {
			return nil, err
		}
		return &Result{Headers: bearer(token)}, nil

	case connection.MTLS:
		token, err := b.Acquire(ctx, a)
		if err != nil {
			return nil, err
		}
		credential, err := mtls.Load(a.CertificateBytes(), a.CertificatePassword.Reveal())
		if err != nil {
			return nil, err
		}
		certificate := credential.Certificate()
		return &Result{Headers: bearer(token), Certificate: &certificate}, nil

	default:
		return nil, auth.NewConfigurationError("authenticationType", "unsupported authentication type "+string(a.Type()))
	}
}

// Acquire runs the OAuth2 flow matching a. Non-OAuth2 settings are a
// ConfigurationError.
func (b *Builder) Acquire(ctx context.Context, a connection.Auth) (*oauth.Token, error) {
	switch a := a.(type) {
	case connection.ClientCredentials:
		return b.acquirer.AcquireClientCredentialsToken(ctx, a.TokenEndpoint, a.ClientID, a.ClientSecret, a.Scopes)
	case connection.PrivateKeyJWT:
		return b.acquirer.AcquireWithPrivateKeyJwt(ctx, a.TokenEndpoint, a.ClientID, a.PrivateKey, a.KeyID, a.Scopes)
	case connection.MTLS:
		return b.acquirer.AcquireWithMtls(ctx, a.TokenEndpoint, a.ClientID, a.CertificateBytes(), a.CertificatePassword, a.Scopes)
	case nil:
		return nil, auth.NewConfigurationError("authenticationType", "connection has no authentication settings")
	default:
		return nil, auth.NewConfigurationError("authenticationType", string(a.Type())+" does not use OAuth2 tokens")
	}
}

// TokenSource returns an oauth2.TokenSource bound to the OAuth2 flow of
// cfg, for transports that attach the bearer token per request.
func (b *Builder) TokenSource(ctx context.Context, cfg *connection.Config) (oauth2.TokenSource, error) {
	if cfg == nil || cfg.Auth == nil || !cfg.Auth.Type().IsOAuth2() {
		return nil, auth.NewConfigurationError("authenticationType", "connection does not use OAuth2 tokens")
	}
	a := cfg.Auth
	return b.acquirer.TokenSource(ctx, func(ctx context.Context) (*oauth.Token, error) {
		return b.Acquire(ctx, a)
	}), nil
}

func apiKeyHeaders(a connection.APIKey) (*Result, error) {
	if a.Key.IsEmpty() {
		return nil, auth.NewConfigurationError("apiKey", "api key is required")
	}
	name := strings.TrimSpace(a.HeaderName)
	if name == "" {
		name = DefaultAPIKeyHeader
	}
	value := a.Key.Reveal()
	if a.Prefix != "" {
		value = a.Prefix + " " + value
	}
	return &Result{Headers: map[string]string{name: value}}, nil
}

func basicHeaders(a connection.Basic) (*Result, error) {
	if a.Username == "" {
		return nil, auth.NewConfigurationError("basicUsername", "username is required for Basic authentication")
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password.Reveal()))
	return &Result{Headers: map[string]string{"Authorization": "Basic " + credentials}}, nil
}

func bearer(token *oauth.Token) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token.AccessToken.Reveal()}
}

func (b *Builder) record(authType, outcome string) {
	if b.metrics != nil {
		b.metrics.RecordHeaderBuild(authType, outcome)
	}
}
