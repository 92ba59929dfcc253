package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/giantswarm/connauth/internal/mtls"
	"github.com/giantswarm/connauth/pkg/auth"
	"github.com/giantswarm/connauth/pkg/logging"
)

// maxResponseSize caps how much of a token response is read.
const maxResponseSize = 1 << 20

// Outcomes reported to the MetricsRecorder.
const (
	OutcomeSuccess            = "success"
	OutcomeConfigurationError = "configuration_error"
	OutcomeTransportError     = "transport_error"
	OutcomeTokenError         = "token_error"
	OutcomeCanceled           = "canceled"
)

// MetricsRecorder receives token acquisition events.
type MetricsRecorder interface {
	// RecordCacheHit is called when a token is served from the cache.
	RecordCacheHit(flow string)
	// RecordAcquisition is called once per token endpoint request.
	RecordAcquisition(flow, outcome string, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) RecordCacheHit(string) {}
func (noopMetrics) RecordAcquisition(string, string, time.Duration) {}

// Acquirer obtains access tokens with the client_credentials grant using
// client_secret, private_key_jwt or mTLS client authentication. All flows
// share one TokenCache.
type Acquirer struct {
	httpClient      *http.Client
	cache           *TokenCache
	assertions      *AssertionBuilder
	metrics         MetricsRecorder
	defaultLifetime time.Duration
	now             func() time.Time
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithHTTPClient sets the HTTP client used for token requests. For mTLS the
// client's transport and timeout are cloned and the certificate is added;
// that needs an *http.Transport, any other RoundTripper is dropped.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(a *Acquirer) {
		if httpClient != nil {
			a.httpClient = httpClient
		}
	}
}

// WithCache sets the token cache. Acquirers sharing a cache share tokens.
func WithCache(cache *TokenCache) Option {
	return func(a *Acquirer) {
		if cache != nil {
			a.cache = cache
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(a *Acquirer) {
		if metrics != nil {
			a.metrics = metrics
		}
	}
}

// WithAssertionLifetime sets the validity window of private_key_jwt
// assertions.
func WithAssertionLifetime(lifetime time.Duration) Option {
	return func(a *Acquirer) {
		a.assertions = NewAssertionBuilder(lifetime)
	}
}

// WithDefaultTokenLifetime sets the lifetime assumed for tokens whose
// response carries no expires_in.
func WithDefaultTokenLifetime(lifetime time.Duration) Option {
	return func(a *Acquirer) {
		if lifetime > 0 {
			a.defaultLifetime = lifetime
		}
	}
}

// WithClock replaces time.Now for token expiry and assertion timestamps.
// It does not affect a cache supplied with WithCache.
func WithClock(now func() time.Time) Option {
	return func(a *Acquirer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAcquirer creates an Acquirer.
func NewAcquirer(opts ...Option) *Acquirer {
	a := &Acquirer{
		httpClient:      &http.Client{Timeout: DefaultHTTPTimeout},
		assertions:      NewAssertionBuilder(DefaultAssertionLifetime),
		metrics:         noopMetrics{},
		defaultLifetime: DefaultTokenLifetime,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache = NewTokenCache(WithCacheClock(a.now))
	}
	a.assertions.now = a.now
	return a
}

// Cache returns the token cache.
func (a *Acquirer) Cache() *TokenCache {
	return a.cache
}

// ClearCache drops every cached token.
func (a *Acquirer) ClearCache() {
	a.cache.Clear()
}

// Invalidate drops one cached token, for example after a remote server
// rejected it.
func (a *Acquirer) Invalidate(key CacheKey) {
	a.cache.Delete(key)
}

// ClientCredentialsKey returns the cache key used by
// AcquireClientCredentialsToken.
func ClientCredentialsKey(endpoint, clientID string, clientSecret auth.Secret, scopes string) CacheKey {
	return CacheKey{
		TokenEndpoint: endpoint,
		ClientID:      clientID,
		Scopes:        normalizeScopes(scopes),
		Flow:          FlowClientSecret,
		Discriminator: credentialFingerprint(FlowClientSecret, clientSecret.Reveal()),
	}
}

// PrivateKeyJWTKey returns the cache key used by AcquireWithPrivateKeyJwt.
// The key ID separates entries; without one the key itself is fingerprinted.
func PrivateKeyJWTKey(endpoint, clientID string, privateKeyPEM auth.Secret, keyID, scopes string) CacheKey {
	discriminator := "kid:" + keyID
	if keyID == "" {
		discriminator = credentialFingerprint(FlowPrivateKeyJWT, privateKeyPEM.Reveal())
	}
	return CacheKey{
		TokenEndpoint: endpoint,
		ClientID:      clientID,
		Scopes:        normalizeScopes(scopes),
		Flow:          FlowPrivateKeyJWT,
		Discriminator: discriminator,
	}
}

// MTLSKey returns the cache key used by AcquireWithMtls.
func MTLSKey(endpoint, clientID string, certificate []byte, scopes string) CacheKey {
	return CacheKey{
		TokenEndpoint: endpoint,
		ClientID:      clientID,
		Scopes:        normalizeScopes(scopes),
		Flow:          FlowMTLS,
		Discriminator: mtls.IdentityOf(certificate),
	}
}

// AcquireClientCredentialsToken obtains a token by posting the client
// secret. The scope parameter is sent only when scopes is non-empty.
func (a *Acquirer) AcquireClientCredentialsToken(ctx context.Context, endpoint, clientID string, clientSecret auth.Secret, scopes string) (*Token, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, auth.NewConfigurationError("oauth2ClientId", "client id is required")
	}
	if clientSecret.IsEmpty() {
		return nil, auth.NewConfigurationError("oauth2ClientSecret", "client secret is required")
	}

	key := ClientCredentialsKey(endpoint, clientID, clientSecret, scopes)
	return a.acquire(ctx, key, func(ctx context.Context) (*Token, error) {
		form := baseForm(clientID, key.Scopes)
		form.Set("client_secret", clientSecret.Reveal())
		return a.doTokenRequest(ctx, a.httpClient, endpoint, form)
	})
}

// AcquireWithPrivateKeyJwt obtains a token by posting a client assertion
// signed with privateKeyPEM. A fresh assertion is built per request.
func (a *Acquirer) AcquireWithPrivateKeyJwt(ctx context.Context, endpoint, clientID string, privateKeyPEM auth.Secret, keyID, scopes string) (*Token, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, auth.NewConfigurationError("oauth2ClientId", "client id is required")
	}
	if privateKeyPEM.IsEmpty() {
		return nil, auth.NewConfigurationError("oauth2PrivateKey", "private key is required")
	}

	key := PrivateKeyJWTKey(endpoint, clientID, privateKeyPEM, keyID, scopes)
	return a.acquire(ctx, key, func(ctx context.Context) (*Token, error) {
		assertion, err := a.assertions.Build(endpoint, clientID, privateKeyPEM, keyID)
		if err != nil {
			return nil, err
		}
		form := baseForm(clientID, key.Scopes)
		form.Set("client_assertion_type", ClientAssertionType)
		form.Set("client_assertion", assertion)
		return a.doTokenRequest(ctx, a.httpClient, endpoint, form)
	})
}

// AcquireWithMtls obtains a token by presenting certificate (PKCS#12 or PEM)
// during the TLS handshake. No shared secret is posted. The certificate is
// loaded per request and dropped afterwards.
func (a *Acquirer) AcquireWithMtls(ctx context.Context, endpoint, clientID string, certificate []byte, certificatePassword auth.Secret, scopes string) (*Token, error) {
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}
	if clientID == "" {
		return nil, auth.NewConfigurationError("oauth2ClientId", "client id is required")
	}
	if len(certificate) == 0 {
		return nil, auth.NewConfigurationError("oauth2ClientCertificate", "client certificate is required")
	}

	key := MTLSKey(endpoint, clientID, certificate, scopes)
	return a.acquire(ctx, key, func(ctx context.Context) (*Token, error) {
		credential, err := mtls.Load(certificate, certificatePassword.Reveal())
		if err != nil {
			return nil, err
		}
		client := credential.HTTPClient(a.httpClient)
		defer client.CloseIdleConnections()

		return a.doTokenRequest(ctx, client, endpoint, baseForm(clientID, key.Scopes))
	})
}

// acquire runs fetch through the cache and records metrics and audit events.
func (a *Acquirer) acquire(ctx context.Context, key CacheKey, fetch AcquireFunc) (*Token, error) {
	flow := string(key.Flow)

	token, cached, err := a.cache.GetOrAcquire(ctx, key, func(ctx context.Context) (*Token, error) {
		start := time.Now()
		token, err := fetch(ctx)
		outcome := outcomeOf(err)
		a.metrics.RecordAcquisition(flow, outcome, time.Since(start))

		event := logging.AuditEvent{
			Action:  "token_acquire",
			Outcome: outcome,
			Target:  key.TokenEndpoint,
			Subject: key.ClientID,
			Detail:  "flow=" + flow,
		}
		if err == nil {
			event.Detail += " expires=" + token.ExpiresAt.Format(time.RFC3339)
		}
		logging.Audit(event)
		return token, err
	})
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			logging.Debug("TokenAcquirer", "Caller gave up waiting for token from %s: %v", key.TokenEndpoint, err)
		}
		return nil, err
	}
	if cached {
		a.metrics.RecordCacheHit(flow)
		logging.Debug("TokenAcquirer", "Serving cached token for endpoint=%s client=%s flow=%s",
			key.TokenEndpoint, logging.TruncateIdentifier(key.ClientID), flow)
	}
	return token, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case auth.IsConfigurationError(err):
		return OutcomeConfigurationError
	case auth.IsTokenError(err):
		return OutcomeTokenError
	case isCanceled(err):
		return OutcomeCanceled
	default:
		return OutcomeTransportError
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func baseForm(clientID, scopes string) url.Values {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	if scopes != "" {
		form.Set("scope", scopes)
	}
	return form
}

// validateEndpoint requires an absolute http or https URL.
func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return auth.NewConfigurationError("oauth2TokenEndpoint", "token endpoint is required")
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return auth.NewConfigurationError("oauth2TokenEndpoint", "token endpoint must be an absolute URL")
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return auth.NewConfigurationError("oauth2TokenEndpoint", "token endpoint must use http or https")
	}
	return nil
}

// tokenResponse is the JSON body of a successful token response.
type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   expiresIn `json:"expires_in"`
	Scope       string    `json:"scope"`
}

// expiresIn accepts both numbers and numeric strings; some endpoints quote
// the value.
type expiresIn int64

func (e *expiresIn) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*e = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("expires_in is not a number")
	}
	switch maxSeconds := MaxTokenLifetime.Seconds(); {
	case f > maxSeconds:
		f = maxSeconds
	case f < 0:
		f = 0
	}
	*e = expiresIn(f)
	return nil
}

// errorResponse is the RFC 6749 error body.
type errorResponse struct {
	Error string `json:"error"`
}

// doTokenRequest posts form to the token endpoint and parses the response.
func (a *Acquirer) doTokenRequest(ctx context.Context, client *http.Client, endpoint string, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, auth.NewConfigurationError("oauth2TokenEndpoint", "token endpoint is not a valid URL")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &auth.TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &auth.TransportError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var oauthErr errorResponse
		_ = json.Unmarshal(body, &oauthErr)
		logging.Warn("TokenAcquirer", "Token endpoint %s returned status %d", endpoint, resp.StatusCode)
		return nil, &auth.TransportError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			OAuthError: sanitizeErrorCode(oauthErr.Error),
		}
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		// The JSON error may quote the body; report only its kind.
		return nil, &auth.TokenError{Endpoint: endpoint, Reason: "response is not valid JSON"}
	}
	if parsed.AccessToken == "" {
		return nil, &auth.TokenError{Endpoint: endpoint, Reason: "response has no access_token"}
	}

	lifetime := time.Duration(parsed.ExpiresIn) * time.Second
	if lifetime > MaxTokenLifetime {
		lifetime = MaxTokenLifetime
	}
	if lifetime <= 0 {
		lifetime = a.defaultLifetime
	}

	token := &Token{
		AccessToken: auth.Secret(parsed.AccessToken),
		TokenType:   parsed.TokenType,
		ExpiresAt:   a.now().Add(lifetime).UTC(),
		Scope:       parsed.Scope,
	}
	if token.TokenType == "" {
		token.TokenType = "Bearer"
	}

	logging.Debug("TokenAcquirer", "Obtained token %s from %s (expires: %s)",
		logging.Fingerprint(parsed.AccessToken), endpoint, token.ExpiresAt.Format(time.RFC3339))
	return token, nil
}

// sanitizeErrorCode keeps an OAuth error code only if it looks like one
// (RFC 6749 restricts it to printable ASCII without quotes or backslash).
func sanitizeErrorCode(code string) string {
	if code == "" || len(code) > 64 {
		return ""
	}
	for _, r := range code {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' || r == ' ' {
			return ""
		}
	}
	return code
}
