package connection

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/giantswarm/connauth/pkg/auth"
)

// AuthenticationType selects how a connection authenticates.
type AuthenticationType string

const (
	AuthAnonymous               AuthenticationType = "Anonymous"
	AuthAPIKey                  AuthenticationType = "ApiKey"
	AuthBasic                   AuthenticationType = "Basic"
	AuthOAuth2ClientCredentials AuthenticationType = "OAuth2ClientCredentials"
	AuthOAuth2PrivateKeyJWT     AuthenticationType = "OAuth2PrivateKeyJwt"
	AuthOAuth2MTLS              AuthenticationType = "OAuth2Mtls"
	AuthCustomHeaders           AuthenticationType = "CustomHeaders"
)

// AuthenticationTypes lists every supported type in declaration order.
var AuthenticationTypes = []AuthenticationType{
	AuthAnonymous,
	AuthAPIKey,
	AuthBasic,
	AuthOAuth2ClientCredentials,
	AuthOAuth2PrivateKeyJWT,
	AuthOAuth2MTLS,
	AuthCustomHeaders,
}

// ParseAuthenticationType matches s case-insensitively against the
// canonical names.
func ParseAuthenticationType(s string) (AuthenticationType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AuthenticationTypes {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown authentication type %q", s)
}

// IsOAuth2 reports whether the type acquires a token.
func (t AuthenticationType) IsOAuth2() bool {
	return t == AuthOAuth2ClientCredentials || t == AuthOAuth2PrivateKeyJWT || t == AuthOAuth2MTLS
}

// UnmarshalText accepts any casing of a canonical name. An empty value
// decodes to Anonymous.
func (t *AuthenticationType) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*t = AuthAnonymous
		return nil
	}
	parsed, err := ParseAuthenticationType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Header is one name/value pair of an ordered header list.
type Header struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// Record is the persisted form of a connection's authentication settings.
//
// Fields tagged secret:"true" hold ciphertext produced by a
// secret.Protector and are only decrypted by a Resolver. Any new
// credential-bearing field must carry the tag so that export sanitization
// picks it up.
type Record struct {
	Name               string             `json:"name" yaml:"name"`
	Endpoint           string             `json:"endpoint" yaml:"endpoint"`
	AuthenticationType AuthenticationType `json:"authenticationType" yaml:"authenticationType"`

	APIKeyHeaderName string `json:"apiKeyHeaderName,omitempty" yaml:"apiKeyHeaderName,omitempty"`
	APIKeyPrefix     string `json:"apiKeyPrefix,omitempty" yaml:"apiKeyPrefix,omitempty"`
	APIKey           string `json:"apiKey,omitempty" yaml:"apiKey,omitempty" secret:"true"`

	BasicUsername string `json:"basicUsername,omitempty" yaml:"basicUsername,omitempty"`
	BasicPassword string `json:"basicPassword,omitempty" yaml:"basicPassword,omitempty" secret:"true"`

	OAuth2TokenEndpoint string `json:"oauth2TokenEndpoint,omitempty" yaml:"oauth2TokenEndpoint,omitempty"`
	OAuth2ClientID      string `json:"oauth2ClientId,omitempty" yaml:"oauth2ClientId,omitempty"`
	OAuth2ClientSecret  string `json:"oauth2ClientSecret,omitempty" yaml:"oauth2ClientSecret,omitempty" secret:"true"`
	OAuth2PrivateKey    string `json:"oauth2PrivateKey,omitempty" yaml:"oauth2PrivateKey,omitempty" secret:"true"`
	OAuth2KeyID         string `json:"oauth2KeyId,omitempty" yaml:"oauth2KeyId,omitempty"`
	// OAuth2ClientCertificate is base64 of the PKCS#12 or PEM bytes, then
	// encrypted.
	OAuth2ClientCertificate         string `json:"oauth2ClientCertificate,omitempty" yaml:"oauth2ClientCertificate,omitempty" secret:"true"`
	OAuth2ClientCertificatePassword string `json:"oauth2ClientCertificatePassword,omitempty" yaml:"oauth2ClientCertificatePassword,omitempty" secret:"true"`
	OAuth2Scopes                    string `json:"oauth2Scopes,omitempty" yaml:"oauth2Scopes,omitempty"`

	AdditionalHeaders []Header `json:"additionalHeaders,omitempty" yaml:"additionalHeaders,omitempty"`
}

// Type returns the authentication type, treating an unset value as
// Anonymous.
func (r Record) Type() AuthenticationType {
	if r.AuthenticationType == "" {
		return AuthAnonymous
	}
	return r.AuthenticationType
}

// Validate checks the non-secret settings. Every problem is reported; the
// result unwraps to one *auth.ConfigurationError per problem.
func (r Record) Validate() error {
	var errs []error
	add := func(field, reason string) {
		errs = append(errs, auth.NewConfigurationError(field, reason))
	}

	if r.Endpoint == "" {
		add("endpoint", "endpoint is required")
	} else if !isAbsoluteHTTPURL(r.Endpoint) {
		add("endpoint", "endpoint must be an absolute http or https URL")
	}

	t := r.Type()
	if _, err := ParseAuthenticationType(string(t)); err != nil {
		add("authenticationType", err.Error())
		return errors.Join(errs...)
	}

	switch t {
	case AuthBasic:
		if r.BasicUsername == "" {
			add("basicUsername", "username is required for Basic authentication")
		}
	case AuthOAuth2ClientCredentials, AuthOAuth2PrivateKeyJWT, AuthOAuth2MTLS:
		if r.OAuth2TokenEndpoint == "" {
			add("oauth2TokenEndpoint", "token endpoint is required for "+string(t))
		} else if !isAbsoluteHTTPURL(r.OAuth2TokenEndpoint) {
			add("oauth2TokenEndpoint", "token endpoint must be an absolute http or https URL")
		}
		if r.OAuth2ClientID == "" {
			add("oauth2ClientId", "client id is required for "+string(t))
		}
	case AuthCustomHeaders:
		for i, h := range r.AdditionalHeaders {
			if strings.TrimSpace(h.Name) == "" {
				add(fmt.Sprintf("additionalHeaders[%d]", i), "header name is required")
			}
		}
	}

	return errors.Join(errs...)
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
