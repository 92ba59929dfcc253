package mock

import (
	"crypto/rsa"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClientAssertionType is the client_assertion_type value for private_key_jwt.
const ClientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// TokenServerConfig configures the mock token endpoint.
type TokenServerConfig struct {
	// AccessToken is returned on success. When empty a unique token
	// ("token-1", "token-2", ...) is issued per request.
	AccessToken string

	// TokenType defaults to "Bearer".
	TokenType string

	// ExpiresIn is the token lifetime in seconds. Zero omits the field.
	ExpiresIn int

	// ClientSecret, when set, must match the posted client_secret.
	ClientSecret string

	// AssertionKey, when set, is used to verify the posted client_assertion.
	AssertionKey *rsa.PublicKey

	// RequireClientCertificate serves over TLS and rejects requests that
	// did not present a client certificate.
	RequireClientCertificate bool

	// StatusCode forces an error status for every request.
	StatusCode int

	// RawBody overrides the success response body.
	RawBody string

	// Delay holds each response for the given duration (or until the
	// request is cancelled).
	Delay time.Duration
}

// TokenRequest is a recorded token endpoint request.
type TokenRequest struct {
	Form url.Values
	// ClientCertificateSubject is the CN of the presented client
	// certificate, if any.
	ClientCertificateSubject string
	// Assertion holds the verified assertion claims for private_key_jwt.
	Assertion jwt.MapClaims
	// AssertionHeader holds the assertion's JOSE header.
	AssertionHeader map[string]interface{}
}

// TokenServer is an httptest-backed OAuth2 token endpoint that accepts the
// client_credentials grant with client_secret, private_key_jwt or mTLS
// client authentication, and records every request.
type TokenServer struct {
	server *httptest.Server

	mu       sync.Mutex
	config   TokenServerConfig
	requests []TokenRequest

	count  atomic.Int64
	issued atomic.Int64
}

// NewTokenServer starts a mock token endpoint.
func NewTokenServer(config TokenServerConfig) *TokenServer {
	s := &TokenServer{config: config}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", s.handleToken)

	if config.RequireClientCertificate {
		s.server = httptest.NewUnstartedServer(mux)
		s.server.TLS = &tls.Config{ClientAuth: tls.RequireAnyClientCert}
		s.server.StartTLS()
	} else {
		s.server = httptest.NewServer(mux)
	}
	return s
}

// URL returns the token endpoint URL.
func (s *TokenServer) URL() string {
	return s.server.URL + "/token"
}

// Client returns an HTTP client that trusts the server (relevant for TLS).
func (s *TokenServer) Client() *http.Client {
	return s.server.Client()
}

// Close shuts the server down.
func (s *TokenServer) Close() {
	s.server.Close()
}

// RequestCount returns the number of requests received so far.
func (s *TokenServer) RequestCount() int {
	return int(s.count.Load())
}

// Requests returns a copy of the recorded requests.
func (s *TokenServer) Requests() []TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TokenRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (s *TokenServer) LastRequest() *TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	r := s.requests[len(s.requests)-1]
	return &r
}

// SetConfig replaces the server behavior for subsequent requests.
func (s *TokenServer) SetConfig(config TokenServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

func (s *TokenServer) handleToken(w http.ResponseWriter, r *http.Request) {
	s.count.Add(1)

	s.mu.Lock()
	config := s.config
	s.mu.Unlock()

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	recorded := TokenRequest{Form: r.PostForm}
	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
		recorded.ClientCertificateSubject = r.TLS.PeerCertificates[0].Subject.CommonName
	}

	status, oauthErr := s.authenticate(r, config, &recorded)

	s.mu.Lock()
	s.requests = append(s.requests, recorded)
	s.mu.Unlock()

	if config.Delay > 0 {
		select {
		case <-time.After(config.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if config.StatusCode != 0 && config.StatusCode != http.StatusOK {
		writeOAuthError(w, config.StatusCode, "invalid_client")
		return
	}
	if status != http.StatusOK {
		writeOAuthError(w, status, oauthErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if config.RawBody != "" {
		w.Write([]byte(config.RawBody))
		return
	}

	token := config.AccessToken
	if token == "" {
		token = fmt.Sprintf("token-%d", s.issued.Add(1))
	}
	tokenType := config.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	resp := map[string]interface{}{
		"access_token": token,
		"token_type":   tokenType,
	}
	if config.ExpiresIn > 0 {
		resp["expires_in"] = config.ExpiresIn
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *TokenServer) authenticate(r *http.Request, config TokenServerConfig, recorded *TokenRequest) (int, string) {
	if r.PostForm.Get("grant_type") != "client_credentials" {
		return http.StatusBadRequest, "unsupported_grant_type"
	}
	if r.PostForm.Get("client_id") == "" {
		return http.StatusBadRequest, "invalid_request"
	}

	if config.ClientSecret != "" && r.PostForm.Get("client_secret") != config.ClientSecret {
		return http.StatusUnauthorized, "invalid_client"
	}

	if config.AssertionKey != nil {
		if r.PostForm.Get("client_assertion_type") != ClientAssertionType {
			return http.StatusUnauthorized, "invalid_client"
		}
		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(r.PostForm.Get("client_assertion"), claims, func(t *jwt.Token) (interface{}, error) {
			return config.AssertionKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil || !token.Valid {
			return http.StatusUnauthorized, "invalid_client"
		}
		recorded.Assertion = claims
		recorded.AssertionHeader = token.Header
	}

	if config.RequireClientCertificate && recorded.ClientCertificateSubject == "" {
		return http.StatusUnauthorized, "invalid_client"
	}

	return http.StatusOK, ""
}

func writeOAuthError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": "rejected by mock token server",
	})
}
