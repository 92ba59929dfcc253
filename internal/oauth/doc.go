// Package oauth acquires OAuth2 access tokens with the client_credentials
// grant on behalf of outbound connections.
//
// Three client authentication methods are supported:
//
//   - client_secret: the shared secret is posted in the form body
//   - private_key_jwt: a short-lived RS256 assertion signed with the
//     client's private key is posted instead of a secret
//   - mTLS (tls_client_auth): the client certificate is presented during
//     the TLS handshake with the token endpoint
//
// # Components
//
//   - Acquirer: runs the three flows and parses token responses
//   - TokenCache: in-memory token store keyed by request signature, with
//     single-flight de-duplication of concurrent acquisitions
//   - AssertionBuilder: builds and signs private_key_jwt client assertions
//
// # Caching
//
// Every acquisition goes through the TokenCache. A cached token is served
// until it is within the expiry skew (30s by default) of its expiry. While
// one acquisition for a key is in flight, other callers for the same key
// wait for its result instead of issuing their own request. A waiting caller
// whose context is cancelled returns immediately; the request itself keeps
// running until the HTTP client timeout so the other waiters still get a
// token.
//
// Tokens never leave process memory. Private keys and certificates are
// parsed per acquisition and are not retained by the cache.
//
// # Security
//
// Secrets, assertions and access tokens are never logged. Token endpoint
// response bodies are never logged or included in errors; on a non-2xx
// response only the status code and the OAuth "error" code are reported.
// Access tokens are held as auth.Secret so that formatting a Token does not
// reveal them.
package oauth
