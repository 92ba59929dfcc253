// Package mock provides test doubles for the collaborators of connauth:
// an OAuth2 token endpoint, a credential-protected MCP server, generated
// client certificates and a controllable clock.
//
// # TokenServer
//
// TokenServer is an httptest-backed token endpoint for the client_credentials
// grant. It can check a client secret, verify a private_key_jwt assertion
// against a public key, or require a client certificate (served over TLS).
// Every request is recorded so tests can assert on the posted form, the
// verified assertion claims and the presented certificate:
//
//	server := mock.NewTokenServer(mock.TokenServerConfig{ExpiresIn: 3600})
//	defer server.Close()
//	// ... acquire against server.URL() ...
//	form := server.LastRequest().Form
//
// # ProtectedMCPServer
//
// ProtectedMCPServer serves the streamable HTTP MCP transport behind a check
// for required headers and, optionally, a client certificate.
//
// # CertificateBundle
//
// CertificateBundle generates an RSA key and a self-signed client
// certificate, and renders them as PEM (PKCS#1 or PKCS#8) or PKCS#12.
package mock
