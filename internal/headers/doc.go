// Package headers turns a connection's authentication settings into the
// header map, and for mutual TLS the client certificate, that the outbound
// MCP transport attaches to every request.
//
// Static schemes (ApiKey, Basic, CustomHeaders) are pure functions of the
// decrypted configuration. The OAuth2 schemes call the matching
// oauth.Acquirer flow and set a bearer Authorization header. A failed
// acquisition is returned as an error; a partially built header map is
// never returned.
package headers
