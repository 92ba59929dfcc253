// Package mcpclient opens streamable HTTP MCP sessions authenticated with
// the headers and client certificate produced by package headers.
//
// Static schemes are sent with transport.WithHTTPHeaders. OAuth2 schemes
// go through an oauth2.Transport backed by the token acquirer, so long
// sessions pick up refreshed tokens and a failed acquisition fails the
// request instead of sending an empty Authorization header.
package mcpclient
