// Package auth provides the error taxonomy shared by every part of the
// connection authentication subsystem.
//
// Three kinds of failure are distinguished:
//
//   - ConfigurationError: the connection record is missing or carries invalid
//     material (endpoint, client ID, secret, key, certificate). Not retryable.
//   - TransportError: the token endpoint could not be reached or answered
//     with a non-2xx status. Retrying is the caller's decision.
//   - TokenError: the token endpoint answered 2xx but without a usable
//     access token.
//
// Error messages never include credential material. Callers should use the
// Is* helpers, which unwrap with errors.As.
package auth
