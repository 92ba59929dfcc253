// Package mtls materializes client certificates for mutual TLS.
//
// A Credential is built from the raw certificate bytes stored on a
// connection record (after the secret protector has decrypted them) plus an
// optional password. PKCS#12 archives and PEM bundles are accepted.
//
// Credentials are meant to be short-lived: load one for a token request or a
// single outbound session and let it go. Nothing in this package caches
// key material.
package mtls
