// Package secret encrypts and decrypts connection credentials at rest.
//
// A Protector turns plaintext into an opaque ciphertext string and back.
// Connection records store only ciphertext; a connection.Resolver calls
// Unprotect immediately before a credential is used and does not keep the
// result. Empty ciphertext always unprotects to empty plaintext without
// touching the backend, so unset secret fields cost nothing.
//
// Implementations:
//
//   - AEADProtector: XChaCha20-Poly1305 with a local 256-bit key
//   - VaultTransitProtector: HashiCorp Vault's transit secrets engine
//   - PlaintextProtector: no encryption, for local development only
package secret
