// Package logging provides the structured logging used throughout connauth.
//
// It is a thin layer over Go's slog package: every entry carries a subsystem
// identifier and the message is formatted printf-style.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("TokenAcquirer", "Acquired token for %s", endpoint)
//	logging.Debug("TokenCache", "Cache hit for key %s", key)
//	logging.Error("Export", err, "Failed to write artifact")
//
// Entries logged before InitForCLI are dropped, which keeps library packages
// quiet in unit tests.
//
// # Subsystems
//
//   - TokenAcquirer, TokenCache, Assertion: OAuth2 token acquisition
//   - MTLS: client certificate loading
//   - Headers: transport header construction
//   - Connection, Secret: connection records and secret protection
//   - Export: deployment artifact sanitization
//   - MCPClient: outbound MCP sessions
//   - Config: application configuration
//
// # Credentials
//
// Secret values (API keys, passwords, client secrets, private keys,
// certificates, access tokens) are never passed to this package. When a log
// line needs to correlate a credential, use Fingerprint:
//
//	logging.Debug("TokenCache", "Stored token %s", logging.Fingerprint(token))
//
// # Controller-Runtime Integration
//
// InitForCLI also installs a logr bridge as the controller-runtime logger so
// the Kubernetes record source logs through the same handler.
//
// # Audit Logging
//
// Security-sensitive operations are recorded with Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:  "token_acquire",
//	    Outcome: "success",
//	    Target:  tokenEndpoint,
//	    Subject: clientID,
//	})
//
// Audit events are logged at INFO level with an [AUDIT] prefix.
package logging
