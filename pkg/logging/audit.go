package logging

import (
	"fmt"
	"strings"
)

// AuditEvent describes a security-relevant operation: a token acquisition,
// a secret being unprotected, an export being produced.
//
// None of the fields may carry credential material. Use Fingerprint when a
// correlation handle for a credential is needed.
type AuditEvent struct {
	// Action is what happened, e.g. "token_acquire" or "export".
	Action string
	// Outcome is "success", "failure" or "cache_hit".
	Outcome string
	// Target is the remote endpoint or connection name affected.
	Target string
	// Subject identifies the acting client, typically a client ID.
	Subject string
	// Detail carries a short free-form explanation.
	Detail string
}

// Audit logs an AuditEvent at INFO level with an [AUDIT] prefix.
func Audit(event AuditEvent) {
	var b strings.Builder
	fmt.Fprintf(&b, "[AUDIT] action=%s outcome=%s", event.Action, event.Outcome)
	if event.Target != "" {
		fmt.Fprintf(&b, " target=%s", event.Target)
	}
	if event.Subject != "" {
		fmt.Fprintf(&b, " subject=%s", TruncateIdentifier(event.Subject))
	}
	if event.Detail != "" {
		fmt.Fprintf(&b, " detail=%q", event.Detail)
	}
	Info("Audit", "%s", b.String())
}
