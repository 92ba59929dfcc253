// Package app bootstraps connauth: it loads configuration, initializes
// logging and wires the secret protector, the connection record source,
// the token acquirer and the header builder into one Application used by
// the CLI commands.
package app
