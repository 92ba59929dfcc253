// Package config loads the connauth configuration file.
//
// The file lives at ~/.config/connauth/config.yaml unless another directory
// is given. A missing file is not an error: defaults are used. Values in
// the file are merged over the defaults, so a partial file only overrides
// what it names.
//
// Example:
//
//	logLevel: info
//	httpTimeout: 30s
//	tokenExpirySkew: 30s
//	assertionLifetime: 5m
//	connectionsFile: ~/.config/connauth/connections.yaml
//	protector:
//	  type: aead
//	  keyFile: ~/.config/connauth/key
//	kubernetes:
//	  namespace: tools
//	  secretName: mcp-connections
package config
