// Package connection models how an outbound connection authenticates.
//
// A Record is the persisted, flat form: it serializes to YAML or JSON and
// its secret fields (tagged secret:"true") hold ciphertext. A Resolver
// decrypts a Record into a Config, whose Auth field is exactly one of
// Anonymous, APIKey, Basic, ClientCredentials, PrivateKeyJWT, MTLS or
// CustomHeaders. Decrypted values are auth.Secret and print as [REDACTED].
//
// Records are loaded as immutable Snapshots from a Source: a YAML file
// (FileSource, optionally followed by a Watcher) or a key of a Kubernetes
// Secret (KubernetesSource).
//
// Connections file layout:
//
//	connections:
//	  - name: search
//	    endpoint: https://search.example.com/mcp
//	    authenticationType: OAuth2ClientCredentials
//	    oauth2TokenEndpoint: https://idp.example.com/oauth2/token
//	    oauth2ClientId: connauth
//	    oauth2ClientSecret: aead:v1:...
//	    oauth2Scopes: search.read
package connection
