package export

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/giantswarm/connauth/internal/connection"
)

const (
	apiKeyValue       = "secret-api-key-1"
	basicPassword     = "secret-basic-pw-2"
	clientSecret      = "secret-client-3"
	privateKey        = "secret-private-key-4"
	clientCertificate = "secret-certificate-5"
	certPassword      = "secret-cert-pw-6"
)

// fullRecord sets every field, secret or not, regardless of type.
func fullRecord(t connection.AuthenticationType) connection.Record {
	return connection.Record{
		Name:                            "conn-" + string(t),
		Endpoint:                        "https://mcp.example.com/mcp",
		AuthenticationType:              t,
		APIKeyHeaderName:                "X-Api-Key",
		APIKeyPrefix:                    "Token",
		APIKey:                          apiKeyValue,
		BasicUsername:                   "svc-user",
		BasicPassword:                   basicPassword,
		OAuth2TokenEndpoint:             "https://idp.example.com/oauth2/token",
		OAuth2ClientID:                  "connauth-client",
		OAuth2ClientSecret:              clientSecret,
		OAuth2PrivateKey:                privateKey,
		OAuth2KeyID:                     "kid-2026",
		OAuth2ClientCertificate:         clientCertificate,
		OAuth2ClientCertificatePassword: certPassword,
		OAuth2Scopes:                    "mcp.read mcp.write",
		AdditionalHeaders:               []connection.Header{{Name: "X-Tenant", Value: "t1"}},
	}
}

var allSecrets = []string{apiKeyValue, basicPassword, clientSecret, privateKey, clientCertificate, certPassword}

func TestSecretFields(t *testing.T) {
	assert.Equal(t, []string{
		"APIKey",
		"BasicPassword",
		"OAuth2ClientSecret",
		"OAuth2PrivateKey",
		"OAuth2ClientCertificate",
		"OAuth2ClientCertificatePassword",
	}, SecretFields())
}

// Any field whose name suggests credential material must carry the secret
// tag, so that adding one without tagging it fails here.
func TestSecretFields_NoUntaggedCandidates(t *testing.T) {
	suspicious := []string{"secret", "password", "privatekey", "certificate", "apikey", "token"}
	allowed := map[string]bool{
		"OAuth2TokenEndpoint": true,
		"APIKeyHeaderName":    true,
		"APIKeyPrefix":        true,
	}

	rt := reflect.TypeOf(connection.Record{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.Type.Kind() != reflect.String || allowed[f.Name] {
			continue
		}
		lower := strings.ToLower(f.Name)
		for _, word := range suspicious {
			if strings.Contains(lower, word) {
				assert.Equal(t, "true", f.Tag.Get("secret"), "field %s looks secret but is not tagged", f.Name)
			}
		}
	}
}

func TestSanitize_AllAuthenticationTypes(t *testing.T) {
	for _, typ := range connection.AuthenticationTypes {
		t.Run(string(typ), func(t *testing.T) {
			original := fullRecord(typ)
			sanitized := Sanitize(original)

			assert.Empty(t, sanitized.APIKey)
			assert.Empty(t, sanitized.BasicPassword)
			assert.Empty(t, sanitized.OAuth2ClientSecret)
			assert.Empty(t, sanitized.OAuth2PrivateKey)
			assert.Empty(t, sanitized.OAuth2ClientCertificate)
			assert.Empty(t, sanitized.OAuth2ClientCertificatePassword)

			expected := original
			expected.APIKey = ""
			expected.BasicPassword = ""
			expected.OAuth2ClientSecret = ""
			expected.OAuth2PrivateKey = ""
			expected.OAuth2ClientCertificate = ""
			expected.OAuth2ClientCertificatePassword = ""
			assert.Equal(t, expected, sanitized, "non-secret fields are preserved")

			assert.Equal(t, apiKeyValue, original.APIKey, "input is not modified")
		})
	}
}

func TestSanitize_CopiesHeaders(t *testing.T) {
	original := fullRecord(connection.AuthCustomHeaders)
	sanitized := Sanitize(original)
	sanitized.AdditionalHeaders[0].Value = "changed"
	assert.Equal(t, "t1", original.AdditionalHeaders[0].Value)
}

func TestExport(t *testing.T) {
	var records []connection.Record
	for _, typ := range connection.AuthenticationTypes {
		records = append(records, fullRecord(typ))
	}

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, records, FormatYAML))

		for _, s := range allSecrets {
			assert.NotContains(t, buf.String(), s)
		}

		var artifact Artifact
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &artifact))
		require.Len(t, artifact.Connections, len(records))
		first := artifact.Connections[0]
		assert.Equal(t, "connauth-client", first.OAuth2ClientID)
		assert.Equal(t, "kid-2026", first.OAuth2KeyID)
		assert.Equal(t, "X-Api-Key", first.APIKeyHeaderName)
		assert.Equal(t, "mcp.read mcp.write", first.OAuth2Scopes)
		assert.Equal(t, "https://idp.example.com/oauth2/token", first.OAuth2TokenEndpoint)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Export(&buf, records, FormatJSON))

		for _, s := range allSecrets {
			assert.NotContains(t, buf.String(), s)
		}
		assert.NotContains(t, buf.String(), `"apiKey"`, "cleared fields are omitted")

		var artifact Artifact
		require.NoError(t, json.Unmarshal(buf.Bytes(), &artifact))
		assert.Len(t, artifact.Connections, len(records))
	})

	t.Run("unknown format", func(t *testing.T) {
		assert.Error(t, Export(&bytes.Buffer{}, records, Format("toml")))
	})
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{"": FormatYAML, "YAML": FormatYAML, "yml": FormatYAML, "json": FormatJSON} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
