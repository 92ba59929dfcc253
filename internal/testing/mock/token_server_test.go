package mock

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postToken(t *testing.T, client *http.Client, endpoint string, form url.Values) (int, map[string]interface{}) {
	t.Helper()
	resp, err := client.PostForm(endpoint, form)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestTokenServer_ClientSecret(t *testing.T) {
	server := NewTokenServer(TokenServerConfig{ClientSecret: "s", ExpiresIn: 60})
	defer server.Close()

	status, body := postToken(t, server.Client(), server.URL(), url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"c"},
		"client_secret": {"s"},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "token-1", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, float64(60), body["expires_in"])

	status, body = postToken(t, server.Client(), server.URL(), url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"c"},
		"client_secret": {"wrong"},
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_client", body["error"])
	assert.Equal(t, 2, server.RequestCount())
	assert.Len(t, server.Requests(), 2)
}

func TestTokenServer_GrantType(t *testing.T) {
	server := NewTokenServer(TokenServerConfig{})
	defer server.Close()

	status, body := postToken(t, server.Client(), server.URL(), url.Values{
		"grant_type": {"authorization_code"},
		"client_id":  {"c"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unsupported_grant_type", body["error"])
}

func TestTokenServer_AssertionRequired(t *testing.T) {
	bundle, err := NewCertificateBundle("k")
	require.NoError(t, err)

	server := NewTokenServer(TokenServerConfig{AssertionKey: &bundle.Key.PublicKey})
	defer server.Close()

	status, _ := postToken(t, server.Client(), server.URL(), url.Values{
		"grant_type":            {"client_credentials"},
		"client_id":             {"c"},
		"client_assertion_type": {ClientAssertionType},
		"client_assertion":      {"not.a.jwt"},
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Nil(t, server.LastRequest().Assertion)
}
