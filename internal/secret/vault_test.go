package secret

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransit mimics the encrypt/decrypt endpoints of a transit mount by
// "encrypting" to vault:v1:<base64>.
type fakeTransit struct {
	requests atomic.Int32
	token    string
}

func (f *fakeTransit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)
	if r.Header.Get("X-Vault-Token") != f.token {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string][]string{"errors": {"permission denied"}})
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/v1/transit/encrypt/connauth":
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"ciphertext": "vault:v1:" + body["plaintext"]},
		})
	case "/v1/transit/decrypt/connauth":
		encoded := strings.TrimPrefix(body["ciphertext"], "vault:v1:")
		if _, err := base64.StdEncoding.DecodeString(encoded); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string][]string{"errors": {"invalid ciphertext"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"plaintext": encoded},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string][]string{"errors": {}})
	}
}

func newTestVault(t *testing.T) (*fakeTransit, *VaultTransitProtector) {
	t.Helper()
	fake := &fakeTransit{token: "test-token"}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := vaultapi.DefaultConfig()
	cfg.Address = server.URL
	client, err := vaultapi.NewClient(cfg)
	require.NoError(t, err)
	client.SetToken("test-token")

	return fake, NewVaultTransitProtectorWithClient(client, "/transit/", "connauth")
}

func TestVaultTransitProtector_RoundTrip(t *testing.T) {
	fake, p := newTestVault(t)
	ctx := context.Background()

	ciphertext, err := p.Protect(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ciphertext, "vault:v1:"))

	plaintext, err := p.Unprotect(ctx, ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "k1", plaintext)
	assert.Equal(t, int32(2), fake.requests.Load())
}

func TestVaultTransitProtector_EmptySkipsBackend(t *testing.T) {
	fake, p := newTestVault(t)

	ciphertext, err := p.Protect(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, ciphertext)

	plaintext, err := p.Unprotect(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, plaintext)
	assert.Zero(t, fake.requests.Load())
}

func TestVaultTransitProtector_Errors(t *testing.T) {
	fake, p := newTestVault(t)

	_, err := p.Unprotect(context.Background(), "aead:v1:xyz")
	var decryptErr *DecryptError
	require.True(t, errors.As(err, &decryptErr))
	assert.Zero(t, fake.requests.Load(), "foreign ciphertext must not reach vault")

	_, err = p.Unprotect(context.Background(), "vault:v1:%%%")
	require.True(t, errors.As(err, &decryptErr))
	assert.Equal(t, "vault", decryptErr.Backend)

	fake.token = "rotated"
	_, err = p.Protect(context.Background(), "k1")
	assert.Error(t, err)
}

func TestNewVaultTransitProtector(t *testing.T) {
	t.Setenv("CONNAUTH_TEST_VAULT_TOKEN", "from-env")

	p, err := NewVaultTransitProtector(VaultTransitConfig{
		Address:  "http://127.0.0.1:8200",
		Key:      "connauth",
		TokenEnv: "CONNAUTH_TEST_VAULT_TOKEN",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultTransitMount, p.mount)
	assert.Equal(t, "from-env", p.client.Token())

	_, err = NewVaultTransitProtector(VaultTransitConfig{})
	assert.Error(t, err)
}
