package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	m := NewMetrics("")
	require.NotNil(t, m)
	assert.NotNil(t, m.Registry())

	m.RecordCacheHit("client_secret")
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "connauth_token_cache_hits_total")
}

func TestMetrics_RecordAcquisition(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordAcquisition("client_secret", "success", 120*time.Millisecond)
	m.RecordAcquisition("client_secret", "success", 80*time.Millisecond)
	m.RecordAcquisition("tls_client_auth", "transport_error", time.Second)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.tokenAcquisitionsTotal.WithLabelValues("client_secret", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.tokenAcquisitionsTotal.WithLabelValues("tls_client_auth", "transport_error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.tokenAcquisitionDuration))
}

func TestMetrics_RecordCacheHit(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordCacheHit("private_key_jwt")
	m.RecordCacheHit("private_key_jwt")

	expected := `
# HELP test_token_cache_hits_total Total number of tokens served from the cache
# TYPE test_token_cache_hits_total counter
test_token_cache_hits_total{flow="private_key_jwt"} 2
`
	require.NoError(t, testutil.CollectAndCompare(m.tokenCacheHitsTotal, strings.NewReader(expected)))
}

func TestMetrics_RecordHeaderBuildAndReload(t *testing.T) {
	t.Parallel()

	m := NewMetrics("test")
	m.RecordHeaderBuild("ApiKey", "success")
	m.RecordHeaderBuild("OAuth2ClientCredentials", "error")
	m.RecordReload("success")
	m.RecordReload("error")
	m.RecordReload("success")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.headerBuildsTotal.WithLabelValues("ApiKey", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.headerBuildsTotal.WithLabelValues("OAuth2ClientCredentials", "error")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.recordReloadsTotal.WithLabelValues("success")))
}
