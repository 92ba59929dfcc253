// Package metrics exposes Prometheus metrics for token acquisition, header
// building and connection record reloads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is used when NewMetrics is given an empty namespace.
const DefaultNamespace = "connauth"

// Metrics holds the Prometheus collectors. It satisfies
// oauth.MetricsRecorder.
type Metrics struct {
	tokenAcquisitionsTotal   *prometheus.CounterVec
	tokenAcquisitionDuration *prometheus.HistogramVec
	tokenCacheHitsTotal      *prometheus.CounterVec
	headerBuildsTotal        *prometheus.CounterVec
	recordReloadsTotal       *prometheus.CounterVec
	registry                 *prometheus.Registry
}

// NewMetrics creates the collectors and registers them with a private
// registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.tokenAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "acquisitions_total",
			Help:      "Total number of token endpoint requests",
		},
		[]string{"flow", "outcome"},
	)

	m.tokenAcquisitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "acquisition_duration_seconds",
			Help:      "Token endpoint request duration in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"flow", "outcome"},
	)

	m.tokenCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "token",
			Name:      "cache_hits_total",
			Help:      "Total number of tokens served from the cache",
		},
		[]string{"flow"},
	)

	m.headerBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "headers",
			Name:      "builds_total",
			Help:      "Total number of transport header builds",
		},
		[]string{"auth_type", "outcome"},
	)

	m.recordReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "reloads_total",
			Help:      "Total number of connection record reloads",
		},
		[]string{"status"},
	)

	m.registry.MustRegister(
		m.tokenAcquisitionsTotal,
		m.tokenAcquisitionDuration,
		m.tokenCacheHitsTotal,
		m.headerBuildsTotal,
		m.recordReloadsTotal,
	)

	return m
}

// RecordAcquisition records one token endpoint request.
func (m *Metrics) RecordAcquisition(flow, outcome string, duration time.Duration) {
	m.tokenAcquisitionsTotal.WithLabelValues(flow, outcome).Inc()
	m.tokenAcquisitionDuration.WithLabelValues(flow, outcome).Observe(duration.Seconds())
}

// RecordCacheHit records a token served from the cache.
func (m *Metrics) RecordCacheHit(flow string) {
	m.tokenCacheHitsTotal.WithLabelValues(flow).Inc()
}

// RecordHeaderBuild records one header build for an authentication type.
func (m *Metrics) RecordHeaderBuild(authType, outcome string) {
	m.headerBuildsTotal.WithLabelValues(authType, outcome).Inc()
}

// RecordReload records a connection record reload ("success" or "error").
func (m *Metrics) RecordReload(status string) {
	m.recordReloadsTotal.WithLabelValues(status).Inc()
}

// Registry returns the Prometheus registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
