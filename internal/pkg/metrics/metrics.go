// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "site_core"

// Metrics groups the HTTP and indexing collectors.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TokenRefreshTotal       *prometheus.CounterVec
	IndexingOutcomesTotal   *prometheus.CounterVec
	IndexingBatchDuration   *prometheus.HistogramVec
	ProviderRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on reg (the default registerer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TokenRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "indexing",
				Name:      "token_refresh_total",
				Help:      "Access token refresh attempts by result",
			},
			[]string{"result"},
		),
		IndexingOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "indexing",
				Name:      "url_outcomes_total",
				Help:      "Per-URL outcomes by operation and result",
			},
			[]string{"operation", "result"},
		),
		IndexingBatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "indexing",
				Name:      "batch_duration_seconds",
				Help:      "Duration of inspect and submit batches",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"operation"},
		),
		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "indexing",
				Name:      "provider_request_duration_seconds",
				Help:      "Latency of calls to the search provider",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}
