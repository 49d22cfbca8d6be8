// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "geochain"

// Metrics holds the Prometheus collectors for geocoding requests and the result cache.
type Metrics struct {
	GeocodeRequests *prometheus.CounterVec   // labels: provider, outcome={success,failure,quota_limit,no_exact_result,error}
	GeocodeDuration *prometheus.HistogramVec // labels: provider
	GeocodeCache    *prometheus.CounterVec   // labels: result={hit,miss}
	CacheEntries    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.GeocodeRequests,
		m.GeocodeDuration,
		m.GeocodeCache,
		m.CacheEntries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can create
// as many instances as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "Geocoding provider request duration in seconds, including retries.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		CacheEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_cache_entries",
			Help:      "Number of addresses held in the geocoding cache.",
		}),
	}
}
