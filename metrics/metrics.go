// Package metrics exposes Prometheus metrics for the dashboard backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "n8n_dashboard"

type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Relay metrics
	RelayRequestsTotal   *prometheus.CounterVec
	RelayRequestDuration prometheus.Histogram

	// Upstream n8n calls made by the gateway client
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// Aggregation metrics
	AggregationPagesTotal   prometheus.Counter
	AggregationRecordsTotal prometheus.Counter
	AggregationsTotal       *prometheus.CounterVec

	// Layout cache metrics
	LayoutCacheTotal *prometheus.CounterVec
}

// New creates the metrics on a registry of their own, so several instances
// can coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RelayRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_requests_total",
			Help:      "Total number of relayed requests by upstream status.",
		}, []string{"method", "status"}),
		RelayRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_request_duration_seconds",
			Help:      "Relayed request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		UpstreamRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of n8n API calls by status, 0 for transport failures.",
		}, []string{"method", "status"}),
		UpstreamRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "n8n API call duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}, []string{"method"}),
		AggregationPagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_pages_total",
			Help:      "Total number of execution pages fetched for insights.",
		}),
		AggregationRecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_records_total",
			Help:      "Total number of execution records aggregated for insights.",
		}),
		AggregationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Total number of insight aggregations by source.",
		}, []string{"source"}),
		LayoutCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_cache_lookups_total",
			Help:      "Layout cache lookups by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RelayRequestsTotal,
		m.RelayRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.AggregationPagesTotal,
		m.AggregationRecordsTotal,
		m.AggregationsTotal,
		m.LayoutCacheTotal,
	)
	return m
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordRelay(method string, status int, elapsed time.Duration) {
	m.RelayRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.RelayRequestDuration.Observe(elapsed.Seconds())
}

// ObserveUpstream satisfies client.Observer.
func (m *Metrics) ObserveUpstream(method string, status int, elapsed time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordPage(records int) {
	m.AggregationPagesTotal.Inc()
	m.AggregationRecordsTotal.Add(float64(records))
}

// RecordAggregation counts one insights computation; source is "snapshot"
// or "upstream".
func (m *Metrics) RecordAggregation(source string) {
	m.AggregationsTotal.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordLayoutCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LayoutCacheTotal.WithLabelValues(result).Inc()
}
