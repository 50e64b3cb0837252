package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsPath is where the Prometheus scrape handler is mounted.
const metricsPath = "/metrics"

// requestMetrics counts and times requests per transport.
type requestMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// newRequestMetrics registers request collectors on a private registry, so
// several handlers in one process never collide.
func newRequestMetrics() *requestMetrics {
	reg := prometheus.NewRegistry()
	m := &requestMetrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "labgantt_http_requests_total",
			Help: "Total number of served requests",
		}, []string{"transport", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "labgantt_http_request_duration_seconds",
			Help:    "Time spent serving one request",
			Buckets: prometheus.DefBuckets,
		}, []string{"transport"}),
	}
	reg.MustRegister(
		m.requests,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// handler exposes the registry in the Prometheus text format.
func (m *requestMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument wraps next so every request is counted and timed under transport.
func (m *requestMetrics) instrument(transport string, next http.Handler) http.Handler {
	labels := prometheus.Labels{"transport": transport}
	return promhttp.InstrumentHandlerDuration(
		m.latency.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(m.requests.MustCurryWith(labels), next),
	)
}
