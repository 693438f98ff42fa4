// Package metrics exposes Prometheus instrumentation for the HTTP API.
//
// Each HTTPMetrics owns its registry, so routers built in tests never collide
// on the global default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "car_inventory"

// HTTPMetrics holds request counters and latency histograms.
type HTTPMetrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts requests. Labels: method, route, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency. Labels: method, route
	RequestDurationSeconds *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors plus Go runtime and process
// collectors on a fresh registry.
func NewHTTPMetrics() *HTTPMetrics {
	registry := prometheus.NewRegistry()

	m := &HTTPMetrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, latency time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDurationSeconds.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *HTTPMetrics) Registry() *prometheus.Registry {
	return m.registry
}
