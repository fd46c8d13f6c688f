package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the proxy collectors on a private registry.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
}

// NewMetrics creates and registers the proxy collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "oblaka",
				Subsystem: "proxy",
				Name:      "requests_total",
				Help:      "Total number of proxy requests",
			},
			[]string{"route", "method", "status"},
		),
		upstreamLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "oblaka",
				Subsystem: "proxy",
				Name:      "upstream_duration_seconds",
				Help:      "Upstream call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"path", "outcome"},
		),
	}

	m.registry.MustRegister(m.requests)
	m.registry.MustRegister(m.upstreamLatency)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts one served request.
func (m *Metrics) RecordRequest(route, method string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// ObserveUpstream records the duration of one upstream call.
func (m *Metrics) ObserveUpstream(path, outcome string, d time.Duration) {
	m.upstreamLatency.WithLabelValues(path, outcome).Observe(d.Seconds())
}
