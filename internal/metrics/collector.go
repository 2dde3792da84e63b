// Package metrics exposes Prometheus instrumentation for the dashboard
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector manages the Prometheus metrics of the service. Each service
// instance owns its registry so tests can construct isolated collectors.
type Collector struct {
	registry *prometheus.Registry

	fetchCyclesTotal     *prometheus.CounterVec
	fetchCycleDuration   prometheus.Histogram
	authOperationsTotal  *prometheus.CounterVec
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	websocketClients     prometheus.Gauge
	alertRulesConfigured prometheus.Gauge
}

// NewCollector creates and registers all service metrics.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := &Collector{
		registry: registry,
		fetchCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threatview_fetch_cycles_total",
				Help: "Total number of six-way threat fetch cycles",
			},
			[]string{"result"},
		),
		fetchCycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "threatview_fetch_cycle_duration_seconds",
				Help:    "Duration of threat fetch cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		authOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threatview_auth_operations_total",
				Help: "Total number of session operations",
			},
			[]string{"operation", "result"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		websocketClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "threatview_websocket_clients",
				Help: "Number of connected live-statistics clients",
			},
		),
		alertRulesConfigured: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "threatview_alert_rules_configured",
				Help: "Number of alert rules currently held in memory",
			},
		),
	}

	registry.MustRegister(
		c.fetchCyclesTotal,
		c.fetchCycleDuration,
		c.authOperationsTotal,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.websocketClients,
		c.alertRulesConfigured,
	)
	return c
}

// ObserveFetch records one completed fetch cycle.
func (c *Collector) ObserveFetch(duration time.Duration, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.fetchCyclesTotal.WithLabelValues(result).Inc()
	c.fetchCycleDuration.Observe(duration.Seconds())
}

// ObserveAuth records one session operation outcome.
func (c *Collector) ObserveAuth(operation string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.authOperationsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveHTTPRequest records one handled HTTP request.
func (c *Collector) ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ClientConnected tracks a live-statistics client joining.
func (c *Collector) ClientConnected() {
	c.websocketClients.Inc()
}

// ClientDisconnected tracks a live-statistics client leaving.
func (c *Collector) ClientDisconnected() {
	c.websocketClients.Dec()
}

// SetAlertRules updates the configured alert rule gauge.
func (c *Collector) SetAlertRules(n int) {
	c.alertRulesConfigured.Set(float64(n))
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
