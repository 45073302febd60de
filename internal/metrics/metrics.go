package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns every collector exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	loginOutcomes  *prometheus.CounterVec
	reportUpdates  *prometheus.CounterVec
	auditRecords   *prometheus.CounterVec
	reportsCreated *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_auth_outcomes_total",
			Help: "Admin authentication attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		reportUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_updates_total",
			Help: "Admin report updates by result.",
		}, []string{"result"}),
		auditRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_audit_records_total",
			Help: "Audit records written by field.",
		}, []string{"field"}),
		reportsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "Public report submissions by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight,
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.loginOutcomes,
		m.reportUpdates,
		m.auditRecords,
		m.reportsCreated,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records RPS, latency and in-flight requests per matched route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// AuthOutcome counts one login or password-change attempt. A nil *Metrics
// discards all domain counters.
func (m *Metrics) AuthOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.loginOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ReportUpdate counts one update call and the fields it changed.
func (m *Metrics) ReportUpdate(result string, fields []string) {
	if m == nil {
		return
	}
	m.reportUpdates.WithLabelValues(result).Inc()
	for _, f := range fields {
		m.auditRecords.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) ReportSubmitted(result string) {
	if m == nil {
		return
	}
	m.reportsCreated.WithLabelValues(result).Inc()
}
