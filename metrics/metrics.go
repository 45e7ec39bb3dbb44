package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	assignmentSave *prometheus.CounterVec
	projection     *prometheus.CounterVec
	hubClients     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backoffice_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
			[]string{"method", "route"},
		),
		assignmentSave: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_modifier_assignment_saves_total",
				Help: "Modifier assignment saves by result",
			},
			[]string{"result"},
		),
		projection: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_modifier_projection_cache_total",
				Help: "Modifier projection cache lookups by result",
			},
			[]string{"result"},
		),
		hubClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "backoffice_hub_clients",
				Help: "Connected websocket dashboard clients",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.assignmentSave,
		m.projection,
		m.hubClients,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware records one observation per request, labelled by the matched route
// template so path parameters do not explode cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveAssignmentSave(result string) {
	m.assignmentSave.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveProjectionCache(result string) {
	m.projection.WithLabelValues(result).Inc()
}

func (m *Metrics) SetHubClients(n int) {
	m.hubClients.Set(float64(n))
}
