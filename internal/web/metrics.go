package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics: счётчики дашборда в собственном реестре (отдаются на /metrics).
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	loads    *prometheus.CounterVec
	actions  *prometheus.CounterVec
	uploads  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moocdash",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "moocdash",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moocdash",
			Name:      "dataset_loads_total",
			Help:      "Dataset loads from the source by result.",
		}, []string{"dataset", "result"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moocdash",
			Name:      "nav_actions_total",
			Help:      "Navigation actions by name and result.",
		}, []string{"action", "result"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "moocdash",
			Name:      "dataset_uploads_total",
			Help:      "Admin dataset uploads by result.",
		}, []string{"dataset", "result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.loads, m.actions, m.uploads,
	)
	return m
}

// ObserveLoad подходит как dataset.LoadObserver.
func (m *Metrics) ObserveLoad(name, result string) {
	m.loads.WithLabelValues(name, result).Inc()
}

func (m *Metrics) observeAction(action, result string) {
	m.actions.WithLabelValues(action, result).Inc()
}

func (m *Metrics) observeUpload(name, result string) {
	m.uploads.WithLabelValues(name, result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// middleware: метка route: шаблон маршрута (c.FullPath), не путь запроса.
func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
