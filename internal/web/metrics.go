package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the board's collectors on a private registry, so several
// servers (tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	views    prometheus.Counter
	errors   *prometheus.CounterVec
}

// NewMetrics registers the HTTP, view and error collectors, plus the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		views: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicboard",
			Name:      "notice_views_total",
			Help:      "Notice pages served to visitors.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicboard",
			Name:      "errors_total",
			Help:      "Error responses by error code.",
		}, []string{"code"}),
	}

	bootTime := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "clinicboard",
		Name:      "boot_time_seconds",
		Help:      "Unix time the server started.",
	})
	bootTime.Set(float64(time.Now().Unix()))

	m.registry.MustRegister(
		m.requests, m.duration, m.views, m.errors, bootTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency. It must wrap the mux
// directly: the route label is the pattern the mux matched.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := wrapWriter(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
