package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics is registered on a per-server registry so several servers can
// coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	processRuns     *prometheus.CounterVec
	processedFiles  prometheus.Counter
	processedBytes  prometheus.Counter
	projectExtCount prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclip_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codeclip_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		processRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "codeclip_process_runs_total",
			Help: "Process calls by outcome",
		}, []string{"outcome"}),
		processedFiles: f.NewCounter(prometheus.CounterOpts{
			Name: "codeclip_processed_files_total",
			Help: "Files included in process results",
		}),
		processedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "codeclip_processed_bytes_total",
			Help: "Bytes of file content included in process results",
		}),
		projectExtCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "codeclip_project_extensions",
			Help: "Distinct file extensions in the selected project",
		}),
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) recordRequest(method, path string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
