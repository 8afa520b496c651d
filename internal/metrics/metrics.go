package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend records calls made to the workbench backend. A nil *Backend is a no-op.
type Backend struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

func NewBackend(registry *prometheus.Registry) *Backend {
	if registry == nil {
		return nil
	}

	b := &Backend{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unibio_backend_requests_total",
				Help: "Total number of backend requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unibio_backend_request_duration_seconds",
				Help:    "Backend request latency by operation",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unibio_backend_cache_total",
				Help: "Backend lookup cache hits and misses by operation",
			},
			[]string{"operation", "result"},
		),
	}

	registry.MustRegister(b.requests, b.duration, b.cache)
	return b
}

func (b *Backend) Observe(operation, outcome string, elapsed time.Duration) {
	if b == nil {
		return
	}
	b.requests.WithLabelValues(operation, outcome).Inc()
	b.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (b *Backend) CacheHit(operation string) {
	if b != nil {
		b.cache.WithLabelValues(operation, "hit").Inc()
	}
}

func (b *Backend) CacheMiss(operation string) {
	if b != nil {
		b.cache.WithLabelValues(operation, "miss").Inc()
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors attached.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
