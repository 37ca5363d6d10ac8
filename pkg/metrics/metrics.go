// Package metrics provides Prometheus instrumentation.
//
// The state stores record their operation counters here, and the stub
// backend mounts Middleware() plus Handler() on /metrics so local runs can
// be scraped like any production service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionRefreshes counts background identity refresh outcomes.
	SessionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Background identity refresh outcomes.",
		},
		[]string{"result"}, // "reconciled" | "unchanged" | "auth_rejected" | "error" | "skipped"
	)

	// CartMutations counts cart store mutations by operation.
	CartMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart store mutations.",
		},
		[]string{"op"}, // "add" | "remove" | "update" | "clear" | "reload"
	)

	// KVHits / KVMisses track key-value store read effectiveness.
	KVHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "kvstore",
			Name:      "hits_total",
			Help:      "Total key-value store read hits.",
		},
		[]string{"driver"},
	)
	KVMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "kvstore",
			Name:      "misses_total",
			Help:      "Total key-value store read misses.",
		},
		[]string{"driver"},
	)

	// RequestDuration tracks stub backend request latency.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopfront",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts stub backend requests.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopfront",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// RequestInFlight tracks requests currently being served.
	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopfront",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// DefaultRegistry is the registry every shopfront metric lives in.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		SessionRefreshes,
		CartMutations,
		KVHits,
		KVMisses,
		RequestDuration,
		RequestTotal,
		RequestInFlight,
	)
}

// Register adds a custom prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// Handler returns an http.HandlerFunc that exposes the metrics page.
// Mount it on GET /metrics.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records duration, total, and in-flight metrics per request.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			path := r.URL.Path

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			status := strconv.Itoa(rr.status)
			RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			RequestTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}
