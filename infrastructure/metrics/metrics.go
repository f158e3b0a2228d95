package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depalletconsole_http_requests_total",
			Help: "Total number of console HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depalletconsole_http_request_duration_seconds",
			Help:    "Duration of console HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// BackendRequests counts backend calls by operation and result.
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depalletconsole_backend_requests_total",
			Help: "Backend calls by operation and result",
		},
		[]string{"op", "result"},
	)

	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depalletconsole_backend_request_duration_seconds",
			Help:    "Backend call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	depalletizerOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depalletconsole_depalletizer_outcomes_total",
			Help: "Depalletizer runs by outcome",
		},
		[]string{"outcome"},
	)

	orderActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "depalletconsole_order_actions_total",
			Help: "Operator order actions by result",
		},
		[]string{"action", "status"},
	)
)

// Handler serves the Prometheus exposition.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations keyed by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordOutcome counts one depalletizer run.
func RecordOutcome(outcome string) {
	depalletizerOutcomes.WithLabelValues(outcome).Inc()
}

// RecordOrderAction counts one approve/cancel/delete attempt.
func RecordOrderAction(action string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	orderActions.WithLabelValues(action, status).Inc()
}
