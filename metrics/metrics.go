package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP
// =============================================================================

var (
	requestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentmap_requests_total",
			Help: "How many HTTP requests processed, partitioned by status code, method and route.",
		},
		[]string{"code", "method", "route"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "talentmap_request_duration_seconds",
			Help:    "The HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method", "route"},
	)
)

// Middleware records request count and latency per route pattern.
// The chi route pattern is used instead of the path to keep ids out of labels.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		requestDuration.WithLabelValues(code, r.Method, route).Observe(time.Since(start).Seconds())
		requestCount.WithLabelValues(code, r.Method, route).Inc()
	})
}

// =============================================================================
// STAFFING
// =============================================================================

var (
	AllocationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talentmap_allocations_created_total",
			Help: "Allocations created through any path (form, board, draft save).",
		},
	)

	AllocationsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "talentmap_allocations_removed_total",
			Help: "Allocations removed with a history record attempt.",
		},
	)

	TransitionWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentmap_transition_writes_total",
			Help: "History writes on removal, by result (ok or failed).",
		},
		[]string{"result"},
	)

	ProjectActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentmap_project_auto_activations_total",
			Help: "Proposal projects moved to active by the sweep, by result.",
		},
		[]string{"result"},
	)

	BoardDrops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "talentmap_board_drops_total",
			Help: "Drops on the allocation board by outcome.",
		},
		[]string{"outcome"},
	)

	BoardSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "talentmap_board_sessions",
			Help: "Open allocation board sessions.",
		},
	)
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)
