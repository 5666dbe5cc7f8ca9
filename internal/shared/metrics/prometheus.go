package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	storeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_mutations_total",
			Help: "Total number of state store mutations",
		},
		[]string{"entity", "operation"},
	)

	snapshotWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_writes_total",
			Help: "Total number of durable snapshot writes",
		},
		[]string{"status"},
	)

	suggestionRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suggestion_requests_total",
			Help: "Total number of conflict-suggestion requests",
		},
		[]string{"outcome"},
	)

	escalationsObserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_observed_total",
			Help: "Total number of escalation alerts computed for views",
		},
	)

	activityEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_entries_total",
			Help: "Total number of activity trail entries recorded",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordMutation records a state store mutation
func RecordMutation(entity, operation string) {
	storeMutationsTotal.WithLabelValues(entity, operation).Inc()
}

// RecordSnapshotWrite records a durable snapshot write attempt
func RecordSnapshotWrite(ok bool) {
	status := "error"
	if ok {
		status = "ok"
	}
	snapshotWritesTotal.WithLabelValues(status).Inc()
}

// RecordSuggestionRequest records a conflict-suggestion request outcome
func RecordSuggestionRequest(outcome string) {
	suggestionRequestsTotal.WithLabelValues(outcome).Inc()
}

// RecordEscalations records escalation alerts produced for a view
func RecordEscalations(count int) {
	escalationsObserved.Add(float64(count))
}

// RecordActivityEntry records an activity trail entry
func RecordActivityEntry() {
	activityEntriesTotal.Inc()
}
