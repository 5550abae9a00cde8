// Package observability holds the Prometheus metric vectors and the HTTP
// middleware that populates the request-level ones.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportRuns tracks pipeline runs by pipeline (transaction, contacts)
	// and outcome (ok, error).
	ImportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_import_runs_total",
			Help: "Total number of import pipeline runs",
		},
		[]string{"pipeline", "status"},
	)

	// ImportRows tracks processed rows by pipeline and row outcome
	// (valid, rejected, duplicate).
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_import_rows_total",
			Help: "Total number of rows processed by the import pipelines",
		},
		[]string{"pipeline", "outcome"},
	)

	// ImportDuration tracks pipeline run duration
	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loyalty_import_duration_seconds",
			Help:    "Import pipeline run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline"},
	)

	// RequestsTotal tracks total number of HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loyalty_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loyalty_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// ActiveRequests tracks currently active requests
	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loyalty_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)
)

// RecordRun observes one pipeline run: its duration, outcome, and row counts.
func RecordRun(pipeline string, start time.Time, err error, valid, rejected, duplicate int) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ImportRuns.WithLabelValues(pipeline, status).Inc()
	ImportDuration.WithLabelValues(pipeline).Observe(time.Since(start).Seconds())

	if err != nil {
		return
	}
	ImportRows.WithLabelValues(pipeline, "valid").Add(float64(valid))
	ImportRows.WithLabelValues(pipeline, "rejected").Add(float64(rejected))
	if duplicate > 0 {
		ImportRows.WithLabelValues(pipeline, "duplicate").Add(float64(duplicate))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware collects per-request Prometheus metrics. The route
// pattern is read after the handler runs so mux wildcards collapse into one
// label value.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ActiveRequests.Inc()
		defer ActiveRequests.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		RequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
