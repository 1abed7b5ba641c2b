package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/radar/pkg/metrics"
)

// responseWriter captures the status code for request metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// MetricsMiddleware records request count and latency per endpoint pattern.
// The pattern, not the concrete path, labels the metric so cardinality stays
// bounded.
func MetricsMiddleware(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		status := strconv.Itoa(rw.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(time.Since(started).Milliseconds()))
	})
}
