package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Harshitk-cp/echoform/internal/metrics"
)

// Metrics records request counts, error counts and latency into the
// Prometheus collectors.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			m.HTTPRequests.WithLabelValues(r.Method, strconv.Itoa(rw.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
			if rw.statusCode >= 400 {
				m.HTTPErrors.Inc()
			}
		})
	}
}
