package handler

import (
	"go-users-api/metrics"
	"net/http"
	"time"
)

// MetricsMiddleware records request count and latency under route, the mux
// pattern the handler is registered with.
func MetricsMiddleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		metrics.ObserveRequest(r.Method, route, rec.Status(), time.Since(start))
	})
}
