package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
)

// Metrics records request counts and latencies per route pattern. It must
// wrap the mux directly: the mux fills r.Pattern on the request it is
// handed, which is the one seen here.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), time.Since(start))
	})
}
