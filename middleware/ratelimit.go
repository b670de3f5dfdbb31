package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vignesh0909/adbond.net-sub002/pkg"
	"github.com/vignesh0909/adbond.net-sub002/pkg/metrics"
	"github.com/vignesh0909/adbond.net-sub002/pkg/ratelimit"
)

// APIRateLimit throttles /api/ requests per client IP as resolved by
// clientIP. Static assets, /metrics and /ws are not counted.
func APIRateLimit(limiter *ratelimit.APIRateLimiter, clientIP *ratelimit.IPResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || !limiter.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(clientIP.ClientIP(r)) {
				retry := limiter.RetryAfterSeconds()
				metrics.RecordRateLimited("api")
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				pkg.Error(w, fmt.Errorf("%w, try again in %s",
					pkg.ErrTooManyRequests, ratelimit.FormatRetryMessage(retry)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
