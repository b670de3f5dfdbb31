// Package metrics declares the Prometheus collectors of the server and small
// helpers to record them. Collectors register on the default registry via
// promauto; GET /metrics exposes them through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adbond"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Current number of open WebSocket connections",
		},
	)

	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Total number of community chat messages sent",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result (success, invalid, banned, rate_limited)",
		},
		[]string{"result"},
	)

	ModerationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moderation_actions_total",
			Help:      "Admin moderation actions by action name",
		},
		[]string{"action"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limiter",
		},
		[]string{"limiter"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordLogin counts a login attempt by result.
func RecordLogin(result string) {
	LoginAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordModeration counts an admin action such as "ban" or "entity_approve".
func RecordModeration(action string) {
	ModerationActionsTotal.WithLabelValues(action).Inc()
}

// RecordRateLimited counts a refusal by the named limiter.
func RecordRateLimited(limiter string) {
	RateLimitedTotal.WithLabelValues(limiter).Inc()
}
