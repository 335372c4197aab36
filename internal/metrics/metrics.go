// Package metrics exposes Prometheus collectors for the site backend.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Submission outcomes.
const (
	OutcomeAccepted     = "accepted"
	OutcomeRateLimited  = "rate_limited"
	OutcomeInvalid      = "invalid"
	OutcomeStorageFail  = "storage_error"
	OutcomeLimiterError = "limiter_error"
)

// Notification results.
const (
	NotifySent        = "sent"
	NotifySkipped     = "skipped"
	NotifyFailed      = "failed"
	NotifyTimeout     = "timeout"
	NotifyCircuitOpen = "circuit_open"
)

var (
	contactSubmissionsTotal    *prometheus.CounterVec
	contactNotificationsTotal  *prometheus.CounterVec
	rateLimitRejectionsTotal   *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call more than once.
func Init() {
	once.Do(func() {
		contactSubmissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Contact form submissions, labeled by pipeline outcome.",
			},
			[]string{"outcome"},
		)

		contactNotificationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_notifications_total",
				Help: "Notification attempts for accepted submissions, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitRejectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimit_rejections_total",
				Help: "Requests rejected by a rate limiter, labeled by limiter scope.",
			},
			[]string{"scope"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method, route and code.",
			},
			[]string{"method", "route", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

func ObserveSubmission(outcome string) {
	Init()
	contactSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveNotification(result string) {
	Init()
	contactNotificationsTotal.WithLabelValues(result).Inc()
}

func ObserveRateLimitRejection(scope string) {
	Init()
	rateLimitRejectionsTotal.WithLabelValues(scope).Inc()
}

func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}
