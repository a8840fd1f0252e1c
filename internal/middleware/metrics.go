package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the client. All metrics are registered in the
// default Prometheus registry and exposed via the debug server's /metrics.

var (
	// backendRequestsTotal counts backend calls by method, endpoint and status.
	// Network failures are recorded with status "error".
	//
	// Labels: method, endpoint (/restaurants/:id/reviews), status (200, 401, error)
	// Type: Counter
	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorviews_backend_requests_total",
			Help: "Total number of requests sent to the backend",
		},
		[]string{"method", "endpoint", "status"},
	)

	// backendRequestDuration measures backend round trip time.
	//
	// Labels: method, endpoint
	// Type: Histogram
	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "savorviews_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// authAttemptsTotal counts login, signup and logout outcomes.
	//
	// Labels: flow (login, signup, logout), result (success, invalid_input,
	// no_token, rejected, not_json, transport_error, ...)
	// Type: Counter
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorviews_auth_attempts_total",
			Help: "Total number of authentication flow attempts",
		},
		[]string{"flow", "result"},
	)

	// reviewMutationsTotal counts review create/update/delete outcomes.
	//
	// Labels: operation (create, update, delete), result
	// Type: Counter
	reviewMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorviews_review_mutations_total",
			Help: "Total number of review mutations attempted",
		},
		[]string{"operation", "result"},
	)

	// tokenAcquisitionsTotal counts anti-forgery token fetches.
	//
	// Labels: result (success, error)
	// Type: Counter
	tokenAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "savorviews_csrf_token_acquisitions_total",
			Help: "Total number of anti-forgery token acquisitions",
		},
		[]string{"result"},
	)
)

// init registers all metrics with the Prometheus default registry.
func init() {
	prometheus.MustRegister(backendRequestsTotal)
	prometheus.MustRegister(backendRequestDuration)
	prometheus.MustRegister(authAttemptsTotal)
	prometheus.MustRegister(reviewMutationsTotal)
	prometheus.MustRegister(tokenAcquisitionsTotal)
}

// MetricsTransport records count and duration of every backend call.
//
// Example Prometheus queries:
//
//	# Backend error rate
//	sum(rate(savorviews_backend_requests_total{status=~"5..|error"}[5m]))
//
//	# P95 latency of review mutations
//	histogram_quantile(0.95, rate(savorviews_backend_request_duration_seconds_bucket{endpoint=~".*/reviews.*"}[5m]))
func MetricsTransport(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		endpoint := EndpointLabel(r.URL.Path)

		resp, err := next.RoundTrip(r)

		backendRequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		backendRequestsTotal.WithLabelValues(r.Method, endpoint, status).Inc()

		return resp, err
	})
}

// EndpointLabel collapses identifiers in a path so label cardinality stays
// bounded: "/restaurants/3/reviews/17" becomes "/restaurants/:id/reviews/:id".
func EndpointLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

// MetricsHandler returns the Prometheus metrics HTTP handler.
//
// Usage:
//
//	r.Handle("/metrics", middleware.MetricsHandler())
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// IncrementAuthAttempts records the outcome of a login, signup or logout.
//
// Example:
//
//	middleware.IncrementAuthAttempts("login", "not_json")
func IncrementAuthAttempts(flow, result string) {
	authAttemptsTotal.WithLabelValues(flow, result).Inc()
}

// IncrementReviewMutations records the outcome of a review mutation.
func IncrementReviewMutations(operation, result string) {
	reviewMutationsTotal.WithLabelValues(operation, result).Inc()
}

// IncrementTokenAcquisitions records the outcome of a token fetch.
func IncrementTokenAcquisitions(result string) {
	tokenAcquisitionsTotal.WithLabelValues(result).Inc()
}
