package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests counts handled requests by route, method and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Count of HTTP requests"},
		[]string{"path", "method", "status"},
	)
	// HTTPLatency observes handler latency by route and method
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"},
	)
	// OfferMutations counts offer lifecycle transitions (created, updated, deleted)
	OfferMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bonos_offer_mutations_total", Help: "Offer lifecycle transitions"},
		[]string{"action"},
	)
	// LoginAttempts counts login outcomes (success, invalid_credentials, rate_limited, error)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bonos_login_attempts_total", Help: "Login attempts by outcome"},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequests, HTTPLatency, OfferMutations, LoginAttempts)
}
