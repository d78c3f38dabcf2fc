package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dashboard action metrics
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_dashboard_actions_total",
			Help: "Total dashboard actions processed",
		},
		[]string{"action", "outcome"},
	)

	// Upstream API metrics
	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parking_dashboard_upstream_requests_total",
			Help: "Total requests issued to the parking API",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parking_dashboard_upstream_request_duration_seconds",
			Help:    "Parking API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		ActionsTotal,
		UpstreamRequestsTotal,
		UpstreamRequestDuration,
	)
}

// Outcome labels used across the collectors.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ObserveAction records one dashboard action with its outcome.
func ObserveAction(action string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	ActionsTotal.WithLabelValues(action, outcome).Inc()
}

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
