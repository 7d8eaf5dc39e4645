// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
	AuthRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_rejections_total",
			Help: "Total number of unauthorized requests",
		},
		[]string{"reason"},
	)
	ChallengeTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_transitions_total",
			Help: "Challenge lifecycle transitions by action and outcome",
		},
		[]string{"action", "result"},
	)
	ExpirySweeps = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "challenge_expiry_sweeps_total",
			Help: "Completed runs of the challenge expiry sweeper",
		},
	)
)

// Register adds every collector to reg. Call it once from main.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		AuthRejections,
		ChallengeTransitions,
		ExpirySweeps,
	)
}
