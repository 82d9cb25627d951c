package restclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDurationSeconds tracks venue request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "arb_venue_request_duration_seconds",
			Help:    "Duration of venue HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"venue"},
	)

	// RequestErrorsTotal tracks failed venue requests.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_venue_request_errors_total",
			Help: "Total number of failed venue HTTP requests",
		},
		[]string{"venue"},
	)

	// RateLimitHitsTotal tracks 429 responses per venue.
	RateLimitHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_venue_rate_limit_hits_total",
			Help: "Total number of 429 responses received from venues",
		},
		[]string{"venue"},
	)
)
