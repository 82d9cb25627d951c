package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	PairsMatched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_matched_pairs",
		Help: "Number of market pairs produced by the last match run",
	})

	MatchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_match_duration_seconds",
		Help:    "Duration of full matcher runs",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
