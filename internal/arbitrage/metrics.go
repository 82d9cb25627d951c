package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	OpportunitiesFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_opportunities_found",
		Help: "Number of opportunities detected in the last scan",
	})
)
