package kalshi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	MarketsFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_kalshi_markets_fetched",
		Help: "Number of Kalshi markets returned by the last sweep",
	})

	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_kalshi_fetch_duration_seconds",
		Help:    "Duration of full Kalshi market sweeps",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	SeriesErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_kalshi_series_errors_total",
		Help: "Total number of failed series fetches",
	})

	OrderbookErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_kalshi_orderbook_errors_total",
		Help: "Total number of failed orderbook fetches",
	})
)
