package polymarket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	MarketsFetched = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_polymarket_markets_fetched",
		Help: "Number of Polymarket markets returned by the last sweep",
	})

	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_polymarket_fetch_duration_seconds",
		Help:    "Duration of full Polymarket market sweeps",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	OrderbookErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_polymarket_orderbook_errors_total",
		Help: "Total number of failed CLOB book fetches",
	})

	OrderbookMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_polymarket_orderbook_missing_total",
		Help: "Total number of tokens with no CLOB book (404)",
	})
)
