package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scans_total",
		Help: "Total number of completed scans",
	})

	ScanErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_scan_errors_total",
		Help: "Total number of failed scans",
	})

	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_scan_duration_seconds",
		Help:    "Duration of full scan pipeline passes",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	LastScanTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_last_scan_timestamp_seconds",
		Help: "Unix time of the last completed scan",
	})
)
