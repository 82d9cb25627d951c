package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_executions_total",
		Help: "Execution attempts by result",
	}, []string{"result"})

	DailyPnLGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_daily_pnl_usd",
		Help: "Estimated PnL accumulated today (UTC)",
	})
)
