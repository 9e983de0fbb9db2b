// Package metrics holds the Prometheus collectors of the sync engine
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spx_sync_runs_total",
		Help: "Total number of batch syncs by kind",
	}, []string{"kind"})

	TickerSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spx_ticker_syncs_total",
		Help: "Total number of per ticker syncs by outcome",
	}, []string{"status"})

	PricePointsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spx_price_points_written_total",
		Help: "Total number of price points inserted",
	})

	AssetsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spx_assets_written_total",
		Help: "Total number of assets inserted",
	})

	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spx_fetch_errors_total",
		Help: "Total number of source fetch failures",
	}, []string{"source"})

	SyncLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spx_sync_latency_seconds",
		Help:    "Duration of batch syncs",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"kind"})
)
