// Package metrics exposes Prometheus collectors for the trade generator
// and the tick stream.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockstream_trades_generated_total",
		Help: "Number of synthetic trade records generated.",
	})

	TradesInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockstream_trades_inserted_total",
		Help: "Number of trade records persisted, by insert path.",
	}, []string{"path"})

	BulkFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockstream_bulk_fallback_total",
		Help: "Number of times the bulk COPY path failed and the row path took over.",
	})

	InsertFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockstream_insert_failures_total",
		Help: "Number of batches that failed on both insert paths.",
	})

	StreamSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockstream_stream_sessions",
		Help: "Number of currently connected tick stream clients.",
	})

	TicksSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockstream_ticks_sent_total",
		Help: "Number of tick messages pushed to stream clients.",
	})
)
