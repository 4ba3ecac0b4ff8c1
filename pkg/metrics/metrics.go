package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecasts_total",
			Help: "Total number of next-day forecasts produced",
		},
		[]string{"symbol", "direction"},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of end-to-end pipeline runs",
		},
		[]string{"symbol", "status"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Wall-clock duration of a network fit",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"symbol"},
	)

	CandlesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_candles_consumed_total",
			Help: "Candles consumed from the candle topic",
		},
		[]string{"symbol"},
	)
)
