// Package metrics exposes Prometheus instrumentation for queue loading,
// filtering and administrative operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue snapshot metrics
var (
	SnapshotLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postq_snapshot_loads_total",
			Help: "Total number of queue snapshot loads",
		},
		[]string{"strategy", "status"},
	)

	SnapshotRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "postq_snapshot_records",
			Help: "Number of records in the current queue snapshot",
		},
	)

	SnapshotLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postq_snapshot_load_duration_seconds",
			Help:    "Duration of queue snapshot loads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)

	ParserDroppedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "postq_parser_dropped_lines_total",
			Help: "Total number of listing lines dropped as unparseable",
		},
	)
)

// Selection and administration metrics
var (
	FilterInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postq_filter_invocations_total",
			Help: "Total number of filter invocations",
		},
		[]string{"filter"},
	)

	AdminBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postq_admin_batches_total",
			Help: "Total number of administrative command batches submitted",
		},
		[]string{"operation", "status"},
	)

	ExternalCommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postq_external_command_duration_seconds",
			Help:    "Duration of external Postfix command invocations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
		},
		[]string{"command"},
	)
)
