package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SamplesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrtherapy_samples_accepted_total",
		Help: "Encrypted samples accepted and committed to a session",
	})

	SamplesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vrtherapy_samples_rejected_total",
		Help: "Envelopes rejected by validation, by reason",
	}, []string{"reason"})

	IntegrityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrtherapy_integrity_failures_total",
		Help: "Stored samples observed failing integrity verification at aggregation time",
	})

	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrtherapy_store_errors_total",
		Help: "Ingestions aborted by a backing-resource failure",
	})

	AggregateRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vrtherapy_aggregate_recomputes_total",
		Help: "Successful encrypted-statistics recomputations",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vrtherapy_ingest_duration_seconds",
		Help:    "End-to-end latency of one envelope through the ingestion pipeline",
		Buckets: prometheus.DefBuckets,
	})
)
