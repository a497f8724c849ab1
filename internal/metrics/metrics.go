// Package metrics exposes the compliance backplane's Prometheus counters
// and gauges: ingestion/batch/anchor cycle counts and the orchestrator's
// workflow outcomes. Register mounts /metrics on a caller-supplied mux.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kwon_events_ingested_total",
		Help: "Transfer events committed to the audit store, by source.",
	}, []string{"source"})

	EventsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kwon_events_skipped_total",
		Help: "Duplicate or invalid rows dropped during ingestion, by source.",
	}, []string{"source"})

	BatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kwon_batches_created_total",
		Help: "Merkle batches committed by the batcher.",
	})

	AnchorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kwon_anchor_failures_total",
		Help: "Anchor attempts that returned an error.",
	})

	WorkflowRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kwon_workflow_runs_total",
		Help: "Monthly orchestrator runs, by terminal stage.",
	}, []string{"status"})

	PendingEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kwon_pending_events",
		Help: "Unproven events awaiting their next batch, as of the last poll.",
	})
)

// Register mounts the default Prometheus handler at /metrics.
func Register(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
