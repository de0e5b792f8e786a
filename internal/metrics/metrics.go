package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Snapshot metrics
	SnapshotsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_snapshots_fetched_total",
			Help: "Total number of workflow snapshot fetches",
		},
		[]string{"result"},
	)

	SnapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_snapshot_duration_seconds",
			Help:    "Snapshot fetch duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Push channel metrics
	PushEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_push_events_received_total",
			Help: "Total number of push events received, by event type",
		},
		[]string{"type"},
	)

	PushMalformedDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_push_malformed_dropped_total",
			Help: "Total number of malformed push messages dropped",
		},
	)

	PushReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_push_reconnects_total",
			Help: "Total number of push channel reconnect attempts",
		},
	)

	// Reconciler metrics
	ProgressRegressionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_progress_regressions_rejected_total",
			Help: "Total number of stage status regressions rejected by the merge guard",
		},
		[]string{"stage"},
	)

	StatePublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_state_published_total",
			Help: "Total number of canonical state publications",
		},
	)

	// Approval metrics
	ApprovalsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_approvals_submitted_total",
			Help: "Total number of source approval submissions",
		},
		[]string{"result"},
	)

	// Dashboard metrics
	DashboardPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_dashboard_polls_total",
			Help: "Total number of dashboard list polls",
		},
		[]string{"result"},
	)
)
