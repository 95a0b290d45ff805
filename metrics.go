package shopsession

import internalmetrics "github.com/arhamlabs/shopsession/internal/metrics"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID uint16

const (
	// MetricLoginSuccess counts fully established logins (gate accepted).
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential and connectivity login failures.
	MetricLoginFailure
	// MetricLoginRejected counts logins torn down by the approval gate.
	MetricLoginRejected
	// MetricRefreshSuccess counts refreshes that confirmed the session.
	MetricRefreshSuccess
	// MetricRefreshFailClosed counts refreshes that tore the session down.
	MetricRefreshFailClosed
	// MetricRefreshStaleDiscarded counts refresh results discarded because the
	// session generation moved on mid-flight.
	MetricRefreshStaleDiscarded
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricPendingAdd counts buffered anonymous add-to-cart intents.
	MetricPendingAdd
	// MetricPendingStoreDegraded counts buffer operations that degraded to a
	// no-op on storage failure.
	MetricPendingStoreDegraded
	// MetricReconcileRun counts reconciliation passes (including empty-buffer passes).
	MetricReconcileRun
	// MetricReconcileItemApplied counts per-entry add calls that succeeded.
	MetricReconcileItemApplied
	// MetricReconcileItemFailed counts per-entry add calls that failed and were discarded.
	MetricReconcileItemFailed
	// MetricCartAdopted counts authoritative cart fetches adopted into the session.
	MetricCartAdopted

	metricIDCount
)

// MetricsSnapshot is a point-in-time copy of all counters. Zero-valued
// counters are omitted.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func newMetrics(cfg MetricsConfig) *internalmetrics.Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
		Slots:   int(metricIDCount),
	})
}
