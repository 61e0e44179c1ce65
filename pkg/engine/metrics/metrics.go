// Package metrics instruments engine.Backend operations for Prometheus: a
// small, optional interface that collapses to zero overhead when nil.
package metrics

import "time"

// BackendMetrics observes engine.Backend operation latency, outcomes, and
// refcount changes. Pass nil to Instrument to disable metrics collection
// entirely.
type BackendMetrics interface {
	// RecordOperation records one completed Backend call: its name (e.g.
	// "assign_block", "finalize_file"), how long it took, and its error
	// (nil on success).
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordRefCount records a block's refcount immediately after an
	// assign_block. delete_file does not report the refcounts it lowers.
	RecordRefCount(blockID string, count int64)
}
