// Package metrics defines the abstract metric recording contract for the
// bulk operations pipeline. Concrete recorders (Prometheus, no-op) live
// under infrastructure/metrics.
package metrics

import (
	"context"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// MetricRecorder is an abstract interface for recording metrics related to
// bulk operation execution. It standardizes operation-level, stage-level and
// record-level events so different backends can be plugged in.
type MetricRecorder interface {
	// RecordOperationStart records the creation of a bulk operation.
	RecordOperationStart(ctx context.Context, op *model.BulkOperation)

	// RecordOperationEnd records an operation reaching a terminal status.
	RecordOperationEnd(ctx context.Context, op *model.BulkOperation)

	// RecordStageTransition records a single state machine transition.
	RecordStageTransition(ctx context.Context, op *model.BulkOperation, from, to model.OperationStatus)

	// RecordRecordsProcessed adds to the processed-record count of an
	// operation's current stage.
	RecordRecordsProcessed(ctx context.Context, entityType model.EntityType, count int)

	// RecordLedgerEntry records one error ledger insertion.
	RecordLedgerEntry(ctx context.Context, entityType model.EntityType)
}
