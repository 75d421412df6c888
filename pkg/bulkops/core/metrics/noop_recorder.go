package metrics

import (
	"context"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// NoOpMetricRecorder is a MetricRecorder implementation that does nothing.
// It is used when metrics collection is disabled.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordOperationStart(ctx context.Context, op *model.BulkOperation) {}
func (r *NoOpMetricRecorder) RecordOperationEnd(ctx context.Context, op *model.BulkOperation)   {}
func (r *NoOpMetricRecorder) RecordStageTransition(ctx context.Context, op *model.BulkOperation, from, to model.OperationStatus) {
}
func (r *NoOpMetricRecorder) RecordRecordsProcessed(ctx context.Context, entityType model.EntityType, count int) {
}
func (r *NoOpMetricRecorder) RecordLedgerEntry(ctx context.Context, entityType model.EntityType) {}
