package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// SweepExpired purges the file artifacts of operations that ended longer ago
// than the retention window and marks them expired. The operation rows
// themselves are kept. Per-operation failures are aggregated so one stuck
// operation does not block the rest of the sweep.
func (s *Service) SweepExpired(ctx context.Context) error {
	retention := time.Duration(s.cfg.RetentionDays) * 24 * time.Hour
	cutoff := s.now().Add(-retention)

	ops, err := s.operations.FindExpirable(ctx, cutoff)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to find expirable operations", err, false, false)
	}

	var result *multierror.Error
	for _, op := range ops {
		if err := s.expire(ctx, op); err != nil {
			result = multierror.Append(result, fmt.Errorf("operation %s: %w", op.ID, err))
		}
	}
	if len(ops) > 0 {
		logger.Infof("Retention sweep expired %d operations older than %s.", len(ops), cutoff.Format(time.RFC3339))
	}
	return result.ErrorOrNil()
}

// expire deletes every artifact of one operation, clears the links and marks
// it expired. Artifact deletion failures are aggregated; the operation is
// only marked expired when all deletions succeeded, so a partial failure is
// retried by the next sweep.
func (s *Service) expire(ctx context.Context, op *model.BulkOperation) error {
	var result *multierror.Error
	for _, link := range artifactLinks(op) {
		if *link == "" {
			continue
		}
		if err := s.store.Delete(ctx, *link); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		*link = ""
	}
	if err := result.ErrorOrNil(); err != nil {
		// Persist whatever was cleared so the next sweep retries less.
		if uerr := s.operations.Update(ctx, op); uerr != nil {
			result = multierror.Append(result, uerr)
		}
		return result.ErrorOrNil()
	}

	op.IsExpired = true
	return s.operations.Update(ctx, op)
}

// artifactLinks returns pointers to every artifact link field of the
// operation.
func artifactLinks(op *model.BulkOperation) []*string {
	return []*string{
		&op.LinkToTriggeringCsvFile,
		&op.LinkToMatchedRecordsCsvFile,
		&op.LinkToMatchedRecordsJsonFile,
		&op.LinkToMatchedRecordsMarcFile,
		&op.LinkToMatchedRecordsErrorsCsvFile,
		&op.LinkToModifiedRecordsCsvFile,
		&op.LinkToModifiedRecordsJsonFile,
		&op.LinkToModifiedRecordsMarcFile,
		&op.LinkToModifiedRecordsMarcCsvFile,
		&op.LinkToCommittedRecordsCsvFile,
		&op.LinkToCommittedRecordsJsonFile,
		&op.LinkToCommittedRecordsMarcFile,
		&op.LinkToCommittedRecordsMarcCsvFile,
		&op.LinkToCommittedRecordsErrorsCsvFile,
		&op.LinkToPreviewRecordsJsonFile,
	}
}
