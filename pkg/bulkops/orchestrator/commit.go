package orchestrator

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/marc"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// Commit applies the reviewed changes. Only the records that actually differ
// between the matched and modified artifacts are committed; unchanged
// records are recorded in the ledger. The operation finishes COMPLETED when
// the ledger holds no rows, COMPLETED_WITH_ERRORS otherwise, and a non-empty
// ledger is additionally exported as the errors CSV artifact. A failure
// mid-commit discards the partial committed artifacts and fails the
// operation.
func (s *Service) Commit(ctx context.Context, operationID string) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}
	if op.Status != model.StatusReviewChanges {
		return exception.NewBatchError(moduleName, fmt.Sprintf("cannot commit operation '%s' in state %s", op.ID, op.Status), nil, false, false)
	}
	if err := s.transition(ctx, op, model.StatusApplyChanges); err != nil {
		return err
	}

	var commitErr error
	if op.EntityType.IsMarcFlow() {
		commitErr = s.commitMarc(ctx, op)
	} else {
		commitErr = s.commitRecords(ctx, op)
	}

	// Ledger writes during the commit bump the operation's counters and
	// version out from under the in-memory copy; reload and carry over the
	// fields established here before persisting anything else.
	fresh, err := s.operations.FindByID(ctx, op.ID)
	if err != nil {
		return err
	}
	fresh.CommittedNumOfRecords = op.CommittedNumOfRecords
	fresh.LinkToCommittedRecordsCsvFile = op.LinkToCommittedRecordsCsvFile
	fresh.LinkToCommittedRecordsMarcFile = op.LinkToCommittedRecordsMarcFile
	op = fresh

	if commitErr != nil {
		s.discardCommitted(ctx, op)
		s.fail(ctx, op, commitErr.Error())
		return commitErr
	}

	status := model.StatusCompleted
	if op.CommittedNumOfErrors > 0 {
		status = model.StatusCompletedWithErrors
		if _, err := s.ledger.UploadCSV(ctx, op); err != nil {
			logger.Errorf("Failed to export errors CSV of operation %s: %v", op.ID, err)
		}
	}
	logger.Infof("Operation %s committed %d records with %d errors.",
		op.ID, op.CommittedNumOfRecords, op.CommittedNumOfErrors)
	return s.transition(ctx, op, status)
}

// commitMarc runs the MARC commit path as a tracked execution: diff the
// matched and modified MARC streams, stamp and keep only the changed
// records, and stage them as the committed artifact.
func (s *Service) commitMarc(ctx context.Context, op *model.BulkOperation) error {
	execution := model.NewExecution(op.ID)
	if err := s.executions.Save(ctx, execution); err != nil {
		return err
	}

	matched, err := s.store.Download(ctx, op.LinkToMatchedRecordsMarcFile)
	if err != nil {
		s.failExecution(ctx, execution)
		return exception.NewBatchError(moduleName, "failed to read matched MARC records", err, false, false)
	}
	defer matched.Close()

	modified, err := s.store.Download(ctx, op.LinkToModifiedRecordsMarcFile)
	if err != nil {
		s.failExecution(ctx, execution)
		return exception.NewBatchError(moduleName, "failed to read modified MARC records", err, false, false)
	}
	defer modified.Close()

	var committed bytes.Buffer
	differ := marc.NewDiffer(s.ledger)
	written, err := differ.Diff(ctx, op, matched, modified, &committed)
	if err != nil {
		s.failExecution(ctx, execution)
		return err
	}

	if written > 0 {
		uploaded, err := s.store.Upload(ctx, artifactPath(op.ID, committedRecordsName+marcExt), &committed, "application/octet-stream")
		if err != nil {
			s.failExecution(ctx, execution)
			return exception.NewBatchError(moduleName, "failed to stage committed MARC records", err, false, false)
		}
		op.LinkToCommittedRecordsMarcFile = uploaded
	}
	op.CommittedNumOfRecords = written

	execution.ProcessedRecords = written
	execution.Complete()
	return s.executions.Update(ctx, execution)
}

// commitRecords runs the non-MARC commit path: compare the matched and
// modified CSV tables row by row, stage the changed rows as the committed
// artifact and record unchanged rows in the ledger.
func (s *Service) commitRecords(ctx context.Context, op *model.BulkOperation) error {
	matched, err := s.store.Download(ctx, op.LinkToMatchedRecordsCsvFile)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to read matched records", err, false, false)
	}
	defer matched.Close()

	modified, err := s.store.Download(ctx, op.LinkToModifiedRecordsCsvFile)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to read modified records", err, false, false)
	}
	defer modified.Close()

	matchedCSV := csv.NewReader(matched)
	matchedCSV.FieldsPerRecord = -1
	modifiedCSV := csv.NewReader(modified)
	modifiedCSV.FieldsPerRecord = -1

	var committed bytes.Buffer
	committedCSV := csv.NewWriter(&committed)

	header, err := modifiedCSV.Read()
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to read modified records header", err, false, false)
	}
	if _, err := matchedCSV.Read(); err != nil {
		return exception.NewBatchError(moduleName, "failed to read matched records header", err, false, false)
	}
	if err := committedCSV.Write(header); err != nil {
		return exception.NewBatchError(moduleName, "failed to write committed records header", err, false, false)
	}

	written := 0
	for {
		matchedRow, matchedErr := matchedCSV.Read()
		modifiedRow, modifiedErr := modifiedCSV.Read()
		if matchedErr == io.EOF && modifiedErr == io.EOF {
			break
		}
		if matchedErr == io.EOF || modifiedErr == io.EOF {
			logger.Errorf("Matched and modified tables of operation %s have unequal lengths.", op.ID)
			return exception.NewBatchError(moduleName, "matched and modified tables have unequal lengths", nil, false, false)
		}
		if matchedErr != nil {
			return exception.NewBatchError(moduleName, "failed to read matched records row", matchedErr, false, false)
		}
		if modifiedErr != nil {
			return exception.NewBatchError(moduleName, "failed to read modified records row", modifiedErr, false, false)
		}

		if rowsEqual(matchedRow, modifiedRow) {
			identifier := ""
			if len(matchedRow) > 0 {
				identifier = matchedRow[0]
			}
			if err := s.ledger.Record(ctx, op.ID, identifier, model.MsgNoChangeRequired, "", ""); err != nil {
				return err
			}
			continue
		}

		if err := committedCSV.Write(modifiedRow); err != nil {
			return exception.NewBatchError(moduleName, "failed to write committed records row", err, false, false)
		}
		written++
	}
	committedCSV.Flush()
	if err := committedCSV.Error(); err != nil {
		return exception.NewBatchError(moduleName, "failed to flush committed records", err, false, false)
	}

	if written > 0 {
		uploaded, err := s.store.Upload(ctx, artifactPath(op.ID, committedRecordsName+csvExt), &committed, "text/csv")
		if err != nil {
			return exception.NewBatchError(moduleName, "failed to stage committed records", err, false, false)
		}
		op.LinkToCommittedRecordsCsvFile = uploaded
	}
	op.CommittedNumOfRecords = written
	return nil
}

// discardCommitted removes the partial committed artifacts of a failed
// commit and clears their links. Deletion failures are logged; the operation
// is failing anyway.
func (s *Service) discardCommitted(ctx context.Context, op *model.BulkOperation) {
	var result *multierror.Error
	for _, link := range []*string{&op.LinkToCommittedRecordsCsvFile, &op.LinkToCommittedRecordsMarcFile} {
		if *link == "" {
			continue
		}
		if err := s.store.Delete(ctx, *link); err != nil {
			result = multierror.Append(result, err)
		}
		*link = ""
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Errorf("Failed to discard partial committed artifacts of operation %s: %v", op.ID, err)
	}
}

// failExecution marks a MARC execution FAILED; persistence errors are logged
// because the caller is already propagating the original failure.
func (s *Service) failExecution(ctx context.Context, execution *model.Execution) {
	execution.Fail()
	if err := s.executions.Update(ctx, execution); err != nil {
		logger.Errorf("Failed to persist FAILED state of execution %s: %v", execution.ID, err)
	}
}

// rowsEqual compares two CSV rows field by field.
func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
