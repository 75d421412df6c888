// Package ledger implements the per-record outcome ledger of a bulk
// operation: an append-only record of per-record failures accumulated during
// retrieval and commit, with CSV export for download.
package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/opencatalog/bulkops/pkg/bulkops/adapter/storage"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

const moduleName = "ledger"

// errorsFileSuffix is appended to the triggering file's base name to derive
// the exported errors CSV name.
const errorsFileSuffix = "-Errors.csv"

// exportPageSize bounds memory during CSV export.
const exportPageSize = 500

// Service records, lists and exports per-record outcomes.
type Service struct {
	operations repository.OperationRepository
	contents   repository.ContentRepository
	store      storage.ArtifactStore
}

// NewService creates a ledger Service.
func NewService(operations repository.OperationRepository, contents repository.ContentRepository, store storage.ArtifactStore) *Service {
	return &Service{operations: operations, contents: contents, store: store}
}

// Record appends one outcome row for the given record. Every row counts
// toward the operation's error counter, including the "no change required"
// sentinel, which is additionally recorded at most once per (operation,
// identifier) pair. The counter is only incremented when no identical row
// was already recorded, so retried batches do not inflate it.
func (s *Service) Record(ctx context.Context, operationID, identifier, errorMessage, uiErrorMessage, link string) error {
	if errorMessage == model.MsgNoChangeRequired {
		exists, err := s.contents.ExistsByOperationAndIdentifier(ctx, operationID, identifier)
		if err != nil {
			return exception.NewBatchError(moduleName, fmt.Sprintf("failed to check ledger for identifier '%s'", identifier), err, false, false)
		}
		if exists {
			return nil
		}
	}

	exact, err := s.contents.ExistsExact(ctx, operationID, identifier, errorMessage)
	if err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to check ledger for identifier '%s'", identifier), err, false, false)
	}
	if !exact {
		op, err := s.operations.FindByID(ctx, operationID)
		if err != nil {
			return exception.NewBatchError(moduleName, fmt.Sprintf("failed to load operation '%s'", operationID), err, false, false)
		}
		op.CommittedNumOfErrors++
		if err := s.operations.Update(ctx, op); err != nil {
			return exception.NewBatchError(moduleName, fmt.Sprintf("failed to update error counter of operation '%s'", operationID), err, false, false)
		}
	}

	content := model.NewFailedContent(operationID, identifier, errorMessage, uiErrorMessage, link)
	if err := s.contents.Save(ctx, content); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to save ledger row for identifier '%s'", identifier), err, false, false)
	}
	return nil
}

// List returns one page of ledger rows plus the total row count.
func (s *Service) List(ctx context.Context, operationID string, offset, limit int) ([]*model.ExecutionContent, int64, error) {
	rows, err := s.contents.FindByOperation(ctx, operationID, offset, limit)
	if err != nil {
		return nil, 0, exception.NewBatchError(moduleName, fmt.Sprintf("failed to list ledger rows of operation '%s'", operationID), err, false, false)
	}
	total, err := s.contents.CountByOperation(ctx, operationID)
	if err != nil {
		return nil, 0, exception.NewBatchError(moduleName, fmt.Sprintf("failed to count ledger rows of operation '%s'", operationID), err, false, false)
	}
	return rows, total, nil
}

// WriteCSV streams all ledger rows of the operation as headerless
// identifier,message CSV, paging through the repository to bound memory.
func (s *Service) WriteCSV(ctx context.Context, operationID string, w io.Writer) error {
	cw := csv.NewWriter(w)
	for offset := 0; ; offset += exportPageSize {
		rows, err := s.contents.FindByOperation(ctx, operationID, offset, exportPageSize)
		if err != nil {
			return exception.NewBatchError(moduleName, fmt.Sprintf("failed to page ledger rows of operation '%s'", operationID), err, false, false)
		}
		for _, row := range rows {
			if err := cw.Write([]string{row.Identifier, row.DisplayMessage()}); err != nil {
				return exception.NewBatchError(moduleName, "failed to write errors CSV row", err, false, false)
			}
		}
		if len(rows) < exportPageSize {
			break
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return exception.NewBatchError(moduleName, "failed to flush errors CSV", err, false, false)
	}
	return nil
}

// UploadCSV exports the operation's ledger as a CSV artifact, names it after
// the triggering file plus the errors suffix, and caches the resulting path
// on the operation. The export happens at most once: a cached path is
// returned as-is on subsequent calls.
func (s *Service) UploadCSV(ctx context.Context, op *model.BulkOperation) (string, error) {
	if op.LinkToCommittedRecordsErrorsCsvFile != "" {
		return op.LinkToCommittedRecordsErrorsCsvFile, nil
	}

	var buf bytes.Buffer
	if err := s.WriteCSV(ctx, op.ID, &buf); err != nil {
		return "", err
	}

	artifactPath := path.Join(op.ID, errorsFileName(op.LinkToTriggeringCsvFile))
	uploaded, err := s.store.Upload(ctx, artifactPath, &buf, "text/csv")
	if err != nil {
		return "", exception.NewBatchError(moduleName, fmt.Sprintf("failed to upload errors CSV for operation '%s'", op.ID), err, false, false)
	}

	op.LinkToCommittedRecordsErrorsCsvFile = uploaded
	if err := s.operations.Update(ctx, op); err != nil {
		return "", exception.NewBatchError(moduleName, fmt.Sprintf("failed to cache errors CSV path on operation '%s'", op.ID), err, false, false)
	}
	logger.Infof("Uploaded errors CSV for operation %s to %s.", op.ID, uploaded)
	return uploaded, nil
}

// Reset discards all ledger rows of the operation and zeroes its error
// counters. Used when a review is restarted with new rules.
func (s *Service) Reset(ctx context.Context, op *model.BulkOperation) error {
	if err := s.contents.DeleteByOperation(ctx, op.ID); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to delete ledger rows of operation '%s'", op.ID), err, false, false)
	}
	op.CommittedNumOfErrors = 0
	op.CommittedNumOfWarnings = 0
	if err := s.operations.Update(ctx, op); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to reset error counters of operation '%s'", op.ID), err, false, false)
	}
	return nil
}

// errorsFileName derives the exported CSV name from the triggering file's
// base name. Operations without a triggering file fall back to a fixed name.
func errorsFileName(triggeringPath string) string {
	base := path.Base(triggeringPath)
	if base == "." || base == "/" || base == "" {
		return "errors" + errorsFileSuffix
	}
	return strings.TrimSuffix(base, path.Ext(base)) + errorsFileSuffix
}
