package orchestrator

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/preview"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

// ModifiedFormat names the artifact format of a staged modified-records file.
type ModifiedFormat string

const (
	ModifiedFormatCSV  ModifiedFormat = "CSV"
	ModifiedFormatMarc ModifiedFormat = "MARC"
)

// SaveModified stages a client-produced modified-records artifact and moves
// the operation to REVIEW_CHANGES. Re-staging while already under review
// overwrites the artifact and stays in REVIEW_CHANGES, so a client can
// iterate on its edits before committing.
func (s *Service) SaveModified(ctx context.Context, operationID string, format ModifiedFormat, content io.Reader) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}
	if op.Status != model.StatusDataModification && op.Status != model.StatusReviewChanges {
		return exception.NewBatchError(moduleName, fmt.Sprintf("cannot stage modified records for operation '%s' in state %s", op.ID, op.Status), nil, false, false)
	}

	switch format {
	case ModifiedFormatCSV:
		uploaded, err := s.store.Upload(ctx, artifactPath(op.ID, modifiedRecordsName+csvExt), content, "text/csv")
		if err != nil {
			return exception.NewBatchError(moduleName, "failed to stage modified records", err, false, false)
		}
		op.LinkToModifiedRecordsCsvFile = uploaded
	case ModifiedFormatMarc:
		uploaded, err := s.store.Upload(ctx, artifactPath(op.ID, modifiedRecordsName+marcExt), content, "application/octet-stream")
		if err != nil {
			return exception.NewBatchError(moduleName, "failed to stage modified MARC records", err, false, false)
		}
		op.LinkToModifiedRecordsMarcFile = uploaded
	default:
		return exception.NewBatchError(moduleName, fmt.Sprintf("unknown modified records format '%s'", format), nil, false, false)
	}

	if op.Status == model.StatusReviewChanges {
		return s.operations.Update(ctx, op)
	}
	return s.transition(ctx, op, model.StatusReviewChanges)
}

// PreviewKind selects which staged table a preview renders.
type PreviewKind string

const (
	PreviewMatched  PreviewKind = "MATCHED"
	PreviewModified PreviewKind = "MODIFIED"
)

// Preview loads the selected staged CSV, expands its notes column into one
// column per note type and returns up to limit rows. currentTenant and
// central describe the caller's consortial position for note-type naming.
func (s *Service) Preview(ctx context.Context, operationID string, kind PreviewKind, currentTenant string, central bool, limit int) (*preview.Table, error) {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return nil, err
	}

	link := op.LinkToMatchedRecordsCsvFile
	if kind == PreviewModified {
		link = op.LinkToModifiedRecordsCsvFile
	}
	if link == "" {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("operation '%s' has no staged %s records", op.ID, kind), nil, false, false)
	}

	reader, err := s.store.Download(ctx, link)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to read staged records", err, false, false)
	}
	defer reader.Close()

	table, err := readTable(reader, limit)
	if err != nil {
		return nil, err
	}

	if table.ColumnIndex("Notes") >= 0 {
		if err := s.transposer.Transpose(ctx, table, op, currentTenant, central, nil); err != nil {
			return nil, err
		}
		// Transpose may compute and cache the tenant/note-type pairs on the
		// aggregate; persist them so commit renders the same columns.
		if err := s.operations.Update(ctx, op); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// readTable parses a staged CSV into a preview table, keeping at most limit
// data rows. limit <= 0 keeps everything.
func readTable(r io.Reader, limit int) (*preview.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to read staged records header", err, false, false)
	}

	table := &preview.Table{}
	for _, name := range header {
		table.Headers = append(table.Headers, preview.HeaderCell{Value: name, Visible: true, DataType: preview.DataTypeString})
	}

	for limit <= 0 || len(table.Rows) < limit {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to read staged records row", err, false, false)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
