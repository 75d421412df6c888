package orchestrator

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/marc"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// msgNoRecordsFound is the failure message of a query that matched nothing.
const msgNoRecordsFound = "No records found for the query"

// StartQuery submits the operation's saved query for execution and moves the
// operation to EXECUTING_QUERY. Retrieval continues in PollQuery.
func (s *Service) StartQuery(ctx context.Context, operationID string) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}
	if op.ApproachType != model.ApproachQuery {
		return exception.NewBatchError(moduleName, fmt.Sprintf("operation '%s' was not submitted with the query approach", op.ID), nil, false, false)
	}

	execution, err := s.queries.Execute(ctx, op.FqlQueryID, op.EntityType)
	if err != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to execute query: %v", err))
		return err
	}
	op.FqlQueryID = execution.ID
	return s.transition(ctx, op, model.StatusExecutingQuery)
}

// PollQuery watches the query execution until it settles, then retrieves the
// matched records. Zero matches fail the operation with a fixed message;
// external cancellation cancels it. PollQuery blocks and is meant to run on
// its own goroutine per operation.
func (s *Service) PollQuery(ctx context.Context, operationID string) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}

	interval := time.Duration(s.cfg.QueryPollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	for {
		execution, err := s.queries.Status(ctx, op.FqlQueryID)
		if err != nil {
			s.fail(ctx, op, fmt.Sprintf("failed to poll query status: %v", err))
			return err
		}

		switch execution.Status {
		case port.QuerySuccess:
			if execution.TotalRecords == 0 {
				s.fail(ctx, op, msgNoRecordsFound)
				return nil
			}
			op.TotalNumOfRecords = execution.TotalRecords
			if err := s.transition(ctx, op, model.StatusSavedIdentifiers); err != nil {
				return err
			}
			if err := s.transition(ctx, op, model.StatusRetrievingRecords); err != nil {
				return err
			}
			return s.retrieveQueryRecords(ctx, op)

		case port.QueryFailed:
			message := execution.FailureReason
			if message == "" {
				message = "query execution failed"
			}
			s.fail(ctx, op, message)
			return nil

		case port.QueryCancelled:
			op.Cancel("query execution was cancelled")
			if err := s.operations.Update(ctx, op); err != nil {
				return err
			}
			s.recorder.RecordOperationEnd(ctx, op)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// rowOutcome is the screening result of one query result row. A non-empty
// ledgerMessage marks a rejection to be recorded against the identifier.
type rowOutcome struct {
	include       bool
	identifier    string
	recordID      string
	raw           []byte
	ledgerMessage string
}

// stagedUpload streams one artifact into the store while it is produced, so
// result sets larger than memory never accumulate locally.
type stagedUpload struct {
	writer *io.PipeWriter
	done   chan struct{}
	path   string
	err    error
}

// stageStream starts an upload fed from a pipe. Bytes written to the
// returned upload's writer stream straight into the store.
func (s *Service) stageStream(ctx context.Context, objectPath, contentType string) *stagedUpload {
	reader, writer := io.Pipe()
	u := &stagedUpload{writer: writer, done: make(chan struct{})}
	go func() {
		defer close(u.done)
		path, err := s.store.Upload(ctx, objectPath, reader, contentType)
		if err != nil {
			reader.CloseWithError(err)
			u.err = err
			return
		}
		u.path = path
	}()
	return u
}

// close finishes the stream and waits for the upload to settle. A non-nil
// cause aborts the upload and is returned as-is.
func (u *stagedUpload) close(cause error) (string, error) {
	if cause != nil {
		u.writer.CloseWithError(cause)
	} else {
		u.writer.Close()
	}
	<-u.done
	if cause != nil {
		return "", cause
	}
	return u.path, u.err
}

// retrieveQueryRecords streams the query result pages, screens every record
// and stages the matched artifacts page by page: a headered CSV table
// rendered through the cell codec and the raw records as a JSON array.
// Screening (permission and source-type checks) runs on a bounded worker
// pool per page; rejected records land in the ledger and are excluded from
// the artifacts. Ledger writes bump the aggregate version, so the operation
// is reloaded before each page's counters are persisted.
func (s *Service) retrieveQueryRecords(ctx context.Context, op *model.BulkOperation) error {
	if err := s.transition(ctx, op, model.StatusSavingRecordsLocally); err != nil {
		return err
	}

	pageSize := s.cfg.QueryPageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	consortial := len(op.UsedTenants) > 0

	csvUpload := s.stageStream(ctx, artifactPath(op.ID, matchedRecordsName+csvExt), "text/csv")
	jsonUpload := s.stageStream(ctx, jsonArtifactPath(op.ID, matchedRecordsName+jsonExt), "application/json")
	csvWriter := csv.NewWriter(csvUpload.writer)

	var instanceIDs []string
	matched := 0

	streamErr := func() error {
		if err := csvWriter.Write(s.codec.HeaderRow(op.EntityType, op.IdentifierType)); err != nil {
			return exception.NewBatchError(moduleName, "failed to write matched records header", err, false, false)
		}
		if _, err := io.WriteString(jsonUpload.writer, "["); err != nil {
			return exception.NewBatchError(moduleName, "failed to stream matched records JSON", err, false, false)
		}

		first := true
		processed := 0
		for offset := 0; ; offset += pageSize {
			page, err := s.queries.Page(ctx, op.FqlQueryID, offset, pageSize)
			if err != nil {
				return exception.NewBatchError(moduleName, "failed to fetch query result page", err, false, true)
			}
			if len(page.Rows) == 0 {
				break
			}

			outcomes := s.screenPage(ctx, op, page.Rows)
			for _, outcome := range outcomes {
				if outcome.ledgerMessage != "" {
					if err := s.ledger.Record(ctx, op.ID, outcome.identifier, outcome.ledgerMessage, "", ""); err != nil {
						logger.Errorf("Failed to record screening failure for operation %s: %v", op.ID, err)
					}
					s.recorder.RecordLedgerEntry(ctx, op.EntityType)
				}
				if !outcome.include {
					continue
				}

				row, err := s.codec.EncodeRow(ctx, op.EntityType, op.IdentifierType, outcome.raw, consortial)
				if err != nil {
					return err
				}
				if err := csvWriter.Write(row); err != nil {
					return exception.NewBatchError(moduleName, "failed to write matched records row", err, false, false)
				}
				if !first {
					if _, err := io.WriteString(jsonUpload.writer, ","); err != nil {
						return exception.NewBatchError(moduleName, "failed to stream matched records JSON", err, false, false)
					}
				}
				first = false
				if _, err := jsonUpload.writer.Write(outcome.raw); err != nil {
					return exception.NewBatchError(moduleName, "failed to stream matched records JSON", err, false, false)
				}
				if op.EntityType.IsMarcFlow() {
					instanceIDs = append(instanceIDs, outcome.recordID)
				}
				matched++
			}

			processed += len(page.Rows)
			fresh, err := s.operations.FindByID(ctx, op.ID)
			if err != nil {
				return err
			}
			fresh.ProcessedNumOfRecords = processed
			fresh.MatchedNumOfRecords = matched
			*op = *fresh
			if err := s.operations.Update(ctx, op); err != nil {
				return err
			}
			s.recorder.RecordRecordsProcessed(ctx, op.EntityType, len(page.Rows))
		}

		if _, err := io.WriteString(jsonUpload.writer, "]"); err != nil {
			return exception.NewBatchError(moduleName, "failed to stream matched records JSON", err, false, false)
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			return exception.NewBatchError(moduleName, "failed to flush matched records CSV", err, false, false)
		}
		return nil
	}()

	csvPath, csvErr := csvUpload.close(streamErr)
	jsonPath, jsonErr := jsonUpload.close(streamErr)
	if streamErr == nil {
		streamErr = csvErr
	}
	if streamErr == nil {
		streamErr = jsonErr
	}
	if streamErr != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to stage matched records: %v", streamErr))
		return streamErr
	}
	op.LinkToMatchedRecordsCsvFile = csvPath
	op.LinkToMatchedRecordsJsonFile = jsonPath

	if op.EntityType.IsMarcFlow() && len(instanceIDs) > 0 {
		marcUpload := s.stageStream(ctx, artifactPath(op.ID, matchedRecordsName+marcExt), "application/octet-stream")
		fetcher := marc.NewFetcher(s.sources, s.operations, s.cfg.MarcChunkSize)
		fetchErr := fetcher.FetchCommitted(ctx, op, instanceIDs, marcUpload.writer)
		marcPath, closeErr := marcUpload.close(fetchErr)
		if fetchErr == nil {
			fetchErr = closeErr
		}
		if fetchErr != nil {
			s.fail(ctx, op, fmt.Sprintf("failed to stage MARC records: %v", fetchErr))
			return fetchErr
		}
		op.LinkToMatchedRecordsMarcFile = marcPath
	}

	logger.Infof("Operation %s matched %d of %d records from query %s.", op.ID, matched, op.ProcessedNumOfRecords, op.FqlQueryID)
	return s.transition(ctx, op, model.StatusDataModification)
}

// screenPage screens one page of rows on a bounded worker pool, preserving
// row order in the result.
func (s *Service) screenPage(ctx context.Context, op *model.BulkOperation, rows [][]byte) []rowOutcome {
	workers := s.cfg.IdentifierWorkers
	if workers <= 0 {
		workers = 1
	}

	outcomes := make([]rowOutcome, len(rows))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, raw := range rows {
		wg.Add(1)
		go func(i int, raw []byte) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.screenRow(ctx, op, raw)
		}(i, raw)
	}
	wg.Wait()
	return outcomes
}

// screenRow deserializes one jsonb row and applies the per-record checks. It
// only computes the outcome; ledger recording happens sequentially on the
// caller because ledger writes mutate the operation aggregate.
func (s *Service) screenRow(ctx context.Context, op *model.BulkOperation, raw []byte) rowOutcome {
	identifier, recordID, tenantID, sourceErr := parseQueryRecord(op, raw)
	if identifier == "" && recordID == "" {
		return rowOutcome{identifier: "unknown", ledgerMessage: "failed to deserialize matched record"}
	}

	if sourceErr != "" {
		return rowOutcome{identifier: identifier, ledgerMessage: sourceErr}
	}

	if err := s.permissions.CanRead(ctx, op.EntityType, recordID, tenantID); err != nil {
		return rowOutcome{identifier: identifier, ledgerMessage: err.Error()}
	}

	return rowOutcome{include: true, identifier: identifier, recordID: recordID, raw: raw}
}

// parseQueryRecord extracts the business identifier, record uuid and tenant
// from one jsonb row according to the operation's entity type. For MARC
// instance operations a non-MARC source is a screening failure reported in
// the fourth return value.
func parseQueryRecord(op *model.BulkOperation, raw []byte) (identifier, recordID, tenantID, sourceErr string) {
	switch op.EntityType {
	case model.EntityTypeUser:
		var user model.User
		if err := json.Unmarshal(raw, &user); err != nil {
			return "", "", "", ""
		}
		return user.Identifier(op.IdentifierType), user.ID, "", ""

	case model.EntityTypeItem:
		var item model.Item
		if err := json.Unmarshal(raw, &item); err != nil {
			return "", "", "", ""
		}
		return item.Identifier(op.IdentifierType), item.ID, item.TenantID, ""

	case model.EntityTypeHoldingsRecord:
		var holdings model.HoldingsRecord
		if err := json.Unmarshal(raw, &holdings); err != nil {
			return "", "", "", ""
		}
		return holdings.Identifier(op.IdentifierType), holdings.ID, holdings.TenantID, ""

	default:
		var instance model.Instance
		if err := json.Unmarshal(raw, &instance); err != nil {
			return "", "", "", ""
		}
		if op.EntityType.IsMarcFlow() && instance.Source != "MARC" {
			sourceErr = fmt.Sprintf("instance source %s is not supported for MARC editing", instance.Source)
		}
		return instance.Identifier(op.IdentifierType), instance.ID, instance.TenantID, sourceErr
	}
}
