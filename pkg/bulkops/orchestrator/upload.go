package orchestrator

import (
	"context"
	"fmt"
	"io"
	"path"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// StartUpload stages the triggering identifiers file and hands it to the
// external export system. The operation advances to RETRIEVING_IDENTIFIERS
// while the file is staged and to RETRIEVING_RECORDS once the export job is
// accepted; an unexpected job status fails the operation immediately.
func (s *Service) StartUpload(ctx context.Context, operationID, fileName string, content io.Reader) error {
	op, err := s.operations.FindByID(ctx, operationID)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, op, model.StatusRetrievingIdentifiers); err != nil {
		return err
	}

	triggeringPath := artifactPath(op.ID, path.Base(fileName))
	uploaded, err := s.store.Upload(ctx, triggeringPath, content, "text/csv")
	if err != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to stage triggering file: %v", err))
		return err
	}
	op.LinkToTriggeringCsvFile = uploaded

	staged, err := s.store.Download(ctx, uploaded)
	if err != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to read staged triggering file: %v", err))
		return err
	}
	defer staged.Close()

	job, err := s.exports.CreateJob(ctx, op.EntityType, op.IdentifierType, staged)
	if err != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to create export job: %v", err))
		return err
	}
	op.DataExportJobID = job.ID

	switch job.Status {
	case port.ExportJobScheduled:
		if err := s.exports.StartJob(ctx, job.ID); err != nil {
			s.fail(ctx, op, fmt.Sprintf("failed to start export job %s: %v", job.ID, err))
			return err
		}
	case port.ExportJobInProgress, port.ExportJobSuccessful:
		// Already running or done; updates arrive through job events.
	default:
		message := fmt.Sprintf("export job %s returned unexpected status %s", job.ID, job.Status)
		s.fail(ctx, op, message)
		return exception.NewBatchError(moduleName, message, nil, false, false)
	}

	return s.transition(ctx, op, model.StatusRetrievingRecords)
}

// HandleJobUpdate applies one asynchronous export job event. Delivery is
// at-least-once: events for operations already past RETRIEVING_RECORDS or
// already terminal are ignored. Progress events only update counters.
func (s *Service) HandleJobUpdate(ctx context.Context, event *port.JobUpdateEvent) error {
	op, err := s.operations.FindByExportJobID(ctx, event.JobID)
	if err != nil {
		return err
	}
	if op.Status.IsTerminal() {
		logger.Debugf("Ignoring job update %s for terminal operation %s.", event.JobID, op.ID)
		return nil
	}

	switch event.BatchStatus {
	case port.BatchStatusInProgress:
		if event.Progress != nil {
			op.TotalNumOfRecords = event.Progress.Total
			op.ProcessedNumOfRecords = event.Progress.Processed
			return s.operations.Update(ctx, op)
		}
		return nil

	case port.BatchStatusCompleted, port.BatchStatusCompletedWithErrors:
		if op.Status != model.StatusRetrievingRecords {
			logger.Debugf("Ignoring duplicate completion event for operation %s in state %s.", op.ID, op.Status)
			return nil
		}
		return s.completeRetrieval(ctx, op, event)

	case port.BatchStatusFailed, port.BatchStatusCancelled:
		// The event's error details are taken verbatim; a job that failed
		// without details leaves the message empty.
		op.Fail(event.ErrorDetails)
		if event.EndTime != nil {
			op.EndTime = event.EndTime
		}
		if err := s.operations.Update(ctx, op); err != nil {
			return err
		}
		s.recorder.RecordOperationEnd(ctx, op)
		return nil

	default:
		logger.Warnf("Unknown batch status %s in job update for operation %s.", event.BatchStatus, op.ID)
		return nil
	}
}

// completeRetrieval downloads the export job's result artifacts into the
// store at their fixed positions and advances the operation to
// DATA_MODIFICATION.
func (s *Service) completeRetrieval(ctx context.Context, op *model.BulkOperation, event *port.JobUpdateEvent) error {
	matchedURL := event.FileAt(port.FileIndexMatchedCSV)
	if matchedURL == "" {
		message := fmt.Sprintf("export job %s completed without a matched records file", event.JobID)
		s.fail(ctx, op, message)
		return exception.NewBatchError(moduleName, message, nil, false, false)
	}

	matchedPath, err := s.copyJobFile(ctx, matchedURL, artifactPath(op.ID, matchedRecordsName+csvExt), "text/csv")
	if err != nil {
		s.fail(ctx, op, fmt.Sprintf("failed to stage matched records: %v", err))
		return err
	}
	op.LinkToMatchedRecordsCsvFile = matchedPath

	if errorsURL := event.FileAt(port.FileIndexErrorsCSV); errorsURL != "" {
		errorsPath, err := s.copyJobFile(ctx, errorsURL, artifactPath(op.ID, matchedRecordsName+"-Errors"+csvExt), "text/csv")
		if err != nil {
			s.fail(ctx, op, fmt.Sprintf("failed to stage matching errors: %v", err))
			return err
		}
		op.LinkToMatchedRecordsErrorsCsvFile = errorsPath
	}

	if originURL := event.FileAt(port.FileIndexOriginJSON); originURL != "" {
		originPath, err := s.copyJobFile(ctx, originURL, jsonArtifactPath(op.ID, matchedRecordsName+jsonExt), "application/json")
		if err != nil {
			s.fail(ctx, op, fmt.Sprintf("failed to stage origin records: %v", err))
			return err
		}
		op.LinkToMatchedRecordsJsonFile = originPath
	}

	if event.Progress != nil {
		op.TotalNumOfRecords = event.Progress.Total
		op.ProcessedNumOfRecords = event.Progress.Processed
		op.MatchedNumOfRecords = event.Progress.Processed
	}

	logger.Infof("Export job %s completed for operation %s, artifacts staged.", event.JobID, op.ID)
	return s.transition(ctx, op, model.StatusDataModification)
}

// copyJobFile streams one export job result from its remote URL into the
// artifact store.
func (s *Service) copyJobFile(ctx context.Context, url, destination, contentType string) (string, error) {
	body, err := s.exports.DownloadFile(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return s.store.Upload(ctx, destination, body, contentType)
}

var _ port.JobUpdateHandler = (*Service)(nil)
