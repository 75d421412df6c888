package port

import (
	"context"
	"time"
)

// BatchStatus is the status carried by an asynchronous job-update event.
type BatchStatus string

const (
	BatchStatusInProgress          BatchStatus = "IN_PROGRESS"
	BatchStatusCompleted           BatchStatus = "COMPLETED"
	BatchStatusCompletedWithErrors BatchStatus = "COMPLETED_WITH_ERRORS"
	BatchStatusFailed              BatchStatus = "FAILED"
	BatchStatusCancelled           BatchStatus = "CANCELLED"
)

// Progress carries the running counters of an export job.
type Progress struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
}

// Fixed positions of the export job's result file URLs in JobUpdateEvent.Files.
const (
	FileIndexMatchedCSV = 0
	FileIndexErrorsCSV  = 1
	FileIndexOriginJSON = 2
)

// JobUpdateEvent is a job-status-update message from the export system.
// Delivery is at-least-once and unordered across partitions; consumers must
// tolerate duplicates of the same event.
type JobUpdateEvent struct {
	JobID        string      `json:"jobId"`
	BatchStatus  BatchStatus `json:"batchStatus"`
	Progress     *Progress   `json:"progress,omitempty"`
	EndTime      *time.Time  `json:"endTime,omitempty"`
	ErrorDetails string      `json:"errorDetails,omitempty"`
	// Files is a fixed-position array: index 0 = matched-records CSV URL,
	// index 1 = errors CSV URL (optional), index 2 = origin JSON URL.
	Files []string `json:"files,omitempty"`
}

// FileAt returns the file URL at the given fixed position, or empty when the
// event carries no such entry.
func (e *JobUpdateEvent) FileAt(index int) string {
	if index < 0 || index >= len(e.Files) {
		return ""
	}
	return e.Files[index]
}

// JobUpdateHandler reacts to job-update events. The orchestrator implements
// this; the consumer feeding it is wired at the application edge.
type JobUpdateHandler interface {
	HandleJobUpdate(ctx context.Context, event *JobUpdateEvent) error
}

// JobUpdateSource delivers job-update events to a handler until the context
// is cancelled. Implementations wrap the message broker consumer.
type JobUpdateSource interface {
	Subscribe(ctx context.Context, handler JobUpdateHandler) error
}
