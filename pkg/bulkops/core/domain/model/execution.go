package model

import (
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus represents the state of a MARC commit sub-job.
type ExecutionStatus string

const (
	ExecutionStatusActive    ExecutionStatus = "ACTIVE"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
)

// Execution tracks one MARC commit attempt for a bulk operation. The MARC
// commit path runs as a distinguishable sub-unit whose own progress and
// failure must be inspectable independent of the parent operation's status.
type Execution struct {
	ID               string
	BulkOperationID  string
	StartTime        time.Time
	EndTime          *time.Time
	ProcessedRecords int
	Status           ExecutionStatus
}

// NewExecution creates an ACTIVE execution for the given operation.
func NewExecution(operationID string) *Execution {
	return &Execution{
		ID:              uuid.NewString(),
		BulkOperationID: operationID,
		StartTime:       time.Now(),
		Status:          ExecutionStatusActive,
	}
}

// Complete marks the execution COMPLETED and stamps its end time.
func (e *Execution) Complete() {
	e.Status = ExecutionStatusCompleted
	now := time.Now()
	e.EndTime = &now
}

// Fail marks the execution FAILED and stamps its end time.
func (e *Execution) Fail() {
	e.Status = ExecutionStatusFailed
	now := time.Now()
	e.EndTime = &now
}
