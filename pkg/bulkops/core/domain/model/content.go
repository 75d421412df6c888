package model

import (
	"time"

	"github.com/google/uuid"
)

// StateType classifies the outcome recorded for a single record of a bulk
// operation.
type StateType string

const (
	StateProcessed StateType = "PROCESSED"
	StateFailed    StateType = "FAILED"
)

// MsgNoChangeRequired is the reserved ledger message recorded for records
// whose modified form is identical to the matched form. Its exact text is
// contractual: the ledger de-duplicates on it.
const MsgNoChangeRequired = "No change in value required"

// ExecutionContent is one append-only ledger row recording the outcome of a
// single record during modification or commit. Rows are never updated, only
// inserted, and are bulk-deleted when an operation's errors are reset.
type ExecutionContent struct {
	ID              string
	BulkOperationID string
	// Identifier is the business identifier of the record (barcode, HRID,
	// uuid), not a surrogate key.
	Identifier string
	State      StateType
	// ErrorMessage is the raw failure message.
	ErrorMessage string
	// UIErrorMessage is an optional human-facing message, preferred for
	// display when present.
	UIErrorMessage string
	// LinkToFailedEntity optionally points at the record that failed.
	LinkToFailedEntity string
	CreatedAt          time.Time
}

// NewFailedContent creates a FAILED ledger row for the given record.
func NewFailedContent(operationID, identifier, errorMessage, uiErrorMessage, link string) *ExecutionContent {
	return &ExecutionContent{
		ID:                 uuid.NewString(),
		BulkOperationID:    operationID,
		Identifier:         identifier,
		State:              StateFailed,
		ErrorMessage:       errorMessage,
		UIErrorMessage:     uiErrorMessage,
		LinkToFailedEntity: link,
		CreatedAt:          time.Now(),
	}
}

// DisplayMessage returns the message preferred for user display: the UI
// message when present, otherwise the raw error message.
func (c *ExecutionContent) DisplayMessage() string {
	if c.UIErrorMessage != "" {
		return c.UIErrorMessage
	}
	return c.ErrorMessage
}
