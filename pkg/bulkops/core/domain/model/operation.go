package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationStatus represents the state of a bulk operation in its lifecycle.
type OperationStatus string

const (
	StatusNew                   OperationStatus = "NEW"
	StatusRetrievingIdentifiers OperationStatus = "RETRIEVING_IDENTIFIERS"
	StatusSavedIdentifiers      OperationStatus = "SAVED_IDENTIFIERS"
	StatusExecutingQuery        OperationStatus = "EXECUTING_QUERY"
	StatusRetrievingRecords     OperationStatus = "RETRIEVING_RECORDS"
	StatusSavingRecordsLocally  OperationStatus = "SAVING_RECORDS_LOCALLY"
	StatusDataModification      OperationStatus = "DATA_MODIFICATION"
	StatusReviewChanges         OperationStatus = "REVIEW_CHANGES"
	StatusApplyChanges          OperationStatus = "APPLY_CHANGES"
	StatusCompleted             OperationStatus = "COMPLETED"
	StatusCompletedWithErrors   OperationStatus = "COMPLETED_WITH_ERRORS"
	StatusFailed                OperationStatus = "FAILED"
	StatusCancelled             OperationStatus = "CANCELLED"
)

// String returns the string representation of the OperationStatus.
func (s OperationStatus) String() string {
	return string(s)
}

// IsTerminal checks if the OperationStatus represents a terminal state.
// Terminal operations accept no further transitions.
func (s OperationStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// EntityType classifies the kind of catalog record a bulk operation edits.
type EntityType string

const (
	EntityTypeUser           EntityType = "USER"
	EntityTypeItem           EntityType = "ITEM"
	EntityTypeHoldingsRecord EntityType = "HOLDINGS_RECORD"
	EntityTypeInstance       EntityType = "INSTANCE"
	EntityTypeInstanceMarc   EntityType = "INSTANCE_MARC"
)

// IsMarcFlow reports whether records of this type travel through the MARC
// commit path instead of direct field comparison.
func (t EntityType) IsMarcFlow() bool {
	return t == EntityTypeInstanceMarc
}

// QueryResultColumn returns the column name carrying the record body in
// saved-query result rows for this entity type.
func (t EntityType) QueryResultColumn() string {
	switch t {
	case EntityTypeUser:
		return "users.jsonb"
	case EntityTypeItem:
		return "items.jsonb"
	case EntityTypeHoldingsRecord:
		return "holdings.jsonb"
	default:
		return "instance.jsonb"
	}
}

// IdentifierType names the business identifier used to match records.
type IdentifierType string

const (
	IdentifierTypeID              IdentifierType = "ID"
	IdentifierTypeBarcode         IdentifierType = "BARCODE"
	IdentifierTypeHrid            IdentifierType = "HRID"
	IdentifierTypeUsername        IdentifierType = "USER_NAME"
	IdentifierTypeExternalID      IdentifierType = "EXTERNAL_SYSTEM_ID"
	IdentifierTypeAccessionNumber IdentifierType = "ACCESSION_NUMBER"
	IdentifierTypeISBN            IdentifierType = "ISBN"
	IdentifierTypeISSN            IdentifierType = "ISSN"
)

// ApproachType distinguishes how a bulk operation was started.
type ApproachType string

const (
	// ApproachManual means the client uploaded an identifiers file.
	ApproachManual ApproachType = "MANUAL"
	// ApproachQuery means the client referenced a saved query.
	ApproachQuery ApproachType = "QUERY"
)

// TenantNotePair associates a note type name with the tenant it belongs to.
// The orchestrator computes the full pair set once per consortial operation
// and caches it on the aggregate so preview and commit render identically.
type TenantNotePair struct {
	TenantID string `json:"tenantId"`
	NoteType string `json:"noteType"`
}

// TenantNotePairs is the cached tenant/note-type mapping for an operation.
type TenantNotePairs []TenantNotePair

// Value implements driver.Valuer, serializing the pairs to JSON. The zero
// value serializes to an empty array, never to nil, so the column type stays
// inferable from the zero aggregate.
func (p TenantNotePairs) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner, deserializing the pairs from JSON. An empty
// array scans to nil, which marks the pair set as not yet computed.
func (p *TenantNotePairs) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for TenantNotePairs: %T", value)
	}
	if err := json.Unmarshal(b, p); err != nil {
		return err
	}
	if len(*p) == 0 {
		*p = nil
	}
	return nil
}

// StringSet is a persisted set of strings (e.g., tenant ids), stored as JSON.
type StringSet []string

// Contains reports whether the set holds the given value.
func (s StringSet) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// Add appends the value if it is not already present and returns the set.
func (s StringSet) Add(value string) StringSet {
	if s.Contains(value) {
		return s
	}
	return append(s, value)
}

// Value implements driver.Valuer. The zero value serializes to an empty
// array, never to nil, so the column type stays inferable from the zero
// aggregate.
func (s StringSet) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner. An empty array scans to nil.
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringSet: %T", value)
	}
	if err := json.Unmarshal(b, s); err != nil {
		return err
	}
	if len(*s) == 0 {
		*s = nil
	}
	return nil
}

// BulkOperation is the aggregate root of one batch-edit job. It is created
// NEW on submission, driven through the state machine by the orchestrator,
// and never deleted, only marked expired once its file artifacts are purged.
type BulkOperation struct {
	ID             string
	EntityType     EntityType
	IdentifierType IdentifierType
	ApproachType   ApproachType

	Status       OperationStatus
	ErrorMessage string
	StartTime    time.Time
	EndTime      *time.Time

	// Progress counters. Each is monotonically non-decreasing within a stage
	// and reset only at stage transition.
	TotalNumOfRecords      int
	MatchedNumOfRecords    int
	ProcessedNumOfRecords  int
	CommittedNumOfRecords  int
	CommittedNumOfErrors   int
	CommittedNumOfWarnings int

	// File artifacts. A link field is non-empty only while its artifact
	// exists; clearing it also deletes the backing file.
	LinkToTriggeringCsvFile             string
	LinkToMatchedRecordsCsvFile         string
	LinkToMatchedRecordsJsonFile        string
	LinkToMatchedRecordsMarcFile        string
	LinkToMatchedRecordsErrorsCsvFile   string
	LinkToModifiedRecordsCsvFile        string
	LinkToModifiedRecordsJsonFile       string
	LinkToModifiedRecordsMarcFile       string
	LinkToModifiedRecordsMarcCsvFile    string
	LinkToCommittedRecordsCsvFile       string
	LinkToCommittedRecordsJsonFile      string
	LinkToCommittedRecordsMarcFile      string
	LinkToCommittedRecordsMarcCsvFile   string
	LinkToCommittedRecordsErrorsCsvFile string
	LinkToPreviewRecordsJsonFile        string

	// Consortium metadata.
	UsedTenants     StringSet
	TenantNotePairs TenantNotePairs

	// External correlation ids.
	DataExportJobID string
	FqlQueryID      string

	// IsExpired is set by retention cleanup; once true the operation's files
	// are gone permanently.
	IsExpired bool

	// Version supports optimistic locking in the repository.
	Version int
}

// NewBulkOperation creates a bulk operation in the NEW state with a fresh id.
func NewBulkOperation(entityType EntityType, identifierType IdentifierType, approach ApproachType) *BulkOperation {
	return &BulkOperation{
		ID:             uuid.NewString(),
		EntityType:     entityType,
		IdentifierType: identifierType,
		ApproachType:   approach,
		Status:         StatusNew,
		StartTime:      time.Now(),
	}
}

// TransitionTo moves the operation into the given status. Transitions out of
// a terminal state are rejected; FAILED and CANCELLED are reachable from any
// non-terminal state.
func (o *BulkOperation) TransitionTo(status OperationStatus) error {
	if o.Status.IsTerminal() {
		return fmt.Errorf("bulk operation %s is already in terminal state %s, cannot transition to %s", o.ID, o.Status, status)
	}
	o.Status = status
	if status.IsTerminal() {
		now := time.Now()
		o.EndTime = &now
	}
	return nil
}

// Fail moves the operation to FAILED, recording the failure message and end time.
func (o *BulkOperation) Fail(message string) {
	if o.Status.IsTerminal() {
		return
	}
	o.Status = StatusFailed
	o.ErrorMessage = message
	now := time.Now()
	o.EndTime = &now
}

// Cancel moves the operation to CANCELLED, recording the reason and end time.
func (o *BulkOperation) Cancel(message string) {
	if o.Status.IsTerminal() {
		return
	}
	o.Status = StatusCancelled
	o.ErrorMessage = message
	now := time.Now()
	o.EndTime = &now
}
