// Package port defines the boundaries to external collaborators: the data
// export system, the saved-query engine, the source record store, and the
// reference catalogs. Implementations are thin HTTP clients out of this
// core's scope; tests use mocks.
package port

import (
	"context"
	"io"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

// ExportJobStatus is the status reported by the external data export system.
type ExportJobStatus string

const (
	ExportJobScheduled  ExportJobStatus = "SCHEDULED"
	ExportJobInProgress ExportJobStatus = "IN_PROGRESS"
	ExportJobSuccessful ExportJobStatus = "SUCCESSFUL"
	ExportJobFailed     ExportJobStatus = "FAILED"
)

// ExportJob is the external identifier-export job created for a direct
// upload operation.
type ExportJob struct {
	ID     string
	Status ExportJobStatus
}

// DataExportClient drives the external export system that resolves an
// uploaded identifiers file into matched-record artifacts.
type DataExportClient interface {
	// CreateJob registers an export job for the entity/identifier types and
	// hands it the triggering identifiers file.
	CreateJob(ctx context.Context, entityType model.EntityType, identifierType model.IdentifierType, identifiers io.Reader) (*ExportJob, error)
	// StartJob starts a job that did not auto-start on creation.
	StartJob(ctx context.Context, jobID string) error
	// DownloadFile fetches one of the job's result artifacts by URL.
	DownloadFile(ctx context.Context, url string) (io.ReadCloser, error)
}

// QueryStatus is the status of a saved-query execution.
type QueryStatus string

const (
	QueryInProgress QueryStatus = "IN_PROGRESS"
	QuerySuccess    QueryStatus = "SUCCESS"
	QueryFailed     QueryStatus = "FAILED"
	QueryCancelled  QueryStatus = "CANCELLED"
)

// QueryExecution is the observed state of a saved-query execution.
type QueryExecution struct {
	ID            string
	Status        QueryStatus
	TotalRecords  int
	FailureReason string
}

// QueryPage is one page of saved-query results. Each row is the raw jsonb
// blob of a matched record, keyed by the entity-specific result column.
type QueryPage struct {
	Rows [][]byte
}

// QueryClient executes saved queries and streams their result pages.
type QueryClient interface {
	Execute(ctx context.Context, queryID string, entityType model.EntityType) (*QueryExecution, error)
	Status(ctx context.Context, executionID string) (*QueryExecution, error)
	// Page fetches one page of results. Returns an empty page when offset is
	// past the end.
	Page(ctx context.Context, executionID string, offset, limit int) (*QueryPage, error)
}

// SourceRecord is one record fetched from the source record store: the
// instance it describes plus its JSON-MARC content.
type SourceRecord struct {
	InstanceID   string
	InstanceHRID string
	ParsedRecord []byte
}

// SourceRecordClient fetches MARC content from the source record store.
type SourceRecordClient interface {
	// RecordsByInstanceIDs returns the source records for the given
	// instance ids. Callers chunk the id list; one call maps to one remote
	// request.
	RecordsByInstanceIDs(ctx context.Context, instanceIDs []string) ([]SourceRecord, error)
}

// PermissionChecker verifies that the current user may read a record,
// optionally in a member tenant.
type PermissionChecker interface {
	CanRead(ctx context.Context, entityType model.EntityType, recordID, tenantID string) error
}

// ReferenceResolver translates reference ids to display names and back
// against the remote catalogs. Both directions degrade to returning the
// input unchanged when the reference is absent; only genuine transport
// failures surface as errors.
type ReferenceResolver interface {
	NameByID(ctx context.Context, kind, id, tenantID string) string
	IDByName(ctx context.Context, kind, name, tenantID string) string
	// NoteTypes returns the note-type catalog of the given tenant.
	NoteTypes(ctx context.Context, tenantID string) ([]model.NoteType, error)
}

// Reference kinds used by the flat-record codec.
const (
	RefClassificationType           = "classification-types"
	RefSubjectSource                = "subject-sources"
	RefSubjectType                  = "subject-types"
	RefElectronicAccessRelationship = "electronic-access-relationships"
	RefNoteType                     = "note-types"
)
