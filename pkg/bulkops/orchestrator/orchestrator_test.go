package orchestrator

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/ledger"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

type fakeOperationRepo struct {
	ops map[string]*model.BulkOperation
}

func newFakeOperationRepo(ops ...*model.BulkOperation) *fakeOperationRepo {
	r := &fakeOperationRepo{ops: map[string]*model.BulkOperation{}}
	for _, op := range ops {
		r.ops[op.ID] = op
	}
	return r
}

func (r *fakeOperationRepo) Save(ctx context.Context, op *model.BulkOperation) error {
	r.ops[op.ID] = op
	return nil
}

func (r *fakeOperationRepo) Update(ctx context.Context, op *model.BulkOperation) error {
	r.ops[op.ID] = op
	return nil
}

func (r *fakeOperationRepo) FindByID(ctx context.Context, id string) (*model.BulkOperation, error) {
	op, ok := r.ops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return op, nil
}

func (r *fakeOperationRepo) FindByExportJobID(ctx context.Context, jobID string) (*model.BulkOperation, error) {
	for _, op := range r.ops {
		if op.DataExportJobID == jobID {
			return op, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeOperationRepo) FindExpirable(ctx context.Context, olderThan time.Time) ([]*model.BulkOperation, error) {
	var expirable []*model.BulkOperation
	for _, op := range r.ops {
		if op.IsExpired {
			continue
		}
		ended := op.StartTime
		if op.EndTime != nil {
			ended = *op.EndTime
		}
		if ended.Before(olderThan) {
			expirable = append(expirable, op)
		}
	}
	return expirable, nil
}

// versionedOperationRepo guards updates with the same version check the real
// repository applies and stores clones, so stale in-memory copies surface as
// conflicts instead of silently winning.
type versionedOperationRepo struct {
	ops map[string]*model.BulkOperation
}

func newVersionedOperationRepo(ops ...*model.BulkOperation) *versionedOperationRepo {
	r := &versionedOperationRepo{ops: map[string]*model.BulkOperation{}}
	for _, op := range ops {
		clone := *op
		r.ops[op.ID] = &clone
	}
	return r
}

func (r *versionedOperationRepo) Save(ctx context.Context, op *model.BulkOperation) error {
	clone := *op
	r.ops[op.ID] = &clone
	return nil
}

func (r *versionedOperationRepo) Update(ctx context.Context, op *model.BulkOperation) error {
	current, ok := r.ops[op.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != op.Version {
		return exception.NewOptimisticLockingFailureException("repository", "stale operation version", nil)
	}
	op.Version++
	clone := *op
	r.ops[op.ID] = &clone
	return nil
}

func (r *versionedOperationRepo) FindByID(ctx context.Context, id string) (*model.BulkOperation, error) {
	op, ok := r.ops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *op
	return &clone, nil
}

func (r *versionedOperationRepo) FindByExportJobID(ctx context.Context, jobID string) (*model.BulkOperation, error) {
	for _, op := range r.ops {
		if op.DataExportJobID == jobID {
			clone := *op
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *versionedOperationRepo) FindExpirable(ctx context.Context, olderThan time.Time) ([]*model.BulkOperation, error) {
	return nil, nil
}

type fakeContentRepo struct {
	rows []*model.ExecutionContent
}

func (r *fakeContentRepo) Save(ctx context.Context, content *model.ExecutionContent) error {
	r.rows = append(r.rows, content)
	return nil
}

func (r *fakeContentRepo) ExistsByOperationAndIdentifier(ctx context.Context, operationID, identifier string) (bool, error) {
	for _, row := range r.rows {
		if row.BulkOperationID == operationID && row.Identifier == identifier {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContentRepo) ExistsExact(ctx context.Context, operationID, identifier, errorMessage string) (bool, error) {
	for _, row := range r.rows {
		if row.BulkOperationID == operationID && row.Identifier == identifier && row.ErrorMessage == errorMessage {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeContentRepo) FindByOperation(ctx context.Context, operationID string, offset, limit int) ([]*model.ExecutionContent, error) {
	var matched []*model.ExecutionContent
	for _, row := range r.rows {
		if row.BulkOperationID == operationID {
			matched = append(matched, row)
		}
	}
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeContentRepo) CountByOperation(ctx context.Context, operationID string) (int64, error) {
	var count int64
	for _, row := range r.rows {
		if row.BulkOperationID == operationID {
			count++
		}
	}
	return count, nil
}

func (r *fakeContentRepo) DeleteByOperation(ctx context.Context, operationID string) error {
	var kept []*model.ExecutionContent
	for _, row := range r.rows {
		if row.BulkOperationID != operationID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

type fakeExecutionRepo struct {
	executions []*model.Execution
}

func (r *fakeExecutionRepo) Save(ctx context.Context, execution *model.Execution) error {
	r.executions = append(r.executions, execution)
	return nil
}

func (r *fakeExecutionRepo) Update(ctx context.Context, execution *model.Execution) error {
	for i, e := range r.executions {
		if e.ID == execution.ID {
			r.executions[i] = execution
		}
	}
	return nil
}

func (r *fakeExecutionRepo) FindByOperation(ctx context.Context, operationID string) ([]*model.Execution, error) {
	var matched []*model.Execution
	for _, e := range r.executions {
		if e.BulkOperationID == operationID {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

type fakeRuleRepo struct {
	rules     []*model.Rule
	marcRules []*model.MarcRule
}

func (r *fakeRuleRepo) Save(ctx context.Context, rule *model.Rule) error {
	r.rules = append(r.rules, rule)
	return nil
}

func (r *fakeRuleRepo) SaveMarc(ctx context.Context, rule *model.MarcRule) error {
	r.marcRules = append(r.marcRules, rule)
	return nil
}

func (r *fakeRuleRepo) FindByOperation(ctx context.Context, operationID string) ([]*model.Rule, error) {
	return r.rules, nil
}

func (r *fakeRuleRepo) FindMarcByOperation(ctx context.Context, operationID string) ([]*model.MarcRule, error) {
	return r.marcRules, nil
}

func (r *fakeRuleRepo) DeleteByOperation(ctx context.Context, operationID string) error {
	r.rules = nil
	r.marcRules = nil
	return nil
}

type fakeStore struct {
	uploads map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: map[string][]byte{}}
}

func (s *fakeStore) Upload(ctx context.Context, path string, data io.Reader, contentType string) (string, error) {
	content, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	s.uploads[path] = content
	return path, nil
}

func (s *fakeStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	content, ok := s.uploads[path]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	delete(s.uploads, path)
	return nil
}

func (s *fakeStore) List(ctx context.Context, prefix string, fn func(path string) error) error {
	for path := range s.uploads {
		if strings.HasPrefix(path, prefix) {
			if err := fn(path); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeExportClient struct {
	job     *port.ExportJob
	started []string
	files   map[string][]byte
}

func (c *fakeExportClient) CreateJob(ctx context.Context, entityType model.EntityType, identifierType model.IdentifierType, identifiers io.Reader) (*port.ExportJob, error) {
	return c.job, nil
}

func (c *fakeExportClient) StartJob(ctx context.Context, jobID string) error {
	c.started = append(c.started, jobID)
	return nil
}

func (c *fakeExportClient) DownloadFile(ctx context.Context, url string) (io.ReadCloser, error) {
	content, ok := c.files[url]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeQueryClient struct {
	execution *port.QueryExecution
	statuses  []*port.QueryExecution
	pages     []*port.QueryPage
	polls     int
}

func (c *fakeQueryClient) Execute(ctx context.Context, queryID string, entityType model.EntityType) (*port.QueryExecution, error) {
	return c.execution, nil
}

func (c *fakeQueryClient) Status(ctx context.Context, executionID string) (*port.QueryExecution, error) {
	status := c.statuses[c.polls]
	if c.polls < len(c.statuses)-1 {
		c.polls++
	}
	return status, nil
}

func (c *fakeQueryClient) Page(ctx context.Context, executionID string, offset, limit int) (*port.QueryPage, error) {
	index := offset / limit
	if index >= len(c.pages) {
		return &port.QueryPage{}, nil
	}
	return c.pages[index], nil
}

type fakeSourceClient struct{}

func (c *fakeSourceClient) RecordsByInstanceIDs(ctx context.Context, instanceIDs []string) ([]port.SourceRecord, error) {
	return nil, nil
}

type fakePermissions struct {
	denied map[string]string
}

func (p *fakePermissions) CanRead(ctx context.Context, entityType model.EntityType, recordID, tenantID string) error {
	if message, ok := p.denied[recordID]; ok {
		return errDenied(message)
	}
	return nil
}

type errDenied string

func (e errDenied) Error() string { return string(e) }

type fakeResolver struct{}

func (r *fakeResolver) NameByID(ctx context.Context, kind, id, tenantID string) string { return id }

func (r *fakeResolver) IDByName(ctx context.Context, kind, name, tenantID string) string { return name }

func (r *fakeResolver) NoteTypes(ctx context.Context, tenantID string) ([]model.NoteType, error) {
	return nil, nil
}

type fakeRecorder struct {
	started int
	ended   int
}

func (r *fakeRecorder) RecordOperationStart(ctx context.Context, op *model.BulkOperation) {
	r.started++
}

func (r *fakeRecorder) RecordOperationEnd(ctx context.Context, op *model.BulkOperation) {
	r.ended++
}

func (r *fakeRecorder) RecordStageTransition(ctx context.Context, op *model.BulkOperation, from, to model.OperationStatus) {
}

func (r *fakeRecorder) RecordRecordsProcessed(ctx context.Context, entityType model.EntityType, count int) {
}

func (r *fakeRecorder) RecordLedgerEntry(ctx context.Context, entityType model.EntityType) {}

type harness struct {
	service    *Service
	operations *fakeOperationRepo
	contents   *fakeContentRepo
	executions *fakeExecutionRepo
	store      *fakeStore
	exports    *fakeExportClient
	queries    *fakeQueryClient
	recorder   *fakeRecorder
}

func newHarness(ops ...*model.BulkOperation) *harness {
	h := &harness{
		operations: newFakeOperationRepo(ops...),
		contents:   &fakeContentRepo{},
		executions: &fakeExecutionRepo{},
		store:      newFakeStore(),
		exports:    &fakeExportClient{files: map[string][]byte{}},
		queries:    &fakeQueryClient{},
		recorder:   &fakeRecorder{},
	}
	cfg := &config.PipelineConfig{
		MarcChunkSize:            100,
		QueryPollIntervalSeconds: 0,
		QueryPageSize:            2,
		RetentionDays:            30,
		IdentifierWorkers:        2,
	}
	ledgerService := ledger.NewService(h.operations, h.contents, h.store)
	h.service = NewService(cfg, h.operations, h.executions, &fakeRuleRepo{}, h.store,
		ledgerService, h.exports, h.queries, &fakeSourceClient{}, &fakePermissions{}, &fakeResolver{}, h.recorder)
	return h
}

func TestStartUploadFailsFastOnUnexpectedJobStatus(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	h := newHarness(op)
	h.exports.job = &port.ExportJob{ID: "job-1", Status: port.ExportJobFailed}

	err := h.service.StartUpload(context.Background(), op.ID, "barcodes.csv", strings.NewReader("b-1\nb-2\n"))

	assert.Error(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Contains(t, op.ErrorMessage, "unexpected status")
	assert.NotNil(t, op.EndTime)
}

func TestStartUploadStartsScheduledJob(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	h := newHarness(op)
	h.exports.job = &port.ExportJob{ID: "job-1", Status: port.ExportJobScheduled}

	err := h.service.StartUpload(context.Background(), op.ID, "dir/barcodes.csv", strings.NewReader("b-1\n"))

	assert.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, h.exports.started)
	assert.Equal(t, model.StatusRetrievingRecords, op.Status)
	assert.Equal(t, "job-1", op.DataExportJobID)
	assert.Equal(t, op.ID+"/barcodes.csv", op.LinkToTriggeringCsvFile)
	assert.Equal(t, "b-1\n", string(h.store.uploads[op.ID+"/barcodes.csv"]))
}

func TestHandleJobUpdateFailedEventSetsMessageAndEndTime(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusRetrievingRecords
	op.DataExportJobID = "job-9"
	h := newHarness(op)

	ended := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	err := h.service.HandleJobUpdate(context.Background(), &port.JobUpdateEvent{
		JobID:        "job-9",
		BatchStatus:  port.BatchStatusFailed,
		ErrorDetails: "identifier resolution crashed",
		EndTime:      &ended,
	})

	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Equal(t, "identifier resolution crashed", op.ErrorMessage)
	assert.Equal(t, ended, *op.EndTime)
	assert.Equal(t, 1, h.recorder.ended)
}

func TestHandleJobUpdateFailedEventWithoutDetailsLeavesMessageEmpty(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusRetrievingRecords
	op.DataExportJobID = "job-10"
	h := newHarness(op)

	err := h.service.HandleJobUpdate(context.Background(), &port.JobUpdateEvent{
		JobID:       "job-10",
		BatchStatus: port.BatchStatusFailed,
	})

	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Empty(t, op.ErrorMessage)
	assert.NotNil(t, op.EndTime)
}

func TestHandleJobUpdateCompletionStagesArtifacts(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusRetrievingRecords
	op.DataExportJobID = "job-2"
	h := newHarness(op)
	h.exports.files["http://export/matched.csv"] = []byte("Barcode,Status\nb-1,Available\n")
	h.exports.files["http://export/origin.json"] = []byte(`[{"id":"i-1"}]`)

	err := h.service.HandleJobUpdate(context.Background(), &port.JobUpdateEvent{
		JobID:       "job-2",
		BatchStatus: port.BatchStatusCompleted,
		Progress:    &port.Progress{Total: 1, Processed: 1},
		Files:       []string{"http://export/matched.csv", "", "http://export/origin.json"},
	})

	assert.NoError(t, err)
	assert.Equal(t, model.StatusDataModification, op.Status)
	assert.Equal(t, op.ID+"/Matched-Records.csv", op.LinkToMatchedRecordsCsvFile)
	assert.Equal(t, op.ID+"/json/Matched-Records.json", op.LinkToMatchedRecordsJsonFile)
	assert.Empty(t, op.LinkToMatchedRecordsErrorsCsvFile)
	assert.Equal(t, 1, op.MatchedNumOfRecords)
	assert.Equal(t, "Barcode,Status\nb-1,Available\n", string(h.store.uploads[op.ID+"/Matched-Records.csv"]))
}

func TestHandleJobUpdateIgnoresDuplicateCompletion(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusDataModification
	op.DataExportJobID = "job-3"
	op.MatchedNumOfRecords = 7
	h := newHarness(op)

	err := h.service.HandleJobUpdate(context.Background(), &port.JobUpdateEvent{
		JobID:       "job-3",
		BatchStatus: port.BatchStatusCompleted,
		Progress:    &port.Progress{Total: 1, Processed: 1},
		Files:       []string{"http://export/matched.csv"},
	})

	assert.NoError(t, err)
	assert.Equal(t, model.StatusDataModification, op.Status)
	assert.Equal(t, 7, op.MatchedNumOfRecords)
	assert.Empty(t, h.store.uploads)
}

func TestPollQueryZeroMatchesFailsOperation(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeUser, model.IdentifierTypeID, model.ApproachQuery)
	op.Status = model.StatusExecutingQuery
	op.FqlQueryID = "exec-1"
	h := newHarness(op)
	h.queries.statuses = []*port.QueryExecution{
		{ID: "exec-1", Status: port.QuerySuccess, TotalRecords: 0},
	}

	err := h.service.PollQuery(context.Background(), op.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Equal(t, "No records found for the query", op.ErrorMessage)
	assert.NotNil(t, op.EndTime)
}

func TestPollQuerySuccessStagesMatchedRecords(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeUser, model.IdentifierTypeUsername, model.ApproachQuery)
	op.Status = model.StatusExecutingQuery
	op.FqlQueryID = "exec-2"
	h := newHarness(op)
	h.queries.statuses = []*port.QueryExecution{
		{ID: "exec-2", Status: port.QuerySuccess, TotalRecords: 3},
	}
	h.queries.pages = []*port.QueryPage{
		{Rows: [][]byte{
			[]byte(`{"id":"u-1","username":"alice"}`),
			[]byte(`{"id":"u-2","username":"bob"}`),
		}},
		{Rows: [][]byte{
			[]byte(`{"id":"u-3","username":"carol"}`),
		}},
	}

	err := h.service.PollQuery(context.Background(), op.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.StatusDataModification, op.Status)
	assert.Equal(t, 3, op.TotalNumOfRecords)
	assert.Equal(t, 3, op.ProcessedNumOfRecords)
	assert.Equal(t, 3, op.MatchedNumOfRecords)
	assert.Equal(t,
		"Username,Active,Patron Group,Last Name,First Name,Email,Expiration Date\n"+
			"alice,false,,,,,\nbob,false,,,,,\ncarol,false,,,,,\n",
		string(h.store.uploads[op.ID+"/Matched-Records.csv"]))
	assert.JSONEq(t,
		`[{"id":"u-1","username":"alice"},{"id":"u-2","username":"bob"},{"id":"u-3","username":"carol"}]`,
		string(h.store.uploads[op.ID+"/json/Matched-Records.json"]))
}

func TestPollQueryRecordsPermissionFailuresInLedger(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeUser, model.IdentifierTypeUsername, model.ApproachQuery)
	op.Status = model.StatusExecutingQuery
	op.FqlQueryID = "exec-3"
	h := newHarness(op)
	h.queries.statuses = []*port.QueryExecution{
		{ID: "exec-3", Status: port.QuerySuccess, TotalRecords: 2},
	}
	h.queries.pages = []*port.QueryPage{
		{Rows: [][]byte{
			[]byte(`{"id":"u-1","username":"alice"}`),
			[]byte(`{"id":"u-2","username":"bob"}`),
		}},
	}
	permissions := &fakePermissions{denied: map[string]string{"u-2": "user has no read permission"}}
	h.service.permissions = permissions

	err := h.service.PollQuery(context.Background(), op.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.StatusDataModification, op.Status)
	assert.Equal(t, 1, op.MatchedNumOfRecords)
	assert.Equal(t,
		"Username,Active,Patron Group,Last Name,First Name,Email,Expiration Date\nalice,false,,,,,\n",
		string(h.store.uploads[op.ID+"/Matched-Records.csv"]))
	if assert.Len(t, h.contents.rows, 1) {
		assert.Equal(t, "bob", h.contents.rows[0].Identifier)
		assert.Equal(t, "user has no read permission", h.contents.rows[0].ErrorMessage)
	}
	assert.Equal(t, 1, op.CommittedNumOfErrors)
}

func TestPollQueryPersistsPageCountersPastLedgerWrites(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeUser, model.IdentifierTypeUsername, model.ApproachQuery)
	op.Status = model.StatusExecutingQuery
	op.FqlQueryID = "exec-4"
	operations := newVersionedOperationRepo(op)
	contents := &fakeContentRepo{}
	store := newFakeStore()
	queries := &fakeQueryClient{
		statuses: []*port.QueryExecution{
			{ID: "exec-4", Status: port.QuerySuccess, TotalRecords: 2},
		},
		pages: []*port.QueryPage{
			{Rows: [][]byte{
				[]byte(`{"id":"u-1","username":"alice"}`),
				[]byte(`{"id":"u-2","username":"bob"}`),
			}},
		},
	}
	cfg := &config.PipelineConfig{
		MarcChunkSize:     100,
		QueryPageSize:     2,
		IdentifierWorkers: 2,
	}
	ledgerService := ledger.NewService(operations, contents, store)
	service := NewService(cfg, operations, &fakeExecutionRepo{}, &fakeRuleRepo{}, store,
		ledgerService, &fakeExportClient{files: map[string][]byte{}}, queries, &fakeSourceClient{},
		&fakePermissions{denied: map[string]string{"u-2": "user has no read permission"}},
		&fakeResolver{}, &fakeRecorder{})

	err := service.PollQuery(context.Background(), op.ID)

	assert.NoError(t, err)
	stored, findErr := operations.FindByID(context.Background(), op.ID)
	assert.NoError(t, findErr)
	assert.Equal(t, model.StatusDataModification, stored.Status)
	assert.Equal(t, 2, stored.ProcessedNumOfRecords)
	assert.Equal(t, 1, stored.MatchedNumOfRecords)
	assert.Equal(t, 1, stored.CommittedNumOfErrors)
}

func TestCommitStagesOnlyChangedRows(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusReviewChanges
	h := newHarness(op)
	op.LinkToMatchedRecordsCsvFile = op.ID + "/Matched-Records.csv"
	op.LinkToModifiedRecordsCsvFile = op.ID + "/Modified-Records.csv"
	h.store.uploads[op.LinkToMatchedRecordsCsvFile] = []byte("Barcode,Status\nb-1,Available\nb-2,Available\n")
	h.store.uploads[op.LinkToModifiedRecordsCsvFile] = []byte("Barcode,Status\nb-1,Available\nb-2,Missing\n")

	err := h.service.Commit(context.Background(), op.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompletedWithErrors, op.Status)
	assert.Equal(t, 1, op.CommittedNumOfRecords)
	assert.Equal(t, 1, op.CommittedNumOfErrors)
	assert.Equal(t, 0, op.CommittedNumOfWarnings)
	assert.Equal(t, "Barcode,Status\nb-2,Missing\n", string(h.store.uploads[op.ID+"/Committed-Records.csv"]))
	if assert.Len(t, h.contents.rows, 1) {
		assert.Equal(t, "b-1", h.contents.rows[0].Identifier)
		assert.Equal(t, model.MsgNoChangeRequired, h.contents.rows[0].ErrorMessage)
	}
	// The unchanged row surfaces in the exported errors CSV.
	assert.Equal(t, op.ID+"/errors-Errors.csv", op.LinkToCommittedRecordsErrorsCsvFile)
	assert.Equal(t, "b-1,"+model.MsgNoChangeRequired+"\n", string(h.store.uploads[op.ID+"/errors-Errors.csv"]))
}

func TestCommitFinishesWithErrorsWhenLedgerHoldsErrors(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusReviewChanges
	op.CommittedNumOfErrors = 1
	h := newHarness(op)
	op.LinkToMatchedRecordsCsvFile = op.ID + "/Matched-Records.csv"
	op.LinkToModifiedRecordsCsvFile = op.ID + "/Modified-Records.csv"
	h.store.uploads[op.LinkToMatchedRecordsCsvFile] = []byte("Barcode,Status\nb-1,Available\n")
	h.store.uploads[op.LinkToModifiedRecordsCsvFile] = []byte("Barcode,Status\nb-1,Missing\n")

	err := h.service.Commit(context.Background(), op.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.StatusCompletedWithErrors, op.Status)
	assert.NotNil(t, op.EndTime)
}

func TestCommitFailureDiscardsPartialArtifacts(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusReviewChanges
	h := newHarness(op)
	// No staged artifacts at all: the download fails mid-commit.

	err := h.service.Commit(context.Background(), op.ID)

	assert.Error(t, err)
	assert.Equal(t, model.StatusFailed, op.Status)
	assert.Empty(t, op.LinkToCommittedRecordsCsvFile)
	assert.NotEmpty(t, op.ErrorMessage)
}

func TestSaveModifiedMovesToReviewAndAllowsRestaging(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.Status = model.StatusDataModification
	h := newHarness(op)

	err := h.service.SaveModified(context.Background(), op.ID, ModifiedFormatCSV, strings.NewReader("Barcode,Status\nb-1,Missing\n"))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReviewChanges, op.Status)
	assert.Equal(t, op.ID+"/Modified-Records.csv", op.LinkToModifiedRecordsCsvFile)

	err = h.service.SaveModified(context.Background(), op.ID, ModifiedFormatCSV, strings.NewReader("Barcode,Status\nb-1,Withdrawn\n"))
	assert.NoError(t, err)
	assert.Equal(t, model.StatusReviewChanges, op.Status)
	assert.Equal(t, "Barcode,Status\nb-1,Withdrawn\n", string(h.store.uploads[op.ID+"/Modified-Records.csv"]))
}

func TestSweepExpiredDeletesArtifactsAndMarksExpired(t *testing.T) {
	old := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	ended := time.Now().AddDate(0, 0, -45)
	old.Status = model.StatusCompleted
	old.EndTime = &ended
	fresh := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	h := newHarness(old, fresh)
	old.LinkToTriggeringCsvFile = old.ID + "/barcodes.csv"
	old.LinkToMatchedRecordsCsvFile = old.ID + "/Matched-Records.csv"
	h.store.uploads[old.LinkToTriggeringCsvFile] = []byte("b-1\n")
	h.store.uploads[old.LinkToMatchedRecordsCsvFile] = []byte("Barcode\nb-1\n")

	err := h.service.SweepExpired(context.Background())

	assert.NoError(t, err)
	assert.True(t, old.IsExpired)
	assert.Empty(t, old.LinkToTriggeringCsvFile)
	assert.Empty(t, old.LinkToMatchedRecordsCsvFile)
	assert.Empty(t, h.store.uploads)
	assert.False(t, fresh.IsExpired)
}

func TestCreateRejectsQuerySubmissionWithoutQueryID(t *testing.T) {
	h := newHarness()

	_, err := h.service.Create(context.Background(), Submission{
		EntityType:     model.EntityTypeUser,
		IdentifierType: model.IdentifierTypeID,
		ApproachType:   model.ApproachQuery,
	})

	assert.Error(t, err)
}

func TestCreatePersistsNewOperation(t *testing.T) {
	h := newHarness()

	op, err := h.service.Create(context.Background(), Submission{
		EntityType:     model.EntityTypeItem,
		IdentifierType: model.IdentifierTypeBarcode,
		ApproachType:   model.ApproachManual,
		Tenants:        []string{"tenantA", "tenantB"},
	})

	assert.NoError(t, err)
	assert.Equal(t, model.StatusNew, op.Status)
	assert.Equal(t, model.StringSet{"tenantA", "tenantB"}, op.UsedTenants)
	assert.Equal(t, 1, h.recorder.started)
	stored, ferr := h.operations.FindByID(context.Background(), op.ID)
	assert.NoError(t, ferr)
	assert.Equal(t, op, stored)
}
