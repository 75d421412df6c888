package ledger

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	"github.com/opencatalog/bulkops/pkg/bulkops/core/domain/repository"
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
	return io.NopCloser(bytes.NewReader(s.uploads[path])), nil
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	delete(s.uploads, path)
	return nil
}

func (s *fakeStore) List(ctx context.Context, prefix string, fn func(path string) error) error {
	return nil
}

func TestRecordIncrementsErrorCounterOncePerDistinctMessage(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	operations := newFakeOperationRepo(op)
	contents := &fakeContentRepo{}
	service := NewService(operations, contents, newFakeStore())
	ctx := context.Background()

	assert.NoError(t, service.Record(ctx, op.ID, "b-1", "item not found", "", ""))
	assert.NoError(t, service.Record(ctx, op.ID, "b-1", "item not found", "", ""))
	assert.NoError(t, service.Record(ctx, op.ID, "b-1", "permission denied", "", ""))

	assert.Equal(t, 2, operations.ops[op.ID].CommittedNumOfErrors)
	assert.Len(t, contents.rows, 3)
}

func TestRecordNoChangeSentinelIsIdempotentPerIdentifier(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeInstanceMarc, model.IdentifierTypeHrid, model.ApproachManual)
	operations := newFakeOperationRepo(op)
	contents := &fakeContentRepo{}
	service := NewService(operations, contents, newFakeStore())
	ctx := context.Background()

	assert.NoError(t, service.Record(ctx, op.ID, "in0001", model.MsgNoChangeRequired, "", ""))
	assert.NoError(t, service.Record(ctx, op.ID, "in0001", model.MsgNoChangeRequired, "", ""))

	assert.Len(t, contents.rows, 1)
	assert.Equal(t, 1, operations.ops[op.ID].CommittedNumOfErrors)
	assert.Equal(t, 0, operations.ops[op.ID].CommittedNumOfWarnings)
}

func TestWriteCSVHasNoHeaderAndPrefersUIMessage(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeUser, model.IdentifierTypeUsername, model.ApproachManual)
	operations := newFakeOperationRepo(op)
	contents := &fakeContentRepo{}
	service := NewService(operations, contents, newFakeStore())
	ctx := context.Background()

	assert.NoError(t, service.Record(ctx, op.ID, "alice", "raw failure", "User not found", ""))
	assert.NoError(t, service.Record(ctx, op.ID, "bob", "duplicate entry", "", ""))

	var buf bytes.Buffer
	assert.NoError(t, service.WriteCSV(ctx, op.ID, &buf))
	assert.Equal(t, "alice,User not found\nbob,duplicate entry\n", buf.String())
}

func TestUploadCSVCachesPathOnOperation(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	op.LinkToTriggeringCsvFile = op.ID + "/barcodes.csv"
	operations := newFakeOperationRepo(op)
	contents := &fakeContentRepo{}
	store := newFakeStore()
	service := NewService(operations, contents, store)
	ctx := context.Background()

	assert.NoError(t, service.Record(ctx, op.ID, "b-1", "item not found", "", ""))

	uploaded, err := service.UploadCSV(ctx, op)
	assert.NoError(t, err)
	assert.Equal(t, op.ID+"/barcodes-Errors.csv", uploaded)
	assert.Equal(t, uploaded, op.LinkToCommittedRecordsErrorsCsvFile)
	assert.Equal(t, "b-1,item not found\n", string(store.uploads[uploaded]))

	// Second call must reuse the cached path without re-uploading.
	store.uploads = map[string][]byte{}
	again, err := service.UploadCSV(ctx, op)
	assert.NoError(t, err)
	assert.Equal(t, uploaded, again)
	assert.Empty(t, store.uploads)
}

func TestResetClearsRowsAndCounters(t *testing.T) {
	op := model.NewBulkOperation(model.EntityTypeItem, model.IdentifierTypeBarcode, model.ApproachManual)
	operations := newFakeOperationRepo(op)
	contents := &fakeContentRepo{}
	service := NewService(operations, contents, newFakeStore())
	ctx := context.Background()

	assert.NoError(t, service.Record(ctx, op.ID, "b-1", "item not found", "", ""))
	assert.NoError(t, service.Reset(ctx, op))

	assert.Empty(t, contents.rows)
	assert.Equal(t, 0, op.CommittedNumOfErrors)
	assert.Equal(t, 0, op.CommittedNumOfWarnings)
}
