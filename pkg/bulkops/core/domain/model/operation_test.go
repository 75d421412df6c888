package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBulkOperationStartsNew(t *testing.T) {
	op := NewBulkOperation(EntityTypeItem, IdentifierTypeBarcode, ApproachManual)
	assert.NotEmpty(t, op.ID)
	assert.Equal(t, StatusNew, op.Status)
	assert.False(t, op.Status.IsTerminal())
	assert.Nil(t, op.EndTime)
}

func TestTransitionToTerminalStampsEndTime(t *testing.T) {
	op := NewBulkOperation(EntityTypeItem, IdentifierTypeBarcode, ApproachManual)
	assert.NoError(t, op.TransitionTo(StatusRetrievingRecords))
	assert.NoError(t, op.TransitionTo(StatusCompleted))
	assert.NotNil(t, op.EndTime)
}

func TestTransitionOutOfTerminalIsRejected(t *testing.T) {
	op := NewBulkOperation(EntityTypeItem, IdentifierTypeBarcode, ApproachManual)
	op.Fail("boom")
	assert.Error(t, op.TransitionTo(StatusDataModification))
	assert.Equal(t, StatusFailed, op.Status)
	assert.Equal(t, "boom", op.ErrorMessage)
}

func TestFailAndCancelAreIdempotentOnTerminalOperations(t *testing.T) {
	op := NewBulkOperation(EntityTypeUser, IdentifierTypeID, ApproachQuery)
	op.Cancel("stopped by user")
	first := op.EndTime

	op.Fail("should not overwrite")
	assert.Equal(t, StatusCancelled, op.Status)
	assert.Equal(t, "stopped by user", op.ErrorMessage)
	assert.Equal(t, first, op.EndTime)
}

func TestPersistedCollectionsSerializeZeroValues(t *testing.T) {
	value, err := StringSet(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", value)

	value, err = TenantNotePairs(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", value)

	var tenants StringSet
	assert.NoError(t, tenants.Scan("[]"))
	assert.Nil(t, tenants)

	var pairs TenantNotePairs
	assert.NoError(t, pairs.Scan([]byte("[]")))
	assert.Nil(t, pairs)
}

func TestEntityTypeMarcFlow(t *testing.T) {
	assert.True(t, EntityTypeInstanceMarc.IsMarcFlow())
	assert.False(t, EntityTypeInstance.IsMarcFlow())
	assert.False(t, EntityTypeItem.IsMarcFlow())
}

func TestQueryResultColumn(t *testing.T) {
	assert.Equal(t, "users.jsonb", EntityTypeUser.QueryResultColumn())
	assert.Equal(t, "items.jsonb", EntityTypeItem.QueryResultColumn())
	assert.Equal(t, "holdings.jsonb", EntityTypeHoldingsRecord.QueryResultColumn())
	assert.Equal(t, "instance.jsonb", EntityTypeInstance.QueryResultColumn())
}
