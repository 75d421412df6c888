package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
)

func TestHeaderRowLeadsWithIdentifierColumn(t *testing.T) {
	c := newTestCodec()

	assert.Equal(t, "Barcode", c.HeaderRow(model.EntityTypeItem, model.IdentifierTypeBarcode)[0])
	assert.Equal(t, "Username", c.HeaderRow(model.EntityTypeUser, model.IdentifierTypeUsername)[0])
	assert.Equal(t, "Hrid", c.HeaderRow(model.EntityTypeInstanceMarc, model.IdentifierTypeHrid)[0])
	assert.Equal(t, "Id", c.HeaderRow(model.EntityTypeHoldingsRecord, model.IdentifierTypeID)[0])
}

func TestEncodeRowMatchesHeaderArity(t *testing.T) {
	c := newTestCodec()
	ctx := context.Background()

	for _, entityType := range []model.EntityType{
		model.EntityTypeUser,
		model.EntityTypeItem,
		model.EntityTypeHoldingsRecord,
		model.EntityTypeInstance,
	} {
		row, err := c.EncodeRow(ctx, entityType, model.IdentifierTypeID, []byte(`{"id":"rec-1"}`), false)
		assert.NoError(t, err)
		assert.Len(t, row, len(c.HeaderRow(entityType, model.IdentifierTypeID)))
		assert.Equal(t, "rec-1", row[0])
	}
}

func TestEncodeRowRendersUserFields(t *testing.T) {
	c := newTestCodec()

	raw := []byte(`{"id":"u-1","username":"alice","active":true,"patronGroup":"staff","personal":{"firstName":"Alice","lastName":"Doe","email":"alice@example.org"},"expirationDate":"2027-01-01"}`)
	row, err := c.EncodeRow(context.Background(), model.EntityTypeUser, model.IdentifierTypeUsername, raw, false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "true", "staff", "Doe", "Alice", "alice@example.org", "2027-01-01"}, row)
}

func TestEncodeRowRendersInstanceCompounds(t *testing.T) {
	c := newTestCodec()

	raw := []byte(`{
		"id": "in-1",
		"hrid": "in0001",
		"title": "Go in Practice",
		"source": "CATALOG",
		"classifications": [{"classificationTypeId": "lc-id", "classificationNumber": "QA76.73"}],
		"subjects": [{"value": "Computers", "sourceId": "source-id", "typeId": "type-id"}]
	}`)
	row, err := c.EncodeRow(context.Background(), model.EntityTypeInstance, model.IdentifierTypeHrid, raw, false)
	assert.NoError(t, err)
	assert.Equal(t, "in0001", row[0])
	assert.Equal(t, "Go in Practice", row[1])
	assert.Equal(t, "LC"+FieldDelimiter+"QA76.73", row[3])
	assert.Equal(t, "Computers"+FieldDelimiter+"Library of Congress"+FieldDelimiter+"Topical", row[5])
}

func TestEncodeRowJoinsRepeatedValuesWithArrayDelimiter(t *testing.T) {
	c := newTestCodec()

	raw := []byte(`{"id":"it-1","barcode":"b-1","electronicAccess":[{"uri":"https://a"},{"uri":"https://b"}]}`)
	row, err := c.EncodeRow(context.Background(), model.EntityTypeItem, model.IdentifierTypeBarcode, raw, false)
	assert.NoError(t, err)
	assert.Contains(t, row[3], "https://a")
	assert.Contains(t, row[3], ArrayDelimiter)
	assert.Contains(t, row[3], "https://b")
}

func TestEncodeRowRejectsMalformedRecord(t *testing.T) {
	c := newTestCodec()

	_, err := c.EncodeRow(context.Background(), model.EntityTypeUser, model.IdentifierTypeID, []byte("{not json"), false)
	assert.Error(t, err)
}
