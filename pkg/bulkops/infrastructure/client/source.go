package client

import (
	"context"
	"encoding/json"

	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// SourceClient fetches MARC source records from the source record store.
type SourceClient struct {
	client *Client
}

var _ port.SourceRecordClient = (*SourceClient)(nil)

// NewSourceClient creates a SourceClient.
func NewSourceClient(client *Client) *SourceClient {
	return &SourceClient{client: client}
}

// RecordsByInstanceIDs fetches the source records of the given instance ids
// in one request. Callers chunk the id list.
func (c *SourceClient) RecordsByInstanceIDs(ctx context.Context, instanceIDs []string) ([]port.SourceRecord, error) {
	body := map[string]interface{}{
		"instanceIds": instanceIDs,
	}
	var response struct {
		Records []struct {
			InstanceID   string          `json:"instanceId"`
			InstanceHRID string          `json:"instanceHrid"`
			ParsedRecord json.RawMessage `json:"parsedRecord"`
		} `json:"sourceRecords"`
	}
	if err := c.client.postJSON(ctx, c.client.endpoint("/source-storage/batch", nil), "", body, &response); err != nil {
		return nil, err
	}

	records := make([]port.SourceRecord, 0, len(response.Records))
	for _, record := range response.Records {
		records = append(records, port.SourceRecord{
			InstanceID:   record.InstanceID,
			InstanceHRID: record.InstanceHRID,
			ParsedRecord: []byte(record.ParsedRecord),
		})
	}
	return records, nil
}
