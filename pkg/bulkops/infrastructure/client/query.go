package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// QueryClient executes saved queries against the remote query engine.
type QueryClient struct {
	client *Client
}

var _ port.QueryClient = (*QueryClient)(nil)

// NewQueryClient creates a QueryClient.
func NewQueryClient(client *Client) *QueryClient {
	return &QueryClient{client: client}
}

type queryExecutionResponse struct {
	ID            string           `json:"id"`
	Status        port.QueryStatus `json:"status"`
	TotalRecords  int              `json:"totalRecords"`
	FailureReason string           `json:"failureReason,omitempty"`
}

func (r *queryExecutionResponse) toPort() *port.QueryExecution {
	return &port.QueryExecution{
		ID:            r.ID,
		Status:        r.Status,
		TotalRecords:  r.TotalRecords,
		FailureReason: r.FailureReason,
	}
}

// Execute submits the saved query for asynchronous execution.
func (c *QueryClient) Execute(ctx context.Context, queryID string, entityType model.EntityType) (*port.QueryExecution, error) {
	body := map[string]string{
		"queryId":    queryID,
		"entityType": string(entityType),
	}
	var execution queryExecutionResponse
	if err := c.client.postJSON(ctx, c.client.endpoint("/query", nil), "", body, &execution); err != nil {
		return nil, err
	}
	return execution.toPort(), nil
}

// Status fetches the current state of a query execution.
func (c *QueryClient) Status(ctx context.Context, executionID string) (*port.QueryExecution, error) {
	var execution queryExecutionResponse
	if err := c.client.getJSON(ctx, c.client.endpoint(fmt.Sprintf("/query/%s", executionID), nil), "", &execution); err != nil {
		return nil, err
	}
	return execution.toPort(), nil
}

// Page fetches one page of result rows. Rows arrive as raw JSON blobs keyed
// by the entity-specific result column.
func (c *QueryClient) Page(ctx context.Context, executionID string, offset, limit int) (*port.QueryPage, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var page struct {
		Content []json.RawMessage `json:"content"`
	}
	if err := c.client.getJSON(ctx, c.client.endpoint(fmt.Sprintf("/query/%s/results", executionID), query), "", &page); err != nil {
		return nil, err
	}

	rows := make([][]byte, 0, len(page.Content))
	for _, row := range page.Content {
		rows = append(rows, []byte(row))
	}
	return &port.QueryPage{Rows: rows}, nil
}
