package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// ExportClient drives the remote identifier-export system.
type ExportClient struct {
	client *Client
}

var _ port.DataExportClient = (*ExportClient)(nil)

// NewExportClient creates an ExportClient.
func NewExportClient(client *Client) *ExportClient {
	return &ExportClient{client: client}
}

type exportJobResponse struct {
	ID     string               `json:"id"`
	Status port.ExportJobStatus `json:"status"`
}

// CreateJob registers an export job and streams the identifiers file as the
// request body.
func (c *ExportClient) CreateJob(ctx context.Context, entityType model.EntityType, identifierType model.IdentifierType, identifiers io.Reader) (*port.ExportJob, error) {
	query := url.Values{}
	query.Set("entityType", string(entityType))
	query.Set("identifierType", string(identifierType))

	resp, err := c.client.do(ctx, http.MethodPost, c.client.endpoint("/bulk-export/jobs", query), "", "text/csv", identifiers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var job exportJobResponse
	if err := decodeResponse(resp, &job); err != nil {
		return nil, err
	}
	return &port.ExportJob{ID: job.ID, Status: job.Status}, nil
}

// StartJob starts a job that did not auto-start on creation.
func (c *ExportClient) StartJob(ctx context.Context, jobID string) error {
	resp, err := c.client.do(ctx, http.MethodPost, c.client.endpoint(fmt.Sprintf("/bulk-export/jobs/%s/start", jobID), nil), "", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, nil)
}

// DownloadFile fetches one result artifact by its absolute URL. The caller
// owns the returned reader.
func (c *ExportClient) DownloadFile(ctx context.Context, fileURL string) (io.ReadCloser, error) {
	resp, err := c.client.do(ctx, http.MethodGet, fileURL, "", "", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, decodeResponse(resp, nil)
	}
	return resp.Body, nil
}
