package client

import (
	"context"
	"net/url"

	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

// PermissionClient checks record read permissions against the remote
// permission service.
type PermissionClient struct {
	client *Client
}

var _ port.PermissionChecker = (*PermissionClient)(nil)

// NewPermissionClient creates a PermissionClient.
func NewPermissionClient(client *Client) *PermissionClient {
	return &PermissionClient{client: client}
}

// CanRead returns nil when the current user may read the record, an error
// describing the denial otherwise.
func (c *PermissionClient) CanRead(ctx context.Context, entityType model.EntityType, recordID, tenantID string) error {
	query := url.Values{}
	query.Set("entityType", string(entityType))
	query.Set("recordId", recordID)

	return c.client.getJSON(ctx, c.client.endpoint("/permissions/read", query), tenantID, nil)
}
