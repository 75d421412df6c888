package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/opencatalog/bulkops/pkg/bulkops/cache"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/logger"
)

// ReferenceClient resolves reference ids and names against the remote
// catalogs. Both directions degrade to returning the input unchanged when
// the reference is absent or the catalog unreachable; the codec treats the
// input as already resolved in that case.
type ReferenceClient struct {
	client *Client
}

var _ port.ReferenceResolver = (*ReferenceClient)(nil)

// NewReferenceClient creates a ReferenceClient.
func NewReferenceClient(client *Client) *ReferenceClient {
	return &ReferenceClient{client: client}
}

type referenceEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NameByID resolves a reference id to its display name.
func (c *ReferenceClient) NameByID(ctx context.Context, kind, id, tenantID string) string {
	var entry referenceEntry
	if err := c.client.getJSON(ctx, c.client.endpoint(fmt.Sprintf("/%s/%s", kind, id), nil), tenantID, &entry); err != nil {
		logger.Debugf("Reference lookup %s/%s failed, keeping raw value: %v", kind, id, err)
		return id
	}
	if entry.Name == "" {
		return id
	}
	return entry.Name
}

// IDByName resolves a display name back to its reference id.
func (c *ReferenceClient) IDByName(ctx context.Context, kind, name, tenantID string) string {
	query := url.Values{}
	query.Set("name", name)

	var response struct {
		Entries []referenceEntry `json:"entries"`
	}
	if err := c.client.getJSON(ctx, c.client.endpoint("/"+kind, query), tenantID, &response); err != nil {
		logger.Debugf("Reference lookup %s by name '%s' failed, keeping raw value: %v", kind, name, err)
		return name
	}
	if len(response.Entries) == 0 || response.Entries[0].ID == "" {
		return name
	}
	return response.Entries[0].ID
}

// NoteTypes returns the note-type catalog of the given tenant.
func (c *ReferenceClient) NoteTypes(ctx context.Context, tenantID string) ([]model.NoteType, error) {
	var response struct {
		NoteTypes []model.NoteType `json:"noteTypes"`
	}
	if err := c.client.getJSON(ctx, c.client.endpoint("/note-types", nil), tenantID, &response); err != nil {
		return nil, err
	}
	for i := range response.NoteTypes {
		if response.NoteTypes[i].TenantID == "" {
			response.NoteTypes[i].TenantID = tenantID
		}
	}
	return response.NoteTypes, nil
}

// CachingResolver decorates a ReferenceResolver with the per-tenant lookup
// cache. Only the id-to-name and name-to-id directions are cached; note-type
// catalogs are fetched fresh because the transposer already caches its
// derived column set on the operation.
type CachingResolver struct {
	next  port.ReferenceResolver
	cache cache.Cache
	ttl   time.Duration
}

var _ port.ReferenceResolver = (*CachingResolver)(nil)

// NewCachingResolver wraps the resolver with the configured cache.
func NewCachingResolver(next port.ReferenceResolver, store cache.Cache, cfg *config.CacheConfig) *CachingResolver {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachingResolver{next: next, cache: store, ttl: ttl}
}

func (r *CachingResolver) NameByID(ctx context.Context, kind, id, tenantID string) string {
	key := kind + ":id:" + id
	if value, err := r.cache.Get(ctx, key, tenantID); err == nil {
		return value
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warnf("Reference cache get failed for %s: %v", key, err)
	}

	name := r.next.NameByID(ctx, kind, id, tenantID)
	if name != id {
		if err := r.cache.Set(ctx, key, tenantID, name, r.ttl); err != nil {
			logger.Warnf("Reference cache set failed for %s: %v", key, err)
		}
	}
	return name
}

func (r *CachingResolver) IDByName(ctx context.Context, kind, name, tenantID string) string {
	key := kind + ":name:" + name
	if value, err := r.cache.Get(ctx, key, tenantID); err == nil {
		return value
	} else if !errors.Is(err, cache.ErrMiss) {
		logger.Warnf("Reference cache get failed for %s: %v", key, err)
	}

	id := r.next.IDByName(ctx, kind, name, tenantID)
	if id != name {
		if err := r.cache.Set(ctx, key, tenantID, id, r.ttl); err != nil {
			logger.Warnf("Reference cache set failed for %s: %v", key, err)
		}
	}
	return id
}

func (r *CachingResolver) NoteTypes(ctx context.Context, tenantID string) ([]model.NoteType, error) {
	return r.next.NoteTypes(ctx, tenantID)
}
