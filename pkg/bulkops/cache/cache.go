// Package cache provides the lookup cache used by reference resolution.
// Remote catalogs translate ids to human-readable names and back; those
// translations are hot and stable, so they are cached per tenant with a TTL.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when the cache holds no value for the requested key.
var ErrMiss = errors.New("cache miss")

// Cache is a (key, tenant) -> value store with TTL. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key, tenantID string) (string, error)
	Set(ctx context.Context, key, tenantID, value string, ttl time.Duration) error
	// Invalidate removes the entry for the given key and tenant. Removing an
	// absent entry is not an error.
	Invalidate(ctx context.Context, key, tenantID string) error
}

// entryKey builds the storage key for a (key, tenant) pair. An empty tenant
// addresses the current tenant's namespace.
func entryKey(key, tenantID string) string {
	if tenantID == "" {
		return "bulkops:ref:" + key
	}
	return "bulkops:ref:" + tenantID + ":" + key
}
