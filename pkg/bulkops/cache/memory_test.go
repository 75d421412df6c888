package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheSetAndGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "note-types:General note", "tenantA", "note-id", time.Minute))

	value, err := c.Get(ctx, "note-types:General note", "tenantA")
	assert.NoError(t, err)
	assert.Equal(t, "note-id", value)
}

func TestMemoryCacheMissOnAbsentKey(t *testing.T) {
	c := NewMemoryCache()
	_, err := c.Get(context.Background(), "absent", "tenantA")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheTenantsAreIsolated(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "key", "tenantA", "a-value", 0))
	assert.NoError(t, c.Set(ctx, "key", "tenantB", "b-value", 0))

	value, err := c.Get(ctx, "key", "tenantA")
	assert.NoError(t, err)
	assert.Equal(t, "a-value", value)

	value, err = c.Get(ctx, "key", "tenantB")
	assert.NoError(t, err)
	assert.Equal(t, "b-value", value)

	_, err = c.Get(ctx, "key", "")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "key", "tenantA", "value", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := c.Get(ctx, "key", "tenantA")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "key", "tenantA", "value", 0))
	assert.NoError(t, c.Invalidate(ctx, "key", "tenantA"))
	assert.NoError(t, c.Invalidate(ctx, "key", "tenantA"))

	_, err := c.Get(ctx, "key", "tenantA")
	assert.ErrorIs(t, err, ErrMiss)
}
