package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencatalog/bulkops/pkg/bulkops/cache"
	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	model "github.com/opencatalog/bulkops/pkg/bulkops/core/domain/model"
	port "github.com/opencatalog/bulkops/pkg/bulkops/core/port"
)

func testClient(serverURL string) *Client {
	cfg := config.NewConfig()
	cfg.Bulkops.Client.BaseURL = serverURL
	cfg.Bulkops.Client.Tenant = "central"
	cfg.Bulkops.Client.Token = "secret"
	return New(cfg)
}

func TestExportClientCreateJobSendsIdentifiersAndHeaders(t *testing.T) {
	var gotTenant, gotToken, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTenant = r.Header.Get("X-Catalog-Tenant")
		gotToken = r.Header.Get("X-Catalog-Token")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		assert.Equal(t, "ITEM", r.URL.Query().Get("entityType"))
		assert.Equal(t, "BARCODE", r.URL.Query().Get("identifierType"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"job-1","status":"SCHEDULED"}`)
	}))
	defer server.Close()

	exports := NewExportClient(testClient(server.URL))
	job, err := exports.CreateJob(context.Background(), model.EntityTypeItem, model.IdentifierTypeBarcode, strings.NewReader("b-1\nb-2\n"))
	assert.NoError(t, err)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, port.ExportJobScheduled, job.Status)
	assert.Equal(t, "central", gotTenant)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, "b-1\nb-2\n", gotBody)
}

func TestQueryClientPageDecodesRawRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query/exec-1/results", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"content":[{"id":"u-1"},{"id":"u-2"}]}`)
	}))
	defer server.Close()

	queries := NewQueryClient(testClient(server.URL))
	page, err := queries.Page(context.Background(), "exec-1", 100, 50)

	assert.NoError(t, err)
	if assert.Len(t, page.Rows, 2) {
		assert.JSONEq(t, `{"id":"u-1"}`, string(page.Rows[0]))
	}
}

func TestPermissionClientReturnsErrorOnDenial(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "member1", r.Header.Get("X-Catalog-Tenant"))
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "read denied")
	}))
	defer server.Close()

	permissions := NewPermissionClient(testClient(server.URL))
	err := permissions.CanRead(context.Background(), model.EntityTypeItem, "rec-1", "member1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read denied")
}

type countingResolver struct {
	nameCalls int
}

func (r *countingResolver) NameByID(ctx context.Context, kind, id, tenantID string) string {
	r.nameCalls++
	return "Topical"
}

func (r *countingResolver) IDByName(ctx context.Context, kind, name, tenantID string) string {
	return "type-id"
}

func (r *countingResolver) NoteTypes(ctx context.Context, tenantID string) ([]model.NoteType, error) {
	return nil, nil
}

func TestCachingResolverServesRepeatLookupsFromCache(t *testing.T) {
	next := &countingResolver{}
	resolver := NewCachingResolver(next, cache.NewMemoryCache(), &config.CacheConfig{TTLSeconds: 60})
	ctx := context.Background()

	assert.Equal(t, "Topical", resolver.NameByID(ctx, port.RefSubjectType, "type-id", "tenantA"))
	assert.Equal(t, "Topical", resolver.NameByID(ctx, port.RefSubjectType, "type-id", "tenantA"))
	assert.Equal(t, 1, next.nameCalls)

	// A different tenant is a different cache namespace.
	assert.Equal(t, "Topical", resolver.NameByID(ctx, port.RefSubjectType, "type-id", "tenantB"))
	assert.Equal(t, 2, next.nameCalls)
}
