// Package client implements the outbound port interfaces as thin HTTP
// clients against the remote catalog gateway. Every client shares one base
// client carrying the gateway URL, tenant and token headers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/opencatalog/bulkops/pkg/bulkops/core/config"
	"github.com/opencatalog/bulkops/pkg/bulkops/support/util/exception"
)

const moduleName = "client"

const (
	tenantHeader = "X-Catalog-Tenant"
	tokenHeader  = "X-Catalog-Token"
)

// Client is the shared HTTP transport of all outbound port implementations.
type Client struct {
	baseURL string
	tenant  string
	token   string
	http    *http.Client
}

// New creates a Client from the application's client configuration.
func New(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Bulkops.Client.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.Bulkops.Client.BaseURL, "/"),
		tenant:  cfg.Bulkops.Client.Tenant,
		token:   cfg.Bulkops.Client.Token,
		http:    &http.Client{Timeout: timeout},
	}
}

// endpoint joins the base URL with a path and optional query values.
func (c *Client) endpoint(path string, query url.Values) string {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	return full
}

// do issues one request with the tenant and token headers applied. A
// non-empty tenantID overrides the configured tenant, which is how member
// tenant catalogs are addressed in a consortium.
func (c *Client) do(ctx context.Context, method, url, tenantID, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to build %s %s", method, url), err, false, false)
	}
	tenant := c.tenant
	if tenantID != "" {
		tenant = tenantID
	}
	if tenant != "" {
		req.Header.Set(tenantHeader, tenant)
	}
	if c.token != "" {
		req.Header.Set(tokenHeader, c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, fmt.Sprintf("%s %s failed", method, url), err, false, true)
	}
	return resp, nil
}

// getJSON issues a GET and decodes the JSON response into out. A non-2xx
// status is an error carrying the response body.
func (c *Client) getJSON(ctx context.Context, url, tenantID string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, url, tenantID, "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// postJSON issues a POST with a JSON body and decodes the JSON response into
// out when out is non-nil.
func (c *Client) postJSON(ctx context.Context, url, tenantID string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return exception.NewBatchError(moduleName, "failed to encode request body", err, false, false)
	}
	resp, err := c.do(ctx, http.MethodPost, url, tenantID, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

// decodeResponse checks the status and decodes the body into out when
// requested.
func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return exception.NewBatchError(moduleName,
			fmt.Sprintf("%s returned status %d: %s", resp.Request.URL, resp.StatusCode, strings.TrimSpace(string(body))),
			nil, false, resp.StatusCode >= 500)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return exception.NewBatchError(moduleName, fmt.Sprintf("failed to decode response from %s", resp.Request.URL), err, false, false)
	}
	return nil
}
