package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/keyquota/pkg/api"
	"github.com/platinummonkey/keyquota/pkg/httputil"
	"github.com/platinummonkey/keyquota/pkg/middleware"
	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// DefaultEndpoint is the address of a locally running keyquota server
const DefaultEndpoint = "http://localhost:9311"

// logger is the CLI's debug logger. cmd/keyquota-cli replaces it.
var logger logrus.FieldLogger = logrus.StandardLogger()

// SetLogger sets the logger used for request tracing
func SetLogger(l logrus.FieldLogger) {
	logger = l
}

// APIError is a non-2xx response from the quota API
type APIError struct {
	Status      int
	Title       string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s (%d): %s", e.Title, e.Status, e.Description)
	}
	return fmt.Sprintf("%s (%d)", e.Title, e.Status)
}

// ProjectQuotasPage is one page of GET /v1/project-quotas
type ProjectQuotasPage struct {
	ProjectQuotas []api.ProjectQuotasListItem `json:"project_quotas"`
	Total         int                         `json:"total"`
	Previous      string                      `json:"previous,omitempty"`
	Next          string                      `json:"next,omitempty"`
}

// Client talks to the keyquota HTTP API
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the server at endpoint
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetProjectQuotas replaces the quota record of a project
func (c *Client) SetProjectQuotas(ctx context.Context, projectID string, values map[quotas.ResourceType]int) error {
	body := map[string]map[quotas.ResourceType]int{"project_quotas": values}
	return c.do(ctx, http.MethodPut, "/v1/project-quotas/"+url.PathEscape(projectID), nil, body, nil)
}

// GetProjectQuotas returns the configured quotas of a project
func (c *Client) GetProjectQuotas(ctx context.Context, projectID string) (quotas.ProjectQuotas, error) {
	var out api.ProjectQuotasResponse
	err := c.do(ctx, http.MethodGet, "/v1/project-quotas/"+url.PathEscape(projectID), nil, nil, &out)
	return out.ProjectQuotas, err
}

// ListProjectQuotas returns one page of configured project quotas
func (c *Client) ListProjectQuotas(ctx context.Context, offset, limit int) (*ProjectQuotasPage, error) {
	query := url.Values{}
	query.Set("offset", strconv.Itoa(offset))
	query.Set("limit", strconv.Itoa(limit))

	var out ProjectQuotasPage
	if err := c.do(ctx, http.MethodGet, "/v1/project-quotas", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProjectQuotas removes the quota record of a project
func (c *Client) DeleteProjectQuotas(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/project-quotas/"+url.PathEscape(projectID), nil, nil, nil)
}

// EffectiveQuotas returns the effective quotas of a project
func (c *Client) EffectiveQuotas(ctx context.Context, projectID string) (quotas.EffectiveQuotas, error) {
	var out api.QuotasResponse
	err := c.doAs(ctx, projectID, http.MethodGet, "/v1/quotas", nil, nil, &out)
	return out.Quotas, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	return c.doAs(ctx, "", method, path, query, in, out)
}

func (c *Client) doAs(ctx context.Context, projectID, method, path string, query url.Values, in, out interface{}) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if projectID != "" {
		req.Header.Set(middleware.ProjectHeader, projectID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.WithFields(logrus.Fields{
		"method":      method,
		"url":         target,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("request completed")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}

	var body httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if body.Title != "" {
			apiErr.Title = body.Title
		}
		apiErr.Description = body.Description
	}
	return apiErr
}
