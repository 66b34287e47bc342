package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/ds-visualizer/internal/models"
)

// WorkspaceHeader selects the workspace on every request
const WorkspaceHeader = "X-Workspace-ID"

// Client is a Go SDK for the ds-visualizer JSON API
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	workspaceID string
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithWorkspaceID pins the client to a workspace. Without it the server
// assigns one on the first call and the client keeps using it.
func WithWorkspaceID(id string) Option {
	return func(c *Client) {
		c.workspaceID = id
	}
}

// NewClient creates a new ds-visualizer client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WorkspaceID returns the workspace the client operates on
func (c *Client) WorkspaceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workspaceID
}

// APIError is returned for non-2xx responses
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: HTTP %d %s - %s", e.Status, e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// StructureList is the catalog listing
type StructureList struct {
	Structures []models.StructureInfo `json:"structures"`
	Footer     models.Footer          `json:"footer"`
	Total      int                    `json:"total"`
}

// ListStructures returns the catalog
func (c *Client) ListStructures(ctx context.Context) (*StructureList, error) {
	return call[StructureList](ctx, c, http.MethodGet, "/api/v1/structures", nil)
}

// GetStructure returns one catalog entry
func (c *Client) GetStructure(ctx context.Context, id models.StructureID) (*models.StructureInfo, error) {
	return call[models.StructureInfo](ctx, c, http.MethodGet, structurePath(id, ""), nil)
}

// State returns the full workspace snapshot
func (c *Client) State(ctx context.Context) (*models.WorkspaceState, error) {
	return call[models.WorkspaceState](ctx, c, http.MethodGet, "/api/v1/state", nil)
}

// Select changes the selected structure; the schema text is cleared
func (c *Client) Select(ctx context.Context, id models.StructureID) (*models.WorkspaceState, error) {
	return call[models.WorkspaceState](ctx, c, http.MethodPut, "/api/v1/selection", models.SelectRequest{ID: string(id)})
}

// Reset returns the workspace to its fresh-start state, deleting the saved history
func (c *Client) Reset(ctx context.Context) (*models.WorkspaceState, error) {
	return call[models.WorkspaceState](ctx, c, http.MethodDelete, "/api/v1/state", nil)
}

// StructureState returns the contents and layout of one structure
func (c *Client) StructureState(ctx context.Context, id models.StructureID) (*models.StructureState, error) {
	return call[models.StructureState](ctx, c, http.MethodGet, structurePath(id, "/state"), nil)
}

// Add appends to a structure
func (c *Client) Add(ctx context.Context, id models.StructureID) (*models.MutationResponse, error) {
	return call[models.MutationResponse](ctx, c, http.MethodPost, structurePath(id, "/add"), nil)
}

// Remove applies the structure's remove rule
func (c *Client) Remove(ctx context.Context, id models.StructureID) (*models.MutationResponse, error) {
	return call[models.MutationResponse](ctx, c, http.MethodPost, structurePath(id, "/remove"), nil)
}

// RemoveAt deletes the element at index; only Array accepts it
func (c *Client) RemoveAt(ctx context.Context, id models.StructureID, index int) (*models.MutationResponse, error) {
	return call[models.MutationResponse](ctx, c, http.MethodPost, structurePath(id, "/remove"), models.RemoveRequest{Index: &index})
}

// Schema returns the schema panel
func (c *Client) Schema(ctx context.Context) (*models.SchemaState, error) {
	return call[models.SchemaState](ctx, c, http.MethodGet, "/api/v1/schema", nil)
}

// Generate starts a schema generation; it fails with code
// generation_in_progress while one is pending
func (c *Client) Generate(ctx context.Context) (*models.SchemaState, error) {
	return call[models.SchemaState](ctx, c, http.MethodPost, "/api/v1/schema/generate", nil)
}

// DefaultPollInterval is used by WaitForSchema for a non-positive interval
const DefaultPollInterval = 500 * time.Millisecond

// WaitForSchema polls until no generation is pending
func (c *Client) WaitForSchema(ctx context.Context, interval time.Duration) (*models.SchemaState, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := c.Schema(ctx)
		if err != nil {
			return nil, err
		}
		if !st.Generating {
			return st, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SaveSchema saves the current schema text
func (c *Client) SaveSchema(ctx context.Context) (*models.SaveSchemaResponse, error) {
	return call[models.SaveSchemaResponse](ctx, c, http.MethodPost, "/api/v1/schema/save", nil)
}

// LoadSavedSchema copies a saved entry back into the schema text
func (c *Client) LoadSavedSchema(ctx context.Context, savedID string) (*models.SchemaState, error) {
	return call[models.SchemaState](ctx, c, http.MethodPost, "/api/v1/schema/saved/"+url.PathEscape(savedID)+"/load", nil)
}

// DeleteSavedSchema removes a saved entry
func (c *Client) DeleteSavedSchema(ctx context.Context, savedID string) (*models.SchemaState, error) {
	return call[models.SchemaState](ctx, c, http.MethodDelete, "/api/v1/schema/saved/"+url.PathEscape(savedID), nil)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

func structurePath(id models.StructureID, suffix string) string {
	return "/api/v1/structures/" + id.Slug() + suffix
}

// call performs a request and unwraps the response envelope
func call[T any](ctx context.Context, c *Client, method, path string, payload interface{}) (*T, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    *T   `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Data == nil {
		return nil, fmt.Errorf("response has no data")
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := c.WorkspaceID(); id != "" {
		req.Header.Set(WorkspaceHeader, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.mu.Lock()
	if c.workspaceID == "" {
		c.workspaceID = resp.Header.Get(WorkspaceHeader)
	}
	c.mu.Unlock()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(respBody)}
		var result struct {
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &result) == nil && result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
