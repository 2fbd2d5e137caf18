package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lyzr/tagservice/cmd/tagservice/models"
)

// APIError is a non-2xx response from the tag service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tag service returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps status codes back onto the service sentinels so callers can use errors.Is
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusForbidden:
		return models.ErrForbidden
	default:
		return nil
	}
}

// TagClient talks to the tag service HTTP API.
// Caller identity travels in the context (WithUserID, WithUserRole).
type TagClient struct {
	baseURL string
	http    *HTTPClient
	logger  Logger
}

// NewTagClient creates a new tag API client
func NewTagClient(baseURL string, timeout time.Duration, logger Logger) *TagClient {
	httpClient := &http.Client{
		Timeout: timeout,
	}

	return &TagClient{
		baseURL: baseURL,
		http:    NewHTTPClient(httpClient, logger),
		logger:  logger,
	}
}

type tagList struct {
	Tags  []*models.Tag `json:"tags"`
	Count int           `json:"count"`
}

// CreateTag creates a tag, optionally rendering its QR code
func (c *TagClient) CreateTag(ctx context.Context, generateQR bool) (*models.Tag, error) {
	var tag models.Tag
	body := map[string]interface{}{"generate_qr": generateQR}
	if err := c.do(ctx, http.MethodPost, "/api/v1/tags", body, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetTag fetches a tag by id
func (c *TagClient) GetTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodGet, tagID, "", nil)
}

// LinkTag links a tag to an owner
func (c *TagClient) LinkTag(ctx context.Context, tagID, ownerID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPut, tagID, "/link", map[string]interface{}{"owner_id": ownerID})
}

// UnlinkTag clears the owner link
func (c *TagClient) UnlinkTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPut, tagID, "/unlink", nil)
}

// RevokeTag revokes a tag
func (c *TagClient) RevokeTag(ctx context.Context, tagID, reason string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPut, tagID, "/revoke", map[string]interface{}{"reason": reason})
}

// ReactivateTag reactivates a tag. Requires the admin role.
func (c *TagClient) ReactivateTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPut, tagID, "/reactivate", nil)
}

// DeactivateTag deactivates a tag. Requires the admin role.
func (c *TagClient) DeactivateTag(ctx context.Context, tagID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPut, tagID, "/deactivate", nil)
}

// RegenerateQR re-renders the QR code. Requires the admin role.
func (c *TagClient) RegenerateQR(ctx context.Context, tagID string) (*models.Tag, error) {
	return c.tagCall(ctx, http.MethodPost, tagID, "/regenerate-qr", nil)
}

// IssueToken mints a temporary access token. Zero hours uses the server default.
func (c *TagClient) IssueToken(ctx context.Context, tagID string, hours int) (*models.IssuedToken, error) {
	body := map[string]interface{}{}
	if hours > 0 {
		body["expires_in_hours"] = hours
	}

	var issued models.IssuedToken
	if err := c.do(ctx, http.MethodPost, tagPath(tagID, "/tokens"), body, nil, &issued); err != nil {
		return nil, err
	}
	return &issued, nil
}

// VerifyToken asks the service whether token is valid for tagID
func (c *TagClient) VerifyToken(ctx context.Context, tagID, token string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	body := map[string]interface{}{"token": token}
	if err := c.do(ctx, http.MethodPost, tagPath(tagID, "/verify-token"), body, nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// CheckAccess evaluates access to a tag, presenting token when non-empty
func (c *TagClient) CheckAccess(ctx context.Context, tagID, token string) (*models.AccessDecision, error) {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"X-Access-Token": token}
	}

	var decision models.AccessDecision
	if err := c.do(ctx, http.MethodGet, tagPath(tagID, "/access"), nil, headers, &decision); err != nil {
		return nil, err
	}
	return &decision, nil
}

// ListByStatus lists tags with a status. Requires the admin role.
func (c *TagClient) ListByStatus(ctx context.Context, status models.TagStatus) ([]*models.Tag, error) {
	var list tagList
	path := "/api/v1/tags/status/" + url.PathEscape(string(status))
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Tags, nil
}

// FindByOwner returns the tag linked to ownerID, or nil
func (c *TagClient) FindByOwner(ctx context.Context, ownerID string) (*models.Tag, error) {
	var tag *models.Tag
	path := "/api/v1/tags/owner/" + url.PathEscape(ownerID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Search lists tags matching a CEL expression. Requires the admin role.
func (c *TagClient) Search(ctx context.Context, expr string) ([]*models.Tag, error) {
	var list tagList
	path := "/api/v1/tags/search?q=" + url.QueryEscape(expr)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Tags, nil
}

func (c *TagClient) tagCall(ctx context.Context, method, tagID, suffix string, body interface{}) (*models.Tag, error) {
	var tag models.Tag
	if err := c.do(ctx, method, tagPath(tagID, suffix), body, nil, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}

func (c *TagClient) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.http.DoRequest(ctx, method, c.baseURL+path, reader, headers)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
	}
	msg := string(raw)
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func tagPath(tagID, suffix string) string {
	return "/api/v1/tags/" + url.PathEscape(tagID) + suffix
}

// IsNotFound reports whether err is a 404 from the tag service
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}
