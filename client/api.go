// Package client is the admin UI's data layer: a typed REST client for the
// posts API plus an optimistic cache synchronizer that keeps a local view of
// the paginated post list in step with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"blogadmin/models"
)

// ErrorKind classifies API failures for the synchronizer. Every kind rolls
// back the same way; only the user-facing message differs.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // 422, field errors present
	KindNotFound   ErrorKind = "not_found"  // 404
	KindServer     ErrorKind = "server"     // 5xx and other unexpected statuses
	KindNetwork    ErrorKind = "network"    // no response received
)

type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("api error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%s): %s", e.Kind, e.Message)
}

// IsNotFound reports whether err is a 404 API error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}

// IsValidation reports whether err is a 422 API error.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindValidation
}

// API is a client for the posts REST surface. It is safe for concurrent use.
type API struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI creates a client for the server at baseURL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken installs the bearer token used on every subsequent request.
func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) bearer() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

type errorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// do issues a request and decodes a 2xx response into result. Non-2xx
// statuses and transport failures come back as *APIError.
func (a *API) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token := a.bearer(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

func apiErrorFrom(status int, body []byte) *APIError {
	var parsed errorResponse
	_ = json.Unmarshal(body, &parsed)
	if parsed.Message == "" {
		parsed.Message = http.StatusText(status)
	}

	kind := KindServer
	switch {
	case status == http.StatusUnprocessableEntity:
		kind = KindValidation
	case status == http.StatusNotFound:
		kind = KindNotFound
	}
	return &APIError{
		Kind:    kind,
		Status:  status,
		Message: parsed.Message,
		Fields:  parsed.Errors,
	}
}

type postResource struct {
	Data models.Post `json:"data"`
}

type listResponse struct {
	Data []models.Post `json:"data"`
	Meta struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
		PerPage     int `json:"per_page"`
		Total       int `json:"total"`
	} `json:"meta"`
}

// Login authenticates and installs the returned token on the client.
func (a *API) Login(ctx context.Context, username, password string) error {
	var result struct {
		AccessToken string `json:"access_token"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := a.do(ctx, http.MethodPost, "/login", body, &result); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.SetToken(result.AccessToken)
	return nil
}

// ListPosts fetches one page of posts and flattens the pagination envelope
// into a View.
func (a *API) ListPosts(ctx context.Context, q Query) (*View, error) {
	var result listResponse
	if err := a.do(ctx, http.MethodGet, "/posts?"+q.normalized().values().Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &View{
		Posts:       result.Data,
		Total:       result.Meta.Total,
		CurrentPage: result.Meta.CurrentPage,
		LastPage:    result.Meta.LastPage,
		PerPage:     result.Meta.PerPage,
	}, nil
}

func (a *API) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var result postResource
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d", id), nil, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func (a *API) CreatePost(ctx context.Context, req models.CreatePostRequest) (*models.Post, error) {
	var result postResource
	if err := a.do(ctx, http.MethodPost, "/posts", req, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func (a *API) UpdatePost(ctx context.Context, id int64, req models.UpdatePostRequest) (*models.Post, error) {
	var result postResource
	if err := a.do(ctx, http.MethodPut, fmt.Sprintf("/posts/%d", id), req, &result); err != nil {
		return nil, err
	}
	return &result.Data, nil
}

func (a *API) DeletePost(ctx context.Context, id int64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

// BulkDeleteResult reports how many posts a bulk delete removed.
type BulkDeleteResult struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deleted_count"`
}

func (a *API) BulkDeletePosts(ctx context.Context, ids []int64) (*BulkDeleteResult, error) {
	var result BulkDeleteResult
	body := models.BulkDeleteRequest{IDs: ids}
	if err := a.do(ctx, http.MethodDelete, "/posts/bulk", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats fetches per-status post totals.
func (a *API) Stats(ctx context.Context) (*models.StatusCounts, error) {
	var result models.StatusCounts
	if err := a.do(ctx, http.MethodGet, "/posts/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
