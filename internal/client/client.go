// Package client talks to the comment HTTP API.
package client

import (
	"CaseComments/internal/models"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API at baseURL. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) List(ctx context.Context, caseID string) ([]*models.Comment, error) {
	var out []*models.Comment
	if err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(caseID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Threads(ctx context.Context, caseID string) (*models.ThreadView, error) {
	var out models.ThreadView
	if err := c.do(ctx, http.MethodGet, "/api/comments/"+url.PathEscape(caseID)+"/threads", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Create(ctx context.Context, req models.CommentRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPost, "/api/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id string, req models.UpdateRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.do(ctx, http.MethodPut, "/api/comments/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id, author string) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(id), models.DeleteRequest{Author: author}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps an API error response back onto the model errors.
func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return &models.ValidationError{Message: msg}
	case http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, models.ErrForbidden)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, models.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, models.ErrConflict)
	default:
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, msg)
	}
}
