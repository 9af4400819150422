// Package backend is the REST client for the lunch ordering backend.
package backend

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
	"time"
)

const defaultTimeout = 15 * time.Second

// Sentinel errors matched by *APIError through errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("resource not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Detail)
}

// Is lets callers match on the sentinel for well-known statuses.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Client talks to the backend on behalf of an authenticated user; every
// call forwards the user's bearer token.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client for baseURL (e.g. http://localhost:8000/api/v1).
// A nil httpClient gets a client with a 15s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError pulls the message out of "detail" or "message", falling back
// to the status text.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Detail: http.StatusText(resp.StatusCode)}

	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) != nil {
		return apiErr
	}

	var detail string
	hasDetail := len(payload.Detail) > 0 && string(payload.Detail) != "null"
	switch {
	case hasDetail && json.Unmarshal(payload.Detail, &detail) == nil:
		if detail != "" {
			apiErr.Detail = detail
		} else if payload.Message != "" {
			apiErr.Detail = payload.Message
		}
	case hasDetail:
		// Validation errors come back as a structured detail.
		apiErr.Detail = string(payload.Detail)
	case payload.Message != "":
		apiErr.Detail = payload.Message
	}
	return apiErr
}
