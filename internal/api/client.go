// Package api is the HTTP client for the Nomadway backend. It exposes a raw
// request primitive plus typed wrappers for the auth, cart and favorites
// endpoints. Authenticated endpoints are reached through a Requester (the
// session manager's guarded request path); auth endpoints are called on the
// Client directly since they carry their own credentials.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the Nomadway backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a backend client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Response is a decoded-enough backend response: the status code and the
// raw body, with a JSON helper for callers that expect a payload.
type Response struct {
	StatusCode int
	Body       []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *apiError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Requester issues a request on an authenticated path. The session manager
// implements it with token attachment and refresh-and-retry on 401.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*Response, error)
}

// Do executes a request against the backend. A non-empty token is attached
// as a bearer credential. The returned error is classified per the client
// failure taxonomy; on a non-2xx status the Response is still returned so
// callers can inspect the body.
func (c *Client) Do(ctx context.Context, method, path string, body any, token string) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &TransientError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Cause: err}
	}

	out := &Response{StatusCode: resp.StatusCode, Body: respBody}
	if resp.StatusCode >= 400 {
		return out, classify(resp.StatusCode, respBody)
	}
	return out, nil
}

// classify maps a non-2xx status to the client failure taxonomy.
func classify(status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	switch {
	case status == http.StatusUnauthorized:
		if msg := apiErr.text(); msg != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		}
		return ErrUnauthorized
	case status >= 500:
		return &ServerError{Status: status}
	default:
		return &ValidationError{
			Status:  status,
			Code:    apiErr.Code,
			Message: apiErr.text(),
		}
	}
}
