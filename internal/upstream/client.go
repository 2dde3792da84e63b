// Package upstream contains the HTTP clients for the remote ThreatView
// backend: authentication, the threat feed, reports and IoC search. All of
// them share one fetch discipline (see Client.do): no intermediate caching,
// body read as raw text before JSON decoding, and non-2xx statuses treated
// as failures even when the body parses cleanly.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Error carries the upstream HTTP status and the best available message:
// the parsed body's `message` field when the body is JSON, otherwise the
// raw response text. A zero Status means the request never completed.
type Error struct {
	Status  int
	Message string
	Raw     string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("request failed: %d", e.Status)
	}
	return "upstream request failed"
}

// Client is the shared HTTP transport for all upstream endpoint clients.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a client. A nil httpClient falls back to
// http.DefaultClient; no request timeout is imposed here, callers control
// cancellation through their context.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient}
}

// do issues a request and decodes the JSON response into out (out may be
// nil). The body is always read as raw text first so an HTML error page or
// truncated payload surfaces as an Error carrying that text instead of an
// opaque decode failure.
func (c *Client) do(ctx context.Context, method, url, bearer string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	// Repeated polling must always reflect live server state.
	req.Header.Set("Cache-Control", "no-store")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	parsed := map[string]json.RawMessage{}
	parseErr := json.Unmarshal(raw, &parsed)
	if parseErr != nil && len(bytes.TrimSpace(raw)) > 0 {
		// Backend returned HTML or other non-JSON content.
		if !isJSON(raw) {
			return &Error{Status: res.StatusCode, Message: string(raw), Raw: string(raw)}
		}
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return &Error{
			Status:  res.StatusCode,
			Message: messageFromBody(raw),
			Raw:     string(raw),
		}
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Status: res.StatusCode, Message: string(raw), Raw: string(raw)}
		}
	}
	return nil
}

// get issues a GET request decoding into out.
func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, "", nil, out)
}

// getRaw issues a GET request and returns the raw body bytes and content
// type, used for report export streaming.
func (c *Client) getRaw(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("upstream request failed: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, "", &Error{Status: res.StatusCode, Message: messageFromBody(raw), Raw: string(raw)}
	}
	return raw, res.Header.Get("Content-Type"), nil
}

// isJSON reports whether raw decodes as any JSON value.
func isJSON(raw []byte) bool {
	return json.Valid(raw)
}

// messageFromBody extracts the `message` field of a JSON error body, falling
// back to the raw text for non-JSON bodies and to empty otherwise.
func messageFromBody(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return body.Message
}
