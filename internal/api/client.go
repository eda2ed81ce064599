// Package api is the HTTP client for the publishing service.
//
// Every method returns an error only for transport-level failures: the
// request could not be sent, the server answered with a non-200 status, or
// the body was not the expected JSON. Application-level refusals
// ({"success": false, ...}) come back as a normal response value.
package api

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

	"github.com/gorewood/echopost/internal/output"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is quoted in errors.
const maxErrorBody = 500

// HTTPDoer defines the HTTP operations required by Client.
// This allows injection of test doubles for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to one publishing server.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// New creates a Client for the server at baseURL.
// A non-positive timeout uses DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithDoer(baseURL, &http.Client{Timeout: timeout})
}

// NewWithDoer creates a Client that sends requests through doer.
func NewWithDoer(baseURL string, doer HTTPDoer) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: doer}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// endpoint joins path segments onto the base URL, escaping each one.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// doJSON sends body (if any) as JSON and decodes the response into out.
func (c *Client) doJSON(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return output.NewSystemErrorWithCause("failed to marshal request", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return output.NewSystemErrorWithCause("failed to create request", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	return c.send(httpReq, out)
}

// send performs the request and decodes a 200 response into out.
func (c *Client) send(httpReq *http.Request, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return output.NewSystemErrorWithCause("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return output.NewSystemErrorWithCause("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		errBody := string(respBody)
		if len(errBody) > maxErrorBody {
			errBody = errBody[:maxErrorBody]
		}
		return output.NewSystemError(fmt.Sprintf("API error (status %d): %s", resp.StatusCode, errBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return output.NewSystemErrorWithCause("failed to parse response", err)
	}
	return nil
}
