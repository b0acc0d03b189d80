// Package dockclient is an HTTP client for the code dock service's REST
// surface: client id acquisition for the search WebSocket, batch file
// content retrieval, and codebase management calls.
package dockclient

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
)

var (
	ErrAcquisition = errors.New("failed to acquire client id")
	ErrBadBaseURL  = errors.New("invalid dock server base URL")
	ErrDockStatus  = errors.New("dock server returned error status")
)

const maxResponseBody = 32 * 1024 * 1024 // 32MB

// Client talks to one dock server. Safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New parses baseURL (e.g. "http://localhost:30089") and returns a Client.
// httpClient may be nil, in which case http.DefaultClient is used.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrBadBaseURL, u.Scheme)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// BaseURL returns the configured base URL string without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// SearchSocketURL returns the WebSocket endpoint for the given client id.
// The ws/wss scheme is derived from the base URL's http/https scheme.
func (c *Client) SearchSocketURL(clientID string) string {
	scheme := "ws"
	if c.baseURL.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + c.baseURL.Host + "/ws/strong_search/" + url.PathEscape(clientID)
}

// NewClientID obtains a fresh client id for a search session. The id must be
// acquired before the WebSocket connection is opened.
func (c *Client) NewClientID(ctx context.Context) (string, error) {
	var resp struct {
		ClientID string `json:"client_id"`
	}
	if err := c.getJSON(ctx, "/strong_search/new_client_id", &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	if resp.ClientID == "" {
		return "", fmt.Errorf("%w: empty client_id in response", ErrAcquisition)
	}
	return resp.ClientID, nil
}

// FetchFileBatch retrieves the contents of the given paths from a codebase
// in a single request. The server substitutes an error string for paths it
// cannot read; paths missing from the response entirely are left to the
// caller to fill in.
func (c *Client) FetchFileBatch(ctx context.Context, codebaseName string, filePaths []string) (map[string]string, error) {
	req := struct {
		FilePaths []string `json:"file_paths"`
	}{FilePaths: filePaths}

	var resp struct {
		Contents map[string]string `json:"contents"`
	}
	path := "/codebases/" + url.PathEscape(codebaseName) + "/files/batch"
	if err := c.postJSON(ctx, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.Contents == nil {
		resp.Contents = map[string]string{}
	}
	return resp.Contents, nil
}

// CodebaseInfo describes one codebase registered with the dock server.
type CodebaseInfo struct {
	Name             string  `json:"name"`
	CodePath         string  `json:"code_path"`
	Indexed          bool    `json:"indexed"`
	IndexingStatus   string  `json:"indexing_status,omitempty"`
	AnalyzerReady    bool    `json:"analyzer_ready"`
	AnalyzerProgress float64 `json:"analyzer_progress"`
}

// ListCodebases returns all codebases known to the server.
func (c *Client) ListCodebases(ctx context.Context) ([]CodebaseInfo, error) {
	var resp []CodebaseInfo
	if err := c.getJSON(ctx, "/codebases", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// TriggerIndex asks the server to (re)index a codebase. Indexing runs in the
// background on the server; this returns once the request is accepted.
func (c *Client) TriggerIndex(ctx context.Context, codebaseName string) error {
	path := "/codebases/" + url.PathEscape(codebaseName) + "/index"
	return c.postJSON(ctx, path, struct{}{}, nil)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL()+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL()+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(data))
		if len(detail) > 512 {
			detail = detail[:512]
		}
		return fmt.Errorf("%w: %s %s: %d %s", ErrDockStatus, req.Method, req.URL.Path, resp.StatusCode, detail)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
