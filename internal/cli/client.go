package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/documind/internal/models"
)

// DefaultServerURL is where client commands look for a running server.
const DefaultServerURL = "http://localhost:8000"

// UploadResult is the response of a successful upload.
type UploadResult struct {
	ID            string `json:"id"`
	FileName      string `json:"filename"`
	Status        string `json:"status"`
	ChunksCreated int    `json:"chunks_created"`
}

// APIError is a non-success response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the documind HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Search runs a retrieval query.
func (c *Client) Search(ctx context.Context, query string, topK int) (*models.QueryResponse, error) {
	var out models.QueryResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/search", models.QueryRequest{Query: query, TopK: topK}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Agent runs the named agent ("qa", "summary" or "insights").
func (c *Client) Agent(ctx context.Context, kind, question string, topK int) (*models.AgentResponse, error) {
	var out models.AgentResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/agents/"+url.PathEscape(kind),
		models.AgentRequest{Question: question, TopK: topK}, http.StatusOK, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var out Status
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/status", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload sends the file at path as a multipart upload.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/documents/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	var out UploadResult
	if err := c.send(req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WatchDirectories lists watched directories.
func (c *Client) WatchDirectories(ctx context.Context) ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/watch/directories", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

// AddWatchDirectory starts watching path and indexes its existing files when sync is set.
func (c *Client) AddWatchDirectory(ctx context.Context, path string, sync bool) error {
	body := map[string]interface{}{"path": path, "sync": sync}
	return c.doJSON(ctx, http.MethodPost, "/api/v1/watch/directories", body, http.StatusCreated, nil)
}

// RemoveWatchDirectory stops watching path.
func (c *Client) RemoveWatchDirectory(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(path), nil, http.StatusOK, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in interface{}, want int, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, want, out)
}

func (c *Client) send(req *http.Request, want int, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed (is the server running at %s?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}
