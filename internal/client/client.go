// Package client is a small HTTP client for the vertex API, used by the
// vertex CLI. It keeps the server's session cookie in a jar so token
// issuance and file operations land on the same session context.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// FileEntry is one file's metadata as the server reports it.
type FileEntry struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResult is the server's answer to a successful upload.
type UploadResult struct {
	FileType string `json:"file_type"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// Client talks to one vertex server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Signup registers a new account and returns the issued session key.
func (c *Client) Signup(ctx context.Context, username, email, password string) (string, error) {
	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Key     string `json:"your session key"`
	}
	err := c.postForm(ctx, "/signup/", url.Values{
		"username": {username},
		"email":    {email},
		"password": {password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("signup rejected: %s", resp.Message)
	}
	return resp.Key, nil
}

// Login authenticates and returns the freshly issued session key.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Status     bool   `json:"status"`
		Message    string `json:"message"`
		SessionKey string `json:"session_key"`
	}
	err := c.postForm(ctx, "/login/", url.Values{
		"username": {username},
		"password": {password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("login rejected: %s", resp.Message)
	}
	return resp.SessionKey, nil
}

// Token fetches the session's live key, minting one if needed.
func (c *Client) Token(ctx context.Context, username, password string) (string, error) {
	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Key     string `json:"key"`
	}
	err := c.postForm(ctx, "/token/", url.Values{
		"username": {username},
		"password": {password},
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Status {
		return "", fmt.Errorf("token request rejected: %s", resp.Message)
	}
	return resp.Key, nil
}

// Upload sends one file under the given session key. The file data is
// streamed into the request body, so arbitrarily large files never sit
// fully in memory.
func (c *Client) Upload(ctx context.Context, key, filename, contentType string, data io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(w, key, filename, contentType, data)
		if cerr := w.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create/file/", pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		UploadResult
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if !resp.Status {
		return nil, fmt.Errorf("upload rejected: %s", resp.Message)
	}
	return &resp.UploadResult, nil
}

// writeUploadForm writes the key field and the file part to the multipart
// writer, copying file data straight from the reader.
func writeUploadForm(w *multipart.Writer, key, filename, contentType string, data io.Reader) error {
	if err := w.WriteField("key", key); err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename),
	}
	header["Content-Type"] = []string{contentType}
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return fmt.Errorf("failed to read file data: %w", err)
	}
	return nil
}

// List returns all of the session user's files, keyed by filename.
// An account with no files returns an empty (non-nil) map.
func (c *Client) List(ctx context.Context, key string) (map[string]FileEntry, error) {
	var resp struct {
		Status  *bool                `json:"status"`
		Message string               `json:"message"`
		Files   map[string]FileEntry `json:"file"`
	}
	err := c.postForm(ctx, "/get/files/", url.Values{"key": {key}}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Files != nil {
		return resp.Files, nil
	}
	// The server reports an empty registry as status:false "no files".
	if resp.Status != nil && !*resp.Status && strings.Contains(resp.Message, "no files") {
		return map[string]FileEntry{}, nil
	}
	return nil, fmt.Errorf("list rejected: %s", resp.Message)
}

// Get fetches one file's metadata by id.
func (c *Client) Get(ctx context.Context, key, fileID string) (map[string]FileEntry, error) {
	q := url.Values{"id": {fileID}, "token": {key}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get/file/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Status  *bool                `json:"status"`
		Message string               `json:"message"`
		Files   map[string]FileEntry `json:"file"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Files == nil {
		return nil, fmt.Errorf("get rejected: %s", resp.Message)
	}
	return resp.Files, nil
}

// Health reports whether the server answers its liveness route.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	var resp struct {
		Status bool `json:"status"`
	}
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if !resp.Status {
		return fmt.Errorf("server reports unhealthy")
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
