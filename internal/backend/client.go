/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound marks a 404 from the server so callers can tell a missing
// work apart from transport failures.
var ErrNotFound = errors.New("not found")

// Client is the editor's HTTP client for the sync backend.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, dest any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, body, contentType, dest)
}

// Token fetches a bearer token for the subject and stores it on the client.
func (c *Client) Authenticate(ctx context.Context, subject string) error {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/token",
		map[string]any{"subject": subject}, &resp)
	if err != nil {
		return err
	}
	c.Token = resp.Token
	return nil
}

// ListWorks returns the stored works, newest first.
func (c *Client) ListWorks(ctx context.Context) ([]Work, error) {
	var list []Work
	if err := c.doJSON(ctx, http.MethodGet, "/api/works", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetWork fetches one work with its content. Some producers store the
// content doubly JSON-encoded; NormalizeContent undoes that on the way in.
func (c *Client) GetWork(ctx context.Context, id int64) (*Work, error) {
	var wk Work
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/works/%d", id), nil, &wk); err != nil {
		return nil, err
	}
	wk.Content = NormalizeContent(wk.Content)
	return &wk, nil
}

// CreateWork stores a new work and returns it with server-assigned IDs.
func (c *Client) CreateWork(ctx context.Context, title string, content json.RawMessage) (*Work, error) {
	var wk Work
	err := c.doJSON(ctx, http.MethodPost, "/api/works",
		map[string]any{"title": title, "content": content}, &wk)
	if err != nil {
		return nil, err
	}
	return &wk, nil
}

// UpdateWork replaces title and content of an existing work.
func (c *Client) UpdateWork(ctx context.Context, id int64, title string, content json.RawMessage) (*Work, error) {
	var wk Work
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/works/%d", id),
		map[string]any{"title": title, "content": content}, &wk)
	if err != nil {
		return nil, err
	}
	return &wk, nil
}

// DeleteWork removes a work.
func (c *Client) DeleteWork(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/works/%d", id), nil, nil)
}

// ListTemplates returns the template catalog, optionally by category.
func (c *Client) ListTemplates(ctx context.Context, category string) ([]Template, error) {
	path := "/api/templates"
	if category != "" {
		path += "?category=" + category
	}
	var list []Template
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetTemplate fetches one template with its content.
func (c *Client) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	var t Template
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/templates/%d", id), nil, &t); err != nil {
		return nil, err
	}
	t.Content = NormalizeContent(t.Content)
	return &t, nil
}

// UploadResult describes a stored asset.
type UploadResult struct {
	ID   int64  `json:"id"`
	Path string `json:"path"`
	Mime string `json:"mime"`
	Size int64  `json:"size"`
}

// Upload sends an image as multipart form data.
func (c *Client) Upload(ctx context.Context, filename, mimeType string, data []byte) (*UploadResult, error) {
	if int64(len(data)) > MaxUploadSize {
		return nil, fmt.Errorf("upload exceeds %d bytes", int64(MaxUploadSize))
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)),
	}
	hdr["Content-Type"] = []string{mimeType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/upload", &buf, mw.FormDataContentType(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// NormalizeContent unwraps content that arrives as a JSON string holding
// JSON, one level deep.
func NormalizeContent(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var inner string
	if err := json.Unmarshal(trimmed, &inner); err != nil {
		return raw
	}
	if json.Valid([]byte(inner)) {
		return json.RawMessage(inner)
	}
	return raw
}
