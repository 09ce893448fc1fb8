/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package genai is the editor's client for the external copy and image
// generation service. It is a plain request/response wrapper; retrying
// and result caching are deliberately left to the caller.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "PosterForge"
	keyringAPIKey  = "genai_api_key"
)

// ErrAsyncPending is returned when the image service accepted the job
// but only offers asynchronous polling, which this client does not do.
// The task ID travels in the error for callers that poll themselves.
var ErrAsyncPending = errors.New("generation pending: service requires polling")

// Client talks to the generation service.
type Client struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewClient creates a generation client. When apiKey is empty the OS
// keyring is consulted; a missing keyring entry leaves the client
// unauthenticated, which the service will reject per request.
func NewClient(baseURL, apiKey string) *Client {
	if apiKey == "" {
		if v, err := keyring.Get(keyringService, keyringAPIKey); err == nil {
			apiKey = v
		}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// StoreAPIKey saves the key in the OS keyring for later sessions.
func StoreAPIKey(key string) error {
	return keyring.Set(keyringService, keyringAPIKey, key)
}

// TextRequest asks the service to rewrite or continue poster copy.
type TextRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt,omitempty"`
	Model  string `json:"model,omitempty"`
}

// ImageRequest asks the service for a generated image.
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

// GenerateText sends poster copy for rewriting and returns the
// generated replacement text.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	var resp struct {
		Text string `json:"text"`
	}
	if err := c.post(ctx, "/v1/text", req, &resp); err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", fmt.Errorf("generation service returned empty text")
	}
	return resp.Text, nil
}

// GenerateImage requests an image and returns its URL. Services that
// queue the job respond with a task ID instead of a URL; that surfaces
// as ErrAsyncPending.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	var resp struct {
		URL    string `json:"url"`
		TaskID string `json:"taskId"`
	}
	if err := c.post(ctx, "/v1/image", req, &resp); err != nil {
		return "", err
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	if resp.TaskID != "" {
		return "", fmt.Errorf("%w (task %s)", ErrAsyncPending, resp.TaskID)
	}
	return "", fmt.Errorf("generation service returned neither url nor task id")
}

func (c *Client) post(ctx context.Context, path string, payload, dest any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("generation service: %s (%s)", apiErr.Error, resp.Status)
		}
		return fmt.Errorf("generation service: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
