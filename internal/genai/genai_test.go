package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var req TextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Text != "夏季大促" || req.Prompt != "more energetic" {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "夏季狂欢,全场五折!"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, APIKey: "sk-test", client: srv.Client()}
	out, err := c.GenerateText(context.Background(), TextRequest{Text: "夏季大促", Prompt: "more energetic"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "夏季狂欢,全场五折!" {
		t.Errorf("text = %q", out)
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://cdn.example.com/img/1.png"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, client: srv.Client()}
	url, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "a red lantern"})
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://cdn.example.com/img/1.png" {
		t.Errorf("url = %q", url)
	}
}

func TestGenerateImageAsyncPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"taskId": "job-42"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, client: srv.Client()}
	_, err := c.GenerateImage(context.Background(), ImageRequest{Prompt: "a red lantern"})
	if !errors.Is(err, ErrAsyncPending) {
		t.Fatalf("want ErrAsyncPending, got %v", err)
	}
	if !strings.Contains(err.Error(), "job-42") {
		t.Errorf("task id missing from error: %v", err)
	}
}

func TestServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, client: srv.Client()}
	_, err := c.GenerateText(context.Background(), TextRequest{Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("want rate limited error, got %v", err)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL, client: srv.Client()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GenerateText(ctx, TextRequest{Text: "hi"})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
