package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken("s3cret", tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("subject %q", sub)
	}
}

func TestTokenRejectsTamperAndExpiry(t *testing.T) {
	tok, _ := signToken("s3cret", "alice", time.Now().Add(time.Hour))
	if _, err := verifyToken("other", tok); err == nil {
		t.Fatal("wrong secret must fail")
	}
	if _, err := verifyToken("s3cret", tok+"x"); err == nil {
		t.Fatal("tampered signature must fail")
	}
	old, _ := signToken("s3cret", "alice", time.Now().Add(-time.Minute))
	if _, err := verifyToken("s3cret", old); err == nil {
		t.Fatal("expired token must fail")
	}
}

func TestNormalizeContent(t *testing.T) {
	plain := json.RawMessage(`{"a":1}`)
	if got := NormalizeContent(plain); string(got) != `{"a":1}` {
		t.Fatalf("plain content mutated: %s", got)
	}
	wrapped := json.RawMessage(`"{\"a\":1}"`)
	if got := NormalizeContent(wrapped); string(got) != `{"a":1}` {
		t.Fatalf("wrapped content not unwrapped: %s", got)
	}
	text := json.RawMessage(`"just a string"`)
	if got := NormalizeContent(text); string(got) != `"just a string"` {
		t.Fatalf("non-JSON string mangled: %s", got)
	}
}

func TestTrailingID(t *testing.T) {
	if id, ok := trailingID("/api/works/42", "/api/works/"); !ok || id != 42 {
		t.Fatalf("got %d %v", id, ok)
	}
	for _, p := range []string{"/api/works/", "/api/works/abc", "/api/works/1/extra"} {
		if _, ok := trailingID(p, "/api/works/"); ok {
			t.Fatalf("%s should not resolve", p)
		}
	}
}

func TestClientNotFoundAndAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if strings.HasSuffix(r.URL.Path, "/999") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"stable_id":"s","title":"t","content":"{\"version\":\"5.3.0\"}","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	_, err := c.GetWork(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	wk, err := c.GetWork(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetWork: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("auth header %q", gotAuth)
	}
	// double-encoded content must arrive unwrapped
	if string(wk.Content) != `{"version":"5.3.0"}` {
		t.Fatalf("content not normalized: %s", wk.Content)
	}
}

func TestClientUploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		if hdr.Filename != "logo.png" || hdr.Header.Get("Content-Type") != "image/png" {
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		writeJSON(w, http.StatusCreated, UploadResult{ID: 7, Path: "/uploads/x.png", Mime: "image/png", Size: hdr.Size})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	res, err := c.Upload(context.Background(), "/tmp/logo.png", "image/png", []byte("fake-png"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.ID != 7 || res.Mime != "image/png" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestClientUploadSizeGuard(t *testing.T) {
	c := NewClient("http://unused", "")
	_, err := c.Upload(context.Background(), "big.png", "image/png", make([]byte, MaxUploadSize+1))
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size guard, got %v", err)
	}
}
