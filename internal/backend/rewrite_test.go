package backend

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const rewriteSnapshot = `{"version":"5.3.0","width":800,"height":600,"background":"#ffffff","objects":[` +
	`{"id":"t1","type":"text","x":40,"y":40,"width":300,"height":80,"opacity":1,` +
	`"text":{"content":"夏日限定特惠全场五折","fontSize":32}}]}`

func newRewriteServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewServer(NewMux(nil, "s3cret", t.TempDir()))
	t.Cleanup(srv.Close)
	tok, err := signToken("s3cret", "tester", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return srv, tok
}

func postJSON(t *testing.T, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp
}

func TestRewriteAnalyzeRequiresAuth(t *testing.T) {
	srv, _ := newRewriteServer(t)
	resp := postJSON(t, srv.URL+"/api/rewrite/analyze", "", `{"page_id":"p1","content":`+rewriteSnapshot+`}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d", resp.StatusCode)
	}
}

func TestRewriteAnalyzeRejectsNonConformingSnapshot(t *testing.T) {
	srv, tok := newRewriteServer(t)
	// version missing: not a valid snapshot
	resp := postJSON(t, srv.URL+"/api/rewrite/analyze", tok, `{"page_id":"p1","content":{"objects":[]}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body.Error, "schema") {
		t.Fatalf("error %q should name the schema", body.Error)
	}
}

func TestRewriteAnalyzeApplyRoundTrip(t *testing.T) {
	srv, tok := newRewriteServer(t)

	resp := postJSON(t, srv.URL+"/api/rewrite/analyze", tok, `{"page_id":"p1","content":`+rewriteSnapshot+`}`)
	var analyzed struct {
		PageID   string `json:"page_id"`
		Summary  string `json:"summary"`
		Elements []struct {
			Token   string `json:"token"`
			Content string `json:"content"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&analyzed); err != nil {
		t.Fatalf("decode analyze: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze status %d", resp.StatusCode)
	}
	if len(analyzed.Elements) != 1 || analyzed.Elements[0].Token != "CODE_标1" {
		t.Fatalf("unexpected elements %+v", analyzed.Elements)
	}

	apply := `{"page_id":"p1","content":` + rewriteSnapshot +
		`,"generated":{"structure":{"CODE_标1":"秋季新品首发"}}}`
	resp = postJSON(t, srv.URL+"/api/rewrite/apply", tok, apply)
	var applied struct {
		Content   json.RawMessage `json:"content"`
		Matched   []string        `json:"matched"`
		Unmatched []string        `json:"unmatched"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&applied); err != nil {
		t.Fatalf("decode apply: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply status %d", resp.StatusCode)
	}
	if len(applied.Matched) != 1 || applied.Matched[0] != "CODE_标1" {
		t.Fatalf("matched %v", applied.Matched)
	}
	if len(applied.Unmatched) != 0 {
		t.Fatalf("unmatched %v", applied.Unmatched)
	}
	if !strings.Contains(string(applied.Content), "秋季新品首发") {
		t.Fatalf("content not rewritten: %s", applied.Content)
	}

	// the analysis is consumed; a second apply needs a fresh analyze
	resp = postJSON(t, srv.URL+"/api/rewrite/apply", tok, apply)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second apply status %d", resp.StatusCode)
	}
}

func TestRewriteApplyWithoutAnalysisConflicts(t *testing.T) {
	srv, tok := newRewriteServer(t)
	resp := postJSON(t, srv.URL+"/api/rewrite/apply", tok,
		`{"page_id":"never-analyzed","content":`+rewriteSnapshot+`,"generated":{"CODE_标1":"x"}}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
