/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package rewrite

import (
	"strings"
	"testing"

	"posterforge/internal/engine"
	"posterforge/internal/scene"
)

func textObject(name, content string, size float64, weight string, w, h float64) scene.Object {
	o := scene.Object{
		ID:     scene.NewID(),
		Type:   scene.TypeText,
		Name:   name,
		Width:  w,
		Height: h,
		Text: &scene.TextAttrs{
			Content:    content,
			FontSize:   size,
			FontWeight: weight,
			LineHeight: 1.2,
		},
	}
	return o
}

func sampleScene() *scene.Scene {
	s := scene.New()
	s.Objects = append(s.Objects,
		textObject("headline", "春季新品发布会", 32, "bold", 320, 48),
		textObject("sub", "三月限定优惠", 20, "normal", 240, 30),
		textObject("body", "全场商品第二件半价，满三百再减五十。", 14, "normal", 280, 60),
		textObject("tag", "热卖", 14, "bold", 80, 20),
		textObject("emoji-star", "🎉🎉🎉", 40, "normal", 60, 60),
		textObject("deco", "!", 30, "normal", 30, 30),
		scene.Object{ID: scene.NewID(), Type: scene.TypeRect, Width: 100, Height: 100},
	)
	return s
}

func TestAnalyzeClassification(t *testing.T) {
	a := Analyze(sampleScene())
	if len(a.Elements) != 3 {
		t.Fatalf("expected 3 substantive elements, got %d: %+v", len(a.Elements), a.Elements)
	}
	want := map[string]Class{
		"CODE_标1": ClassTitle,
		"CODE_副1": ClassSubtitle,
		"CODE_文1": ClassBody,
	}
	for tok, class := range want {
		st := a.Lookup(tok)
		if st == nil {
			t.Fatalf("missing token %s", tok)
		}
		if st.Class != class {
			t.Fatalf("%s classified as %s, want %s", tok, st.Class, class)
		}
	}
	if a.ByClass[ClassTitle] != 1 || a.ByClass[ClassBody] != 1 {
		t.Fatalf("aggregate stats wrong: %+v", a.ByClass)
	}
}

func TestAnalyzeExcludesShortAndDecorative(t *testing.T) {
	a := Analyze(sampleScene())
	for _, st := range a.Elements {
		if strings.Contains(st.Content, "🎉") || st.Content == "热卖" || st.Content == "!" {
			t.Fatalf("non-substantive element analyzed: %+v", st)
		}
	}
}

func TestEmphasisClass(t *testing.T) {
	s := scene.New()
	s.Objects = append(s.Objects, textObject("callout", "立即抢购吧", 14, "bold", 160, 24))
	a := Analyze(s)
	if len(a.Elements) != 1 || a.Elements[0].Class != ClassEmphasis {
		t.Fatalf("expected one emphasis element, got %+v", a.Elements)
	}
	if a.Elements[0].Token != "CODE_重1" {
		t.Fatalf("unexpected token %s", a.Elements[0].Token)
	}
}

func TestCapacityEstimate(t *testing.T) {
	s := scene.New()
	// 320/32 = 10 chars per line, 48/(32*1.2) = 1.25 -> 1 line, *0.8 = 8
	s.Objects = append(s.Objects, textObject("h", "足够长的标题文案", 32, "normal", 320, 48))
	a := Analyze(s)
	if got := a.Elements[0].Capacity; got != 8 {
		t.Fatalf("capacity = %d, want 8", got)
	}
}

func TestParseGeneratedShapes(t *testing.T) {
	structure := `{"structure":{"CODE_标1":"新标题","CODE_文1":"新正文"},"note":"ignored"}`
	flat := `{"CODE_标1":"新标题","desc":"ignored","CODE_文1":"新正文"}`
	for _, input := range []string{structure, flat} {
		m, err := ParseGenerated([]byte(input))
		if err != nil {
			t.Fatalf("ParseGenerated(%s): %v", input, err)
		}
		if m["CODE_标1"] != "新标题" || m["CODE_文1"] != "新正文" || len(m) != 2 {
			t.Fatalf("unexpected map %v", m)
		}
	}
}

func TestParseGeneratedDiagnostics(t *testing.T) {
	_, err := ParseGenerated([]byte("{\n  \"CODE_标1\": \"x\",\n}"))
	if err == nil {
		t.Fatal("expected syntax error")
	}
	perr, ok := err.(*ParseError)
	if !ok || perr.Line != 3 {
		t.Fatalf("expected line 3 syntax diagnostic, got %v", err)
	}
	if !strings.Contains(perr.Message, "invalid JSON") {
		t.Fatalf("diagnostic should say invalid JSON: %v", perr)
	}

	_, err = ParseGenerated([]byte(`{"foo":"bar"}`))
	if err == nil || !strings.Contains(err.Error(), "no CODE_") {
		t.Fatalf("expected missing-structure diagnostic, got %v", err)
	}
	if !strings.Contains(err.Error(), `"structure"`) {
		t.Fatalf("diagnostic should show the expected shape: %v", err)
	}
}

func TestApplyMatchesAndTruncates(t *testing.T) {
	surface := engine.NewMemorySurface()
	s := sampleScene()
	snap, err := scene.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := surface.Load(snap); err != nil {
		t.Fatal(err)
	}
	a := Analyze(surface.Scene())

	long := strings.Repeat("字", 200)
	res, err := Apply(surface, a, map[string]string{
		"CODE_标1": "夏季特卖",
		"CODE_文1": long,
		"CODE_标9": "nobody home",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Matched) != 2 {
		t.Fatalf("matched %v", res.Matched)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "CODE_标9" {
		t.Fatalf("unmatched %v", res.Unmatched)
	}

	after := surface.Scene()
	title := after.FindObject(a.Lookup("CODE_标1").ObjectID)
	if title == nil || title.Text.Content != "夏季特卖" {
		t.Fatalf("title not rewritten: %+v", title)
	}
	body := after.FindObject(a.Lookup("CODE_文1").ObjectID)
	capacity := a.Lookup("CODE_文1").Capacity
	if got := []rune(body.Text.Content); len(got) != capacity+3 { // hard cut plus ellipsis
		t.Fatalf("body length %d, capacity %d", len(got), capacity)
	}
	// untouched element stays untouched
	sub := after.FindObject(a.Lookup("CODE_副1").ObjectID)
	if sub.Text.Content != "三月限定优惠" {
		t.Fatalf("subtitle mutated: %q", sub.Text.Content)
	}
}

func TestApplyZeroMatchesFails(t *testing.T) {
	surface := engine.NewMemorySurface()
	a := Analyze(scene.New())
	_, err := Apply(surface, a, map[string]string{"CODE_标1": "x"})
	if err == nil || !strings.Contains(err.Error(), "re-run the analysis") {
		t.Fatalf("expected hard failure with guidance, got %v", err)
	}
}

func TestTruncatePrefersPunctuation(t *testing.T) {
	text := "第一句话。第二句话还在继续说个不停"
	got := Truncate(text, 8)
	if got != "第一句话。" {
		t.Fatalf("Truncate = %q", got)
	}
	plain := "没有任何标点符号的一串文字会被硬切"
	got = Truncate(plain, 6)
	if got != "没有任何标点..." {
		t.Fatalf("Truncate = %q", got)
	}
	short := "短文本。"
	if Truncate(short, 10) != short {
		t.Fatalf("short text must pass through")
	}
}

func TestParseGeneratedPages(t *testing.T) {
	explicit := `{"pages":[{"CODE_标1":"一"},{"CODE_标1":"二","CODE_文1":"正文"}]}`
	pages, err := ParseGeneratedPages([]byte(explicit))
	if err != nil {
		t.Fatalf("pages array: %v", err)
	}
	if len(pages) != 2 || pages[1]["CODE_文1"] != "正文" {
		t.Fatalf("unexpected pages %v", pages)
	}

	markers := `{"canvas1":{},"CODE_标1":"一","canvas2":{},"note":"skip","CODE_标2":"二"}`
	pages, err = ParseGeneratedPages([]byte(markers))
	if err != nil {
		t.Fatalf("canvas markers: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0]["CODE_标1"] != "一" || pages[1]["CODE_标2"] != "二" {
		t.Fatalf("grouping wrong: %v", pages)
	}
}

func TestSessionsConsumeOnce(t *testing.T) {
	sess := NewSessions()
	a := Analyze(sampleScene())
	sess.Put("page-1", a)
	got, ok := sess.Consume("page-1")
	if !ok || got != a {
		t.Fatal("first consume must return the analysis")
	}
	if _, ok := sess.Consume("page-1"); ok {
		t.Fatal("second consume must miss")
	}
}
