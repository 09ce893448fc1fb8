/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"math"
	"testing"
)

func sampleScene() *Scene {
	s := New()
	s.Width = 600
	s.Height = 400
	s.Background = "#fafafa"
	s.Objects = []Object{
		{ID: NewID(), Type: TypeText, X: 10, Y: 20, Width: 200, Height: 40, Opacity: 1, Fill: "#333333",
			Text: &TextAttrs{Content: "Hello", FontSize: 24, FontWeight: "bold", LineHeight: 1.2}},
		{ID: NewID(), Type: TypeRect, X: 50, Y: 60, Width: 100, Height: 80, Opacity: 0.5, Fill: "#ff0000", Stroke: "#000000", StrokeWidth: 2},
		{ID: NewID(), Type: TypeCircle, X: 300, Y: 200, Opacity: 1, Fill: "#00ff00", Circle: &CircleAttrs{Radius: 45}},
		{ID: NewID(), Type: TypeLine, X: 0, Y: 0, Opacity: 1, Stroke: "#0000ff", StrokeWidth: 1, Line: &LineAttrs{X2: 100, Y2: 100}},
	}
	return s
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := sampleScene()
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(got.Objects) != len(s.Objects) {
		t.Fatalf("object count mismatch: got %d want %d", len(got.Objects), len(s.Objects))
	}
	for i := range s.Objects {
		a, b := s.Objects[i], got.Objects[i]
		if a.Type != b.Type || a.ID != b.ID {
			t.Fatalf("object %d identity mismatch: %v vs %v", i, a, b)
		}
		if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 || math.Abs(a.Opacity-b.Opacity) > 1e-9 {
			t.Fatalf("object %d numeric mismatch", i)
		}
	}
	if got.Width != 600 || got.Height != 400 || got.Background != "#fafafa" {
		t.Fatalf("canvas attrs mismatch: %+v", got)
	}
}

func TestDecodeOpacityDefaultsAndZeroSurvives(t *testing.T) {
	raw := `{"version":"5.3.0","width":100,"height":100,"objects":[
		{"id":"a","type":"rect","x":0,"y":0,"opacity":0},
		{"id":"b","type":"rect","x":0,"y":0}]}`
	got, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Objects[0].Opacity != 0 {
		t.Fatalf("explicit zero opacity was rewritten to %v", got.Objects[0].Opacity)
	}
	if got.Objects[1].Opacity != 1 {
		t.Fatalf("absent opacity should default to 1, got %v", got.Objects[1].Opacity)
	}

	// And a transparent object round-trips through Encode.
	data, err := Encode(got)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	again, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if again.Objects[0].Opacity != 0 {
		t.Fatalf("zero opacity lost in round trip: %v", again.Objects[0].Opacity)
	}
}

func TestDecodeDoubleEncoded(t *testing.T) {
	s := sampleScene()
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	wrapped, err := json.Marshal(string(data))
	if err != nil {
		t.Fatalf("wrap error: %v", err)
	}
	got, err := Decode(wrapped)
	if err != nil {
		t.Fatalf("Decode double-encoded error: %v", err)
	}
	if len(got.Objects) != len(s.Objects) {
		t.Fatalf("object count mismatch after unwrap: %d", len(got.Objects))
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed snapshot")
	}
	if _, err := Decode([]byte("   ")); err == nil {
		t.Fatalf("expected error for blank snapshot")
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleScene()
	c := s.Clone()
	c.Objects[0].Text.Content = "changed"
	c.Objects[2].Circle.Radius = 1
	if s.Objects[0].Text.Content != "Hello" {
		t.Fatalf("clone shares text attrs with original")
	}
	if s.Objects[2].Circle.Radius != 45 {
		t.Fatalf("clone shares circle attrs with original")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#FFAA00", "#ffaa00", true},
		{"white", "#ffffff", true},
		{"红色", "#ff0000", true},
		{"灰色", "#808080", true},
		{"#ggg", "", false},
		{"#1234", "", false},
		{"mauve-ish", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseColor(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseColor(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseColor(%q) expected error", c.in)
		}
	}
}

func TestValidateSnapshot(t *testing.T) {
	data, err := Encode(sampleScene())
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if err := ValidateSnapshot(data); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}
	bad := []byte(`{"version":"5.3.0","objects":[{"type":"blob","x":1,"y":2}]}`)
	if err := ValidateSnapshot(bad); err == nil {
		t.Fatalf("unknown object type accepted by schema")
	}
}
