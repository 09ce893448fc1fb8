/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package rewrite analyzes the text elements of a page and matches
// externally generated replacement content back onto them via short
// code tokens. Analysis results live only for the duration of one
// rewrite round and are never persisted.
package rewrite

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"posterforge/internal/scene"
	"posterforge/internal/textlayout"
)

// Class is the substantive role assigned to a text element.
type Class string

const (
	ClassTitle    Class = "title"
	ClassSubtitle Class = "subtitle"
	ClassEmphasis Class = "emphasis"
	ClassBody     Class = "body"
)

// classInitials provides the single-character token infix per class.
var classInitials = map[Class]string{
	ClassTitle:    "标",
	ClassSubtitle: "副",
	ClassEmphasis: "重",
	ClassBody:     "文",
}

// Classification thresholds in CSS pixels.
const (
	titleFontSize    = 24
	subtitleFontSize = 18
)

// Content this short carries no substance worth rewriting.
const minSubstantiveRunes = 3

// ElementStat describes one analyzable text element.
type ElementStat struct {
	Token    string  `json:"token"`
	ObjectID string  `json:"objectId"`
	Class    Class   `json:"class"`
	Capacity int     `json:"capacity"`
	Content  string  `json:"content"`
	FontSize float64 `json:"fontSize"`
}

// Analysis is the result of one analyze pass over a page. The token
// map is the sole input the apply step consumes.
type Analysis struct {
	Elements []ElementStat `json:"elements"`
	ByClass  map[Class]int `json:"byClass"`

	byToken map[string]*ElementStat
}

// Lookup resolves a code token to its element, or nil.
func (a *Analysis) Lookup(token string) *ElementStat {
	if a == nil {
		return nil
	}
	return a.byToken[token]
}

// Summary renders a short human-readable account of the analysis.
func (a *Analysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d text elements", len(a.Elements))
	for _, c := range []Class{ClassTitle, ClassSubtitle, ClassEmphasis, ClassBody} {
		if n := a.ByClass[c]; n > 0 {
			fmt.Fprintf(&b, ", %d %s", n, c)
		}
	}
	return b.String()
}

// Analyze classifies every substantive text object of the scene and
// assigns each a code token unique within the page. Decorative glyphs
// and near-empty strings are excluded so generated content never lands
// on ornaments.
func Analyze(s *scene.Scene) *Analysis {
	a := &Analysis{
		ByClass: make(map[Class]int),
		byToken: make(map[string]*ElementStat),
	}
	counters := make(map[Class]int)
	for i := range s.Objects {
		o := &s.Objects[i]
		if o.Type != scene.TypeText || o.Text == nil {
			continue
		}
		if isDecorative(o) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(o.Text.Content)) < minSubstantiveRunes {
			continue
		}
		class := classify(o.Text)
		counters[class]++
		stat := ElementStat{
			Token:    fmt.Sprintf("CODE_%s%d", classInitials[class], counters[class]),
			ObjectID: o.ID,
			Class:    class,
			Capacity: estimateCapacity(o),
			Content:  o.Text.Content,
			FontSize: o.Text.FontSize,
		}
		a.Elements = append(a.Elements, stat)
		a.ByClass[class]++
	}
	for i := range a.Elements {
		a.byToken[a.Elements[i].Token] = &a.Elements[i]
	}
	return a
}

func classify(t *scene.TextAttrs) Class {
	switch {
	case t.FontSize >= titleFontSize:
		return ClassTitle
	case t.FontSize >= subtitleFontSize:
		return ClassSubtitle
	case isBold(t.FontWeight):
		return ClassEmphasis
	default:
		return ClassBody
	}
}

func isBold(w string) bool {
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "bold", "bolder", "600", "700", "800", "900":
		return true
	}
	return false
}

// isDecorative filters emoji and icon glyphs by object name. Single
// pictographs routinely arrive as one-object text layers named after
// their role.
func isDecorative(o *scene.Object) bool {
	name := strings.ToLower(o.Name)
	return strings.Contains(name, "emoji") || strings.Contains(name, "icon")
}

func estimateCapacity(o *scene.Object) int {
	return textlayout.EstimateCapacity(o.Width, o.Height, o.Text.FontSize, o.Text.LineHeight)
}
