/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package rewrite

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	applog "posterforge/internal/log"
)

// exampleShape is shown to the user whenever the generator output does
// not carry the structure we can match against.
const exampleShape = `{"structure": {"CODE_标1": "新的标题文案", "CODE_文1": "新的正文文案"}}`

// tokenPrefix marks keys that address analyzed elements.
const tokenPrefix = "CODE_"

// Target receives replacement text per element. Satisfied by
// engine.MemorySurface.
type Target interface {
	SetText(id, content string) error
}

// Result summarizes one apply round. Unmatched tokens are reported,
// not fatal; only a round with zero matches fails outright.
type Result struct {
	Matched   []string
	Unmatched []string
}

// ParseError is a user-facing diagnostic for generator output we could
// not use, localized to a line and column when the input was not even
// valid JSON.
type ParseError struct {
	Line, Column int
	Message      string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// ParseGenerated extracts the token-to-content map from free-form
// generator JSON. Two shapes are accepted: a "structure" sub-object
// whose keys are tokens, or token keys directly at the top level next
// to other descriptive keys.
func ParseGenerated(data []byte) (map[string]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		var syn *json.SyntaxError
		if errors.As(err, &syn) {
			line, col := offsetToLineCol(data, syn.Offset)
			return nil, &ParseError{Line: line, Column: col,
				Message: fmt.Sprintf("invalid JSON (%v); expected something like %s", syn, exampleShape)}
		}
		return nil, &ParseError{Message: fmt.Sprintf("invalid JSON (%v); expected something like %s", err, exampleShape)}
	}
	source := top
	if raw, ok := top["structure"]; ok {
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("\"structure\" must be an object; expected something like %s", exampleShape)}
		}
		source = nested
	}
	out := make(map[string]string)
	for k, raw := range source {
		if !strings.HasPrefix(k, tokenPrefix) {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			// numbers and such still make usable text
			s = string(bytes.Trim(raw, `"`))
		}
		out[k] = s
	}
	if len(out) == 0 {
		return nil, &ParseError{Message: fmt.Sprintf("valid JSON but no %s* keys found; expected something like %s", tokenPrefix, exampleShape)}
	}
	return out, nil
}

// Apply replaces the content of every element whose token appears in
// the generated map, truncating to the element's estimated capacity.
// Tokens without a matching element are collected rather than aborting
// the round.
func Apply(t Target, a *Analysis, generated map[string]string) (Result, error) {
	l := applog.WithComponent("rewrite")
	var res Result
	tokens := make([]string, 0, len(generated))
	for tok := range generated {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	for _, tok := range tokens {
		stat := a.Lookup(tok)
		if stat == nil {
			res.Unmatched = append(res.Unmatched, tok)
			continue
		}
		text := Truncate(generated[tok], stat.Capacity)
		if err := t.SetText(stat.ObjectID, text); err != nil {
			l.Warn("element vanished since analysis", "token", tok, "object", stat.ObjectID)
			res.Unmatched = append(res.Unmatched, tok)
			continue
		}
		res.Matched = append(res.Matched, tok)
	}
	if len(res.Matched) == 0 {
		return res, fmt.Errorf("no generated key matched any analyzed element; re-run the analysis and make sure the generator echoes its %s* keys unchanged", tokenPrefix)
	}
	l.Info("rewrite applied", "matched", len(res.Matched), "unmatched", len(res.Unmatched))
	return res, nil
}

// sentence-ending punctuation, both scripts
var sentenceEnders = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true, '…': true,
	'.': true, '!': true, '?': true, ';': true,
}

// Truncate cuts text to at most max runes, preferring to end at the
// nearest sentence-ending punctuation inside the window. Without one
// the cut is hard and an ellipsis is appended.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	for i := max - 1; i > 0; i-- {
		if sentenceEnders[runes[i]] {
			return string(runes[:i+1])
		}
	}
	return string(runes[:max]) + "..."
}

func offsetToLineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
