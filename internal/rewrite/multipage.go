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
	"fmt"
	"regexp"
	"strings"
)

var canvasKeyRe = regexp.MustCompile(`^canvas(\d+)$`)

// ParseGeneratedPages splits generator output into per-page token
// maps. The preferred shape is an explicit "pages" array of token
// objects; generators that cannot emit it may instead interleave
// "canvas1", "canvas2", ... marker keys with token keys, in which case
// each token belongs to the nearest preceding marker. The marker form
// depends on source key order and is kept only for compatibility.
func ParseGeneratedPages(data []byte) ([]map[string]string, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		// reuse the single-page diagnostic for syntax errors
		if _, perr := ParseGenerated(data); perr != nil {
			return nil, perr
		}
		return nil, &ParseError{Message: "expected a JSON object; got something else"}
	}
	if raw, ok := probe["pages"]; ok {
		return parsePagesArray(raw)
	}
	return parseCanvasMarkers(data)
}

func parsePagesArray(raw json.RawMessage) ([]map[string]string, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ParseError{Message: `"pages" must be an array of objects, one per page`}
	}
	out := make([]map[string]string, 0, len(items))
	for _, item := range items {
		page := make(map[string]string)
		for k, rv := range item {
			if !strings.HasPrefix(k, tokenPrefix) {
				continue
			}
			var s string
			if err := json.Unmarshal(rv, &s); err != nil {
				s = string(bytes.Trim(rv, `"`))
			}
			page[k] = s
		}
		out = append(out, page)
	}
	if len(out) == 0 {
		return nil, &ParseError{Message: `"pages" is empty; emit one object per page`}
	}
	return out, nil
}

// parseCanvasMarkers walks the raw token stream so source key order
// survives; map-based decoding would destroy it.
func parseCanvasMarkers(data []byte) ([]map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, &ParseError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	var (
		pages   []map[string]string
		current map[string]string
	)
	ensure := func() map[string]string {
		if current == nil {
			current = make(map[string]string)
			pages = append(pages, current)
		}
		return current
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid JSON: %v", err)}
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &ParseError{Message: fmt.Sprintf("invalid JSON near key %q: %v", key, err)}
		}
		switch {
		case canvasKeyRe.MatchString(key):
			current = make(map[string]string)
			pages = append(pages, current)
		case strings.HasPrefix(key, tokenPrefix):
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				s = string(bytes.Trim(raw, `"`))
			}
			ensure()[key] = s
		}
	}
	if len(pages) == 0 {
		return nil, &ParseError{Message: fmt.Sprintf("no %s* keys and no \"pages\" array found; expected something like %s", tokenPrefix, exampleShape)}
	}
	return pages, nil
}
