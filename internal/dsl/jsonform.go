/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dsl

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON parses the JSON syntax. Keys accept the same Chinese/English
// aliases as the line-oriented form, so
// {"canvas":{"宽度":600},"elements":[{"type":"text","内容":"Hi",...}]}
// is valid input.
func ParseJSON(input []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(input, &raw); err != nil {
		return nil, errf(0, "invalid JSON: %v", err)
	}
	d := &Document{}
	for k, v := range raw {
		switch canonicalSection(k) {
		case "canvas":
			c, err := parseCanvasJSON(v)
			if err != nil {
				return nil, err
			}
			d.Canvas = c
		case "background":
			b, err := parseBackgroundJSON(v)
			if err != nil {
				return nil, err
			}
			d.Background = b
		case "elements":
			els, err := parseElementsJSON(v)
			if err != nil {
				return nil, err
			}
			d.Elements = els
		}
	}
	return d, nil
}

func canonicalSection(k string) string {
	if s, ok := sectionNames[strings.ToLower(strings.TrimSpace(k))]; ok {
		return s
	}
	return ""
}

func parseCanvasJSON(v json.RawMessage) (*Canvas, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, errf(0, "canvas must be an object: %v", err)
	}
	c := &Canvas{}
	for k, rv := range m {
		canonical, ok := canvasKeys[strings.ToLower(strings.TrimSpace(k))]
		if !ok {
			return nil, errf(0, "unknown canvas key %q", k)
		}
		n, err := jsonNumber(rv)
		if err != nil {
			return nil, errf(0, "canvas %s: %v", canonical, err)
		}
		if canonical == "width" {
			c.Width = n
		} else {
			c.Height = n
		}
	}
	return c, nil
}

func parseBackgroundJSON(v json.RawMessage) (*Background, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, errf(0, "background must be an object: %v", err)
	}
	b := &Background{}
	for k, rv := range m {
		if _, ok := backgroundKeys[strings.ToLower(strings.TrimSpace(k))]; !ok {
			return nil, errf(0, "unknown background key %q", k)
		}
		var s string
		if err := json.Unmarshal(rv, &s); err != nil {
			return nil, errf(0, "background color must be a string")
		}
		b.Color = s
	}
	return b, nil
}

func parseElementsJSON(v json.RawMessage) ([]Element, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(v, &items); err != nil {
		return nil, errf(0, "elements must be an array of objects: %v", err)
	}
	out := make([]Element, 0, len(items))
	for i, item := range items {
		el := Element{}
		for k, rv := range item {
			value, err := jsonScalarString(rv)
			if err != nil {
				return nil, errf(0, "element %d key %q: %v", i+1, k, err)
			}
			if err := setElementAttr(&el, k, value, 0); err != nil {
				if perr, ok := err.(*Error); ok {
					return nil, errf(0, "element %d: %s", i+1, perr.Message)
				}
				return nil, err
			}
		}
		out = append(out, el)
	}
	return out, nil
}

func jsonNumber(v json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n, nil
	}
	// tolerate "600px" and quoted numbers
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return parseNumber(s)
	}
	return 0, fmt.Errorf("%s is not a number", string(v))
}

// jsonScalarString renders a scalar JSON value as the string the shared
// attribute setter consumes. Nested values are rejected.
func jsonScalarString(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("expected a scalar, got %s", strings.TrimSpace(string(v)))
}
