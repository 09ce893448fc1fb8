/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dsl

import (
	"strings"

	"posterforge/internal/scene"
)

// Parse detects the concrete syntax and parses plus validates the input.
// The result is safe to apply; on any error nothing may be applied.
func Parse(input string) (*Document, error) {
	trimmed := strings.TrimSpace(input)
	var (
		d   *Document
		err error
	)
	if strings.HasPrefix(trimmed, "{") {
		d, err = ParseJSON([]byte(trimmed))
	} else {
		d, err = ParseLines(input)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate applies the shared validation pass both syntaxes funnel into.
// Violations abort the whole operation; there is no partial validity.
func Validate(d *Document) error {
	if d == nil || len(d.Elements) == 0 {
		return errf(0, "the description must contain at least one element")
	}
	if d.Canvas != nil {
		if d.Canvas.Width <= 0 || d.Canvas.Height <= 0 {
			return errf(0, "canvas width and height must be positive numbers")
		}
	}
	if d.Background != nil {
		if _, err := scene.ParseColor(d.Background.Color); err != nil {
			return errf(0, "background: %v", err)
		}
	}
	for i := range d.Elements {
		el := &d.Elements[i]
		at := el.Line
		if el.Type == "" {
			return errf(at, "element %d is missing a type", i+1)
		}
		if _, ok := typeNames[el.Type]; !ok {
			return errf(at, "element %d: unknown type %q", i+1, el.Type)
		}
		if el.X == nil || el.Y == nil {
			return errf(at, "element %d (%s) requires numeric x and y", i+1, el.Type)
		}
		if (el.Type == "text" || el.Type == "emoji") && strings.TrimSpace(el.Content) == "" {
			return errf(at, "element %d (%s) requires non-empty content", i+1, el.Type)
		}
		for _, c := range []string{el.Color, el.Fill, el.Stroke} {
			if c == "" {
				continue
			}
			if _, err := scene.ParseColor(c); err != nil {
				return errf(at, "element %d (%s): %v", i+1, el.Type, err)
			}
		}
		if el.Opacity != nil && (*el.Opacity < 0 || *el.Opacity > 1) {
			return errf(at, "element %d (%s): opacity must be between 0 and 1", i+1, el.Type)
		}
	}
	return nil
}
