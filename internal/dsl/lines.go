/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dsl

import (
	"bufio"
	"strconv"
	"strings"
)

// ParseLines parses the line-oriented indented key-value syntax:
//
//	画布:            (or canvas:)
//	  宽度: 600px
//	  高度: 400
//	背景:            (or background:)
//	  颜色: #ffffff
//	元素:            (or elements:)
//	  - type: text
//	    内容: 你好
//	    x: 10
//	    y: 20
//
// Both full-width（Chinese）and ASCII colons are accepted. Blank lines and
// lines starting with # or // are skipped. Errors carry the 1-based source
// line number and abort the parse; nothing is applied on failure.
func ParseLines(input string) (*Document, error) {
	d := &Document{}
	section := ""
	var current *Element

	flush := func() {
		if current != nil {
			d.Elements = append(d.Elements, *current)
			current = nil
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(normalizeColons(raw))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Section header: bare "name:" with nothing after the colon.
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, "-") {
			name := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(line, ":")))
			canonical, ok := sectionNames[name]
			if !ok {
				return nil, errf(lineNo, "unknown section %q (expected 画布/canvas, 背景/background or 元素/elements)", name)
			}
			flush()
			section = canonical
			continue
		}

		// Element start: "- type: <value>".
		if strings.HasPrefix(line, "-") {
			if section != "elements" {
				return nil, errf(lineNo, "element entry outside the 元素/elements section")
			}
			rest := strings.TrimSpace(strings.TrimPrefix(line, "-"))
			key, value, ok := splitKeyValue(rest)
			if !ok || keyNames[strings.ToLower(key)] != "type" {
				return nil, errf(lineNo, "an element must start with \"- type: <value>\"")
			}
			canonical, ok := typeNames[strings.ToLower(strings.TrimSpace(value))]
			if !ok {
				return nil, errf(lineNo, "unknown element type %q", value)
			}
			flush()
			current = &Element{Type: canonical, Line: lineNo}
			continue
		}

		// Plain "key: value".
		key, value, ok := splitKeyValue(line)
		if !ok {
			return nil, errf(lineNo, "expected \"key: value\", got %q", line)
		}
		switch section {
		case "canvas":
			canonical, ok := canvasKeys[strings.ToLower(key)]
			if !ok {
				return nil, errf(lineNo, "unknown canvas key %q", key)
			}
			n, err := parseNumber(value)
			if err != nil {
				return nil, errf(lineNo, "canvas %s: %q is not a number", canonical, value)
			}
			if d.Canvas == nil {
				d.Canvas = &Canvas{}
			}
			if canonical == "width" {
				d.Canvas.Width = n
			} else {
				d.Canvas.Height = n
			}
		case "background":
			if _, ok := backgroundKeys[strings.ToLower(key)]; !ok {
				return nil, errf(lineNo, "unknown background key %q", key)
			}
			d.Background = &Background{Color: strings.TrimSpace(value)}
		case "elements":
			if current == nil {
				return nil, errf(lineNo, "attribute before any \"- type:\" entry")
			}
			if err := setElementAttr(current, key, value, lineNo); err != nil {
				return nil, err
			}
		default:
			return nil, errf(lineNo, "content before any section header")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errf(lineNo, "read input: %v", err)
	}
	flush()
	return d, nil
}

// normalizeColons converts full-width colons so one splitter serves both
// scripts.
func normalizeColons(s string) string {
	return strings.ReplaceAll(s, "：", ":")
}

func splitKeyValue(s string) (key, value string, ok bool) {
	i := strings.Index(s, ":")
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}

// parseNumber converts a numeric value, tolerating a trailing px unit.
func parseNumber(v string) (float64, error) {
	t := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, &strconv.NumError{Func: "ParseFloat", Num: v, Err: strconv.ErrSyntax}
	}
	return n, nil
}

func setElementAttr(el *Element, key, value string, lineNo int) error {
	canonical, ok := keyNames[strings.ToLower(key)]
	if !ok {
		// Unknown element keys are tolerated (templates carry extras);
		// canvas/background sections stay strict.
		return nil
	}
	num := func() (*float64, error) {
		n, err := parseNumber(value)
		if err != nil {
			return nil, errf(lineNo, "%s: %q is not a number", canonical, value)
		}
		return &n, nil
	}
	var err error
	switch canonical {
	case "type":
		t, ok := typeNames[strings.ToLower(strings.TrimSpace(value))]
		if !ok {
			return errf(lineNo, "unknown element type %q", value)
		}
		el.Type = t
	case "x":
		el.X, err = num()
	case "y":
		el.Y, err = num()
	case "x2":
		el.X2, err = num()
	case "y2":
		el.Y2, err = num()
	case "width":
		el.Width, err = num()
	case "height":
		el.Height, err = num()
	case "angle":
		el.Angle, err = num()
	case "opacity":
		el.Opacity, err = num()
	case "radius":
		el.Radius, err = num()
	case "fontSize":
		el.FontSize, err = num()
	case "lineHeight":
		el.LineHeight, err = num()
	case "strokeWidth":
		el.StrokeWidth, err = num()
	case "content":
		el.Content = value
	case "fontFamily":
		el.FontFamily = value
	case "fontWeight":
		el.FontWeight = strings.ToLower(value)
	case "align":
		el.Align = strings.ToLower(value)
	case "color":
		el.Color = value
	case "fill":
		el.Fill = value
	case "stroke":
		el.Stroke = value
	case "src":
		el.Src = value
	}
	return err
}
