/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package dsl

import (
	"fmt"
	"log/slog"

	applog "posterforge/internal/log"
	"posterforge/internal/scene"
)

// Target is the subset of the surface the applier mutates. The engine's
// memory surface satisfies it.
type Target interface {
	SetCanvas(w, h float64)
	SetBackground(color string)
	AddObject(o scene.Object) string
}

// Result summarizes an application: validation is all-or-nothing but
// instantiation is per-element best-effort.
type Result struct {
	Applied int
	Skipped int
}

// Apply materializes a validated document onto the target. Canvas size and
// background apply first; elements are instantiated independently, and a
// failed element is logged and skipped without aborting the rest.
func Apply(t Target, d *Document) Result {
	l := applog.WithComponent("dsl")
	if d.Canvas != nil {
		t.SetCanvas(d.Canvas.Width, d.Canvas.Height)
	}
	if d.Background != nil {
		if hex, err := scene.ParseColor(d.Background.Color); err == nil {
			t.SetBackground(hex)
		}
	}
	var res Result
	for i := range d.Elements {
		obj, err := buildObject(&d.Elements[i])
		if err != nil {
			l.Warn("element skipped", slog.Int("index", i+1), slog.Any("err", err))
			res.Skipped++
			continue
		}
		t.AddObject(obj)
		res.Applied++
	}
	return res
}

// Per-type defaults for omitted attributes.
const (
	defaultTextSize   = 20.0
	defaultEmojiSize  = 40.0
	defaultTextColor  = "#333333"
	defaultShapeFill  = "#cccccc"
	defaultLineStroke = "#000000"
	defaultLineWidth  = 2.0
	defaultShapeSize  = 100.0
	defaultRadius     = 50.0
)

func buildObject(el *Element) (scene.Object, error) {
	o := scene.Object{
		ID:      scene.NewID(),
		X:       deref(el.X, 0),
		Y:       deref(el.Y, 0),
		Angle:   deref(el.Angle, 0),
		Opacity: deref(el.Opacity, 1),
		Stroke:  normColor(el.Stroke),
	}
	if el.StrokeWidth != nil {
		o.StrokeWidth = *el.StrokeWidth
	}

	switch el.Type {
	case "text", "emoji":
		o.Type = scene.TypeText
		size := defaultTextSize
		if el.Type == "emoji" {
			size = defaultEmojiSize
			o.Name = "emoji"
		}
		if el.FontSize != nil {
			size = *el.FontSize
		}
		o.Fill = firstColor(el.Color, el.Fill, defaultTextColor)
		o.Width = deref(el.Width, 0)
		o.Height = deref(el.Height, 0)
		weight := el.FontWeight
		if weight == "粗体" || weight == "700" {
			weight = "bold"
		}
		o.Text = &scene.TextAttrs{
			Content:    el.Content,
			FontFamily: el.FontFamily,
			FontSize:   size,
			FontWeight: weight,
			TextAlign:  el.Align,
			LineHeight: deref(el.LineHeight, 1.2),
		}
	case "image":
		if el.Src == "" {
			return o, fmt.Errorf("image element has no src")
		}
		o.Type = scene.TypeImage
		o.Width = deref(el.Width, defaultShapeSize)
		o.Height = deref(el.Height, defaultShapeSize)
		o.Image = &scene.ImageAttrs{Src: el.Src}
	case "rect":
		o.Type = scene.TypeRect
		o.Width = deref(el.Width, defaultShapeSize)
		o.Height = deref(el.Height, defaultShapeSize)
		o.Fill = firstColor(el.Fill, el.Color, defaultShapeFill)
	case "circle":
		o.Type = scene.TypeCircle
		o.Fill = firstColor(el.Fill, el.Color, defaultShapeFill)
		o.Circle = &scene.CircleAttrs{Radius: deref(el.Radius, defaultRadius)}
	case "line":
		o.Type = scene.TypeLine
		if o.Stroke == "" {
			o.Stroke = firstColor(el.Color, "", defaultLineStroke)
		}
		if o.StrokeWidth == 0 {
			o.StrokeWidth = defaultLineWidth
		}
		o.Line = &scene.LineAttrs{
			X2: deref(el.X2, o.X+defaultShapeSize),
			Y2: deref(el.Y2, o.Y),
		}
	case "triangle":
		o.Type = scene.TypeTriangle
		o.Width = deref(el.Width, defaultShapeSize)
		o.Height = deref(el.Height, defaultShapeSize)
		o.Fill = firstColor(el.Fill, el.Color, defaultShapeFill)
	default:
		return o, fmt.Errorf("unhandled element type %q", el.Type)
	}
	return o, nil
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func normColor(v string) string {
	if v == "" {
		return ""
	}
	hex, err := scene.ParseColor(v)
	if err != nil {
		return ""
	}
	return hex
}

// firstColor picks the first parseable color, falling back to def.
func firstColor(a, b, def string) string {
	if c := normColor(a); c != "" {
		return c
	}
	if c := normColor(b); c != "" {
		return c
	}
	return def
}
