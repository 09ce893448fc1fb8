/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

// This file defines the data model for one poster page: the canvas itself
// (size, background) plus an ordered list of drawable objects. Objects are a
// tagged variant; type-specific attributes live in optional sub-structs rather
// than a loose attribute bag so extras stay explicit and serializable.

import (
	"encoding/json"

	"github.com/google/uuid"
)

// SnapshotVersion is embedded in every serialized scene so consumers can
// detect incompatible snapshots.
const SnapshotVersion = "5.3.0"

// Default canvas dimensions for a newly created page.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// DefaultBackground is the background color of a newly created page.
const DefaultBackground = "#ffffff"

// Type discriminates drawable object variants.
type Type string

const (
	TypeText     Type = "text"
	TypeImage    Type = "image"
	TypeRect     Type = "rect"
	TypeCircle   Type = "circle"
	TypeLine     Type = "line"
	TypeTriangle Type = "triangle"
)

// KnownTypes lists every valid object type.
var KnownTypes = []Type{TypeText, TypeImage, TypeRect, TypeCircle, TypeLine, TypeTriangle}

// IsKnownType reports whether t is one of the supported variants.
func IsKnownType(t Type) bool {
	for _, k := range KnownTypes {
		if t == k {
			return true
		}
	}
	return false
}

// TextAttrs carries the type-specific fields of a text object.
type TextAttrs struct {
	Content     string  `json:"content"`
	FontFamily  string  `json:"fontFamily,omitempty"`
	FontSize    float64 `json:"fontSize"`
	FontWeight  string  `json:"fontWeight,omitempty"` // "normal" or "bold"
	TextAlign   string  `json:"textAlign,omitempty"`  // left, center, right
	CharSpacing float64 `json:"charSpacing,omitempty"`
	LineHeight  float64 `json:"lineHeight,omitempty"`

	// Transform3D is an optional perspective payload some templates attach to
	// headline text. Explicit here instead of an untyped attribute bag.
	Transform3D *Transform3D `json:"transform3d,omitempty"`
}

// Transform3D holds per-axis rotation for pseudo-3D text effects.
type Transform3D struct {
	RotateX float64 `json:"rotateX"`
	RotateY float64 `json:"rotateY"`
	RotateZ float64 `json:"rotateZ"`
}

// ImageAttrs carries the source reference of an image object. Src may be a
// relative upload URL or an inline data: URL produced for portable export.
type ImageAttrs struct {
	Src string `json:"src"`
}

// CircleAttrs carries the radius of a circle object.
type CircleAttrs struct {
	Radius float64 `json:"radius"`
}

// LineAttrs carries the second endpoint of a line object; X/Y on the object
// itself are the first endpoint.
type LineAttrs struct {
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Object is one drawable primitive on a page.
type Object struct {
	ID      string  `json:"id"`
	Type    Type    `json:"type"`
	Name    string  `json:"name,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	Angle   float64 `json:"angle,omitempty"`
	Opacity float64 `json:"opacity"` // 0..1
	Fill    string  `json:"fill,omitempty"`
	Stroke  string  `json:"stroke,omitempty"`
	// StrokeWidth is in canvas units; zero means no stroke.
	StrokeWidth float64 `json:"strokeWidth,omitempty"`

	Text   *TextAttrs   `json:"text,omitempty"`
	Image  *ImageAttrs  `json:"image,omitempty"`
	Circle *CircleAttrs `json:"circle,omitempty"`
	Line   *LineAttrs   `json:"line,omitempty"`
}

// UnmarshalJSON defaults opacity to fully opaque when the key is absent.
// An explicit "opacity": 0 is preserved so transparent objects round-trip.
func (o *Object) UnmarshalJSON(data []byte) error {
	type object Object
	v := object{Opacity: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Object(v)
	return nil
}

// Scene is the full drawable state of one page.
type Scene struct {
	Version    string   `json:"version"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Background string   `json:"background"`
	Objects    []Object `json:"objects"`
}

// New returns an empty scene with default size and a white background.
func New() *Scene {
	return &Scene{
		Version:    SnapshotVersion,
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Background: DefaultBackground,
		Objects:    []Object{},
	}
}

// NewID returns a fresh object identifier.
func NewID() string { return uuid.NewString() }

// FindObject returns a pointer to the object with the given id, or nil.
func (s *Scene) FindObject(id string) *Object {
	for i := range s.Objects {
		if s.Objects[i].ID == id {
			return &s.Objects[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	c := *s
	c.Objects = make([]Object, len(s.Objects))
	for i, o := range s.Objects {
		co := o
		if o.Text != nil {
			t := *o.Text
			if o.Text.Transform3D != nil {
				tr := *o.Text.Transform3D
				t.Transform3D = &tr
			}
			co.Text = &t
		}
		if o.Image != nil {
			v := *o.Image
			co.Image = &v
		}
		if o.Circle != nil {
			v := *o.Circle
			co.Circle = &v
		}
		if o.Line != nil {
			v := *o.Line
			co.Line = &v
		}
		c.Objects[i] = co
	}
	return &c
}
