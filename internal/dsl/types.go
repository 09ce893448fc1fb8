/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package dsl interprets a textual page description and materializes it as
// drawable objects. Two concrete syntaxes, one abstract model: a JSON form
// and a line-oriented indented key-value form both produce Document, which a
// single validation pass checks before anything touches a page.
package dsl

import "fmt"

// Document is the abstract representation both syntaxes parse into.
type Document struct {
	Canvas     *Canvas
	Background *Background
	Elements   []Element
}

// Canvas overrides the page dimensions.
type Canvas struct {
	Width  float64
	Height float64
}

// Background overrides the page background color.
type Background struct {
	Color string
}

// Element is one described drawable. Optional numeric attributes are
// pointers so "absent" and "zero" stay distinct until defaults apply.
type Element struct {
	Type string // canonical: text, image, rect, circle, line, triangle, emoji
	Line int    // 1-based source line; 0 for the JSON syntax

	X, Y          *float64
	Width, Height *float64
	Angle         *float64
	Opacity       *float64
	Radius        *float64
	X2, Y2        *float64

	Content     string
	FontFamily  string
	FontSize    *float64
	FontWeight  string
	Align       string
	LineHeight  *float64
	Color       string
	Fill        string
	Stroke      string
	StrokeWidth *float64
	Src         string
}

// Error is a parse or validation failure localized to a source line.
// Line 0 means the position is not line-addressable (JSON syntax).
type Error struct {
	Line    int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func errf(line int, format string, args ...any) *Error {
	return &Error{Line: line, Message: fmt.Sprintf(format, args...)}
}

// sectionNames maps accepted section headers (both scripts) to canonical
// section identifiers for the line-oriented syntax.
var sectionNames = map[string]string{
	"canvas": "canvas", "画布": "canvas",
	"background": "background", "背景": "background",
	"elements": "elements", "元素": "elements",
}

// typeNames maps accepted element type spellings to canonical types.
var typeNames = map[string]string{
	"text": "text", "文字": "text", "文本": "text",
	"image": "image", "图片": "image",
	"rect": "rect", "rectangle": "rect", "矩形": "rect",
	"circle": "circle", "圆形": "circle", "圆": "circle",
	"line": "line", "线条": "line", "直线": "line",
	"triangle": "triangle", "三角形": "triangle",
	"emoji": "emoji", "表情": "emoji",
}

// keyNames maps accepted element attribute keys to canonical keys.
var keyNames = map[string]string{
	"type": "type", "类型": "type",
	"x": "x", "y": "y",
	"x2": "x2", "y2": "y2",
	"width": "width", "宽度": "width", "宽": "width",
	"height": "height", "高度": "height", "高": "height",
	"angle": "angle", "rotation": "angle", "旋转": "angle", "角度": "angle",
	"opacity": "opacity", "透明度": "opacity",
	"radius": "radius", "半径": "radius",
	"content": "content", "text": "content", "内容": "content", "文字": "content", "文本": "content",
	"fontsize": "fontSize", "字号": "fontSize", "字体大小": "fontSize",
	"fontfamily": "fontFamily", "字体": "fontFamily",
	"fontweight": "fontWeight", "字重": "fontWeight", "粗细": "fontWeight",
	"align": "align", "textalign": "align", "对齐": "align",
	"lineheight": "lineHeight", "行高": "lineHeight",
	"color": "color", "颜色": "color",
	"fill": "fill", "填充": "fill",
	"stroke": "stroke", "描边": "stroke",
	"strokewidth": "strokeWidth", "描边宽度": "strokeWidth",
	"src": "src", "图片地址": "src", "链接": "src", "地址": "src",
}

// canvasKeys and backgroundKeys are the only keys those sections accept.
var canvasKeys = map[string]string{
	"width": "width", "宽度": "width", "宽": "width",
	"height": "height", "高度": "height", "高": "height",
}

var backgroundKeys = map[string]string{
	"color": "color", "颜色": "color",
}
