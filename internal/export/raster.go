/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders scenes to raster images and bundles pages into
// PNG, JPEG and PDF deliverables.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"posterforge/internal/scene"
	"posterforge/internal/textlayout"
)

// RasterOptions controls scene rasterization.
type RasterOptions struct {
	Scale float64 // output pixels per scene unit; 0 means 1
	Fonts textlayout.Provider
}

// RenderScene rasterizes a scene snapshot into an RGBA image. Unknown
// or undrawable objects are skipped, not fatal; an exported poster with
// a missing remote image is better than no poster.
func RenderScene(s *scene.Scene, opt RasterOptions) *image.RGBA {
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(math.Round(s.Width * scale))
	h := int(math.Round(s.Height * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := parseRGBA(s.Background, color.RGBA{255, 255, 255, 255})
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for i := range s.Objects {
		drawObject(img, &s.Objects[i], scale, opt.Fonts)
	}
	return img
}

// EncodePNG renders the scene and encodes it as PNG bytes.
func EncodePNG(s *scene.Scene, opt RasterOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, RenderScene(s, opt)); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderThumbnail renders a scene scaled to fit maxEdge pixels and
// encodes it as PNG. Suited as the sync engine's thumbnail renderer.
func RenderThumbnail(snapshot []byte, maxEdge int) ([]byte, error) {
	s, err := scene.Decode(snapshot)
	if err != nil {
		return nil, err
	}
	if maxEdge <= 0 {
		maxEdge = 160
	}
	longest := s.Width
	if s.Height > longest {
		longest = s.Height
	}
	scale := 1.0
	if longest > 0 {
		scale = float64(maxEdge) / longest
	}
	return EncodePNG(s, RasterOptions{Scale: scale})
}

func drawObject(img *image.RGBA, o *scene.Object, scale float64, fonts textlayout.Provider) {
	if o.Opacity == 0 {
		return
	}
	px := func(v float64) int { return int(math.Round(v * scale)) }
	x, y := px(o.X), px(o.Y)
	w, h := px(o.Width), px(o.Height)
	switch o.Type {
	case scene.TypeRect:
		fillRect(img, x, y, x+w-1, y+h-1, parseRGBA(o.Fill, color.RGBA{204, 204, 204, 255}))
		if o.Stroke != "" {
			strokeRect(img, x, y, x+w-1, y+h-1, parseRGBA(o.Stroke, color.RGBA{0, 0, 0, 255}))
		}
	case scene.TypeCircle:
		r := w / 2
		if o.Circle != nil {
			r = px(o.Circle.Radius)
		}
		fillCircle(img, x+r, y+r, r, parseRGBA(o.Fill, color.RGBA{204, 204, 204, 255}))
	case scene.TypeLine:
		x2, y2 := x+w, y+h
		if o.Line != nil {
			x2, y2 = px(o.Line.X2), px(o.Line.Y2)
		}
		width := int(math.Round(o.StrokeWidth * scale))
		if width < 1 {
			width = 1
		}
		drawLine(img, x, y, x2, y2, width, parseRGBA(o.Stroke, color.RGBA{0, 0, 0, 255}))
	case scene.TypeTriangle:
		fillTriangle(img,
			image.Point{X: x + w/2, Y: y},
			image.Point{X: x, Y: y + h},
			image.Point{X: x + w, Y: y + h},
			parseRGBA(o.Fill, color.RGBA{204, 204, 204, 255}))
	case scene.TypeText:
		drawText(img, o, scale, fonts)
	case scene.TypeImage:
		drawImage(img, o, x, y, w, h)
	}
}

func drawText(img *image.RGBA, o *scene.Object, scale float64, fonts textlayout.Provider) {
	if o.Text == nil || o.Text.Content == "" {
		return
	}
	if fonts == nil {
		fonts = textlayout.BasicProvider{}
	}
	spec := textlayout.FontSpec{
		Family: o.Text.FontFamily,
		SizePt: float32(o.Text.FontSize * scale),
		Weight: weightOf(o.Text.FontWeight),
	}
	layout := textlayout.LayoutBlock(fonts, textlayout.Block{
		Text:       o.Text.Content,
		Font:       spec,
		MaxWidth:   float32(o.Width * scale),
		LineHeight: float32(o.Text.LineHeight),
		Align:      o.Text.TextAlign,
	})
	face, met := fonts.Resolve(spec)
	col := parseRGBA(o.Fill, color.RGBA{51, 51, 51, 255})
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	baseY := float32(o.Y*scale) + met.Ascent
	for _, line := range layout.Lines {
		offset := textlayout.LineOffset(line, float32(o.Width*scale), o.Text.TextAlign)
		d.Dot = fixedPoint(float32(o.X*scale)+offset, baseY)
		d.DrawString(line.Text)
		baseY += layout.LinePitch
	}
}

// drawImage decodes data: URLs inline. Remote sources are skipped here;
// fetching is the caller's concern and resolved sources arrive inlined.
func drawImage(img *image.RGBA, o *scene.Object, x, y, w, h int) {
	if o.Image == nil || !strings.HasPrefix(o.Image.Src, "data:") {
		return
	}
	idx := strings.Index(o.Image.Src, "base64,")
	if idx < 0 {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(o.Image.Src[idx+len("base64,"):])
	if err != nil {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return
	}
	dst := image.Rect(x, y, x+w, y+h)
	if w <= 0 || h <= 0 {
		dst = image.Rect(x, y, x+src.Bounds().Dx(), y+src.Bounds().Dy())
	}
	xdraw.ApproxBiLinear.Scale(img, dst, src, src.Bounds(), xdraw.Over, nil)
}

func fixedPoint(x, y float32) fixed.Point26_6 {
	return fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
}

func weightOf(w string) int {
	switch strings.ToLower(strings.TrimSpace(w)) {
	case "bold", "700":
		return 700
	case "", "normal", "400":
		return 400
	}
	return 400
}

func parseRGBA(v string, fallback color.RGBA) color.RGBA {
	if _, err := scene.ParseColor(v); err != nil {
		return fallback
	}
	return scene.ToRGBA(v, 1)
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img.SetRGBA(x, y, col)
		}
	}
}

func fillCircle(img *image.RGBA, cx, cy, r int, col color.RGBA) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(cx+dx, cy+dy, col)
			}
		}
	}
}

// drawLine is Bresenham with a square pen of the given width.
func drawLine(img *image.RGBA, x0, y0, x1, y1, width int, col color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		pen(img, x0, y0, width, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func pen(img *image.RGBA, x, y, width int, col color.RGBA) {
	half := width / 2
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			img.SetRGBA(x+dx, y+dy, col)
		}
	}
}

// fillTriangle rasterizes by scanning the bounding box with an
// edge-function inside test.
func fillTriangle(img *image.RGBA, a, b, c image.Point, col color.RGBA) {
	minX := min3(a.X, b.X, c.X)
	maxX := max3(a.X, b.X, c.X)
	minY := min3(a.Y, b.Y, c.Y)
	maxY := max3(a.Y, b.Y, c.Y)
	edge := func(p, q, r image.Point) int {
		return (q.X-p.X)*(r.Y-p.Y) - (q.Y-p.Y)*(r.X-p.X)
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := image.Point{X: x, Y: y}
			e0, e1, e2 := edge(a, b, p), edge(b, c, p), edge(c, a, p)
			if (e0 >= 0 && e1 >= 0 && e2 >= 0) || (e0 <= 0 && e1 <= 0 && e2 <= 0) {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func max3(a, b, c int) int {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}
