/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Wrapping and measurement for poster text blocks behind deterministic
// interfaces. Poster copy is mostly CJK, where every rune is a break
// opportunity; latin words stay unbroken.

import (
	"math"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float32
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// Block is one poster text layer to lay out.
type Block struct {
	Text       string
	Font       FontSpec
	MaxWidth   float32
	LineHeight float32 // multiplier; 0 means 1.2
	Align      string  // left, center, right
}

// Line is a single laid out line.
type Line struct {
	Text  string
	Width float32
}

// Layout is the wrapped result of one block.
type Layout struct {
	Lines     []Line
	Width     float32
	Height    float32
	LinePitch float32
	Metrics   Metrics
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
		LineGap: float32(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// LayoutBlock wraps the block's text into lines no wider than MaxWidth.
// CJK runes break anywhere; runs of latin letters and digits move as one
// unit. Explicit newlines are honored. MaxWidth <= 0 disables wrapping.
func LayoutBlock(p Provider, b Block) Layout {
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(b.Font)
	drawer := &font.Drawer{Face: face}
	lineHeight := b.LineHeight
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	size := b.Font.SizePt
	if size <= 0 {
		size = met.Ascent + met.Descent
	}
	out := Layout{Metrics: met, LinePitch: size * lineHeight}

	var cur []rune
	var curW float32
	flush := func() {
		out.Lines = append(out.Lines, Line{Text: string(cur), Width: curW})
		if curW > out.Width {
			out.Width = curW
		}
		cur = cur[:0]
		curW = 0
	}
	for _, unit := range breakUnits(b.Text) {
		if unit == "\n" {
			flush()
			continue
		}
		w := advance(drawer, unit)
		if b.MaxWidth > 0 && curW > 0 && curW+w > b.MaxWidth {
			flush()
		}
		cur = append(cur, []rune(unit)...)
		curW += w
	}
	if len(cur) > 0 || len(out.Lines) == 0 {
		flush()
	}
	out.Height = float32(len(out.Lines)) * out.LinePitch
	return out
}

// LineOffset returns the horizontal offset of a line inside the box for
// the given alignment.
func LineOffset(l Line, boxWidth float32, align string) float32 {
	switch align {
	case "center":
		return (boxWidth - l.Width) / 2
	case "right":
		return boxWidth - l.Width
	default:
		return 0
	}
}

// EstimateCapacity derives a character budget for a text box from its
// pixel size and font size. CJK glyphs occupy roughly one em each, so
// width/em approximates characters per line; the 0.8 factor leaves
// headroom for latin mix and padding.
func EstimateCapacity(width, height, fontSize, lineHeight float64) int {
	if fontSize <= 0 {
		fontSize = 16
	}
	if lineHeight <= 0 {
		lineHeight = 1.2
	}
	perLine := math.Floor(width / fontSize)
	if perLine < 1 {
		perLine = 1
	}
	lines := math.Floor(height / (fontSize * lineHeight))
	if lines < 1 {
		lines = 1
	}
	n := int(math.Floor(perLine * lines * 0.8))
	if n < 1 {
		n = 1
	}
	return n
}

// breakUnits splits text into wrap units: single CJK runes, unbroken
// latin word runs, single spaces, and explicit newlines.
func breakUnits(text string) []string {
	var units []string
	var word []rune
	flushWord := func() {
		if len(word) > 0 {
			units = append(units, string(word))
			word = word[:0]
		}
	}
	for _, r := range text {
		switch {
		case r == '\n':
			flushWord()
			units = append(units, "\n")
		case r == ' ' || r == '\t':
			flushWord()
			units = append(units, " ")
		case unicode.IsLetter(r) && r < 0x2E80, unicode.IsDigit(r):
			word = append(word, r)
		default:
			flushWord()
			units = append(units, string(r))
		}
	}
	flushWord()
	return units
}

func advance(d *font.Drawer, s string) float32 {
	return float32(d.MeasureString(s) >> 6) // fixed.Int26_6 to px
}
