/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"
	"image/color"
	"regexp"
	"strings"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// namedColors maps English and Chinese color names to 6-digit hex values.
var namedColors = map[string]string{
	"white":  "#ffffff",
	"black":  "#000000",
	"red":    "#ff0000",
	"blue":   "#0000ff",
	"green":  "#00ff00",
	"yellow": "#ffff00",
	"purple": "#800080",
	"orange": "#ffa500",
	"pink":   "#ffc0cb",
	"gray":   "#808080",
	"grey":   "#808080",
	"白色":     "#ffffff",
	"黑色":     "#000000",
	"红色":     "#ff0000",
	"蓝色":     "#0000ff",
	"绿色":     "#00ff00",
	"黄色":     "#ffff00",
	"紫色":     "#800080",
	"橙色":     "#ffa500",
	"粉色":     "#ffc0cb",
	"灰色":     "#808080",
}

// ParseColor normalizes a color value to "#rrggbb". Accepted inputs are
// 6-digit hex strings and the named colors above (English or Chinese).
func ParseColor(v string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(v))
	if t == "" {
		return "", fmt.Errorf("empty color")
	}
	if hexColorRe.MatchString(t) {
		return t, nil
	}
	if hex, ok := namedColors[t]; ok {
		return hex, nil
	}
	return "", fmt.Errorf("invalid color %q: expected #rrggbb or a known color name", v)
}

// ToRGBA converts a normalized hex color to an image color with the given
// alpha. Unparseable values render as opaque black.
func ToRGBA(hex string, alpha float64) color.RGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	normalized, err := ParseColor(hex)
	if err != nil {
		return color.RGBA{A: uint8(alpha * 255)}
	}
	var r, g, b uint8
	_, _ = fmt.Sscanf(normalized[1:], "%02x%02x%02x", &r, &g, &b)
	return color.RGBA{R: r, G: g, B: b, A: uint8(alpha * 255)}
}
