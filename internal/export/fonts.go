/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	applog "posterforge/internal/log"
	"posterforge/internal/textlayout"
)

// LoadProjectFonts scans a project's assets folder for font files and builds
// a provider over them. The family name is the file base name; a "-bold"
// suffix maps to weight 700. Without any loadable font the basic bitmap
// provider is returned, so rendering always has a face.
func LoadProjectFonts(root string) textlayout.Provider {
	l := applog.WithComponent("export")
	dir := filepath.Join(root, "assets")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return textlayout.BasicProvider{}
	}
	lib := textlayout.NewFontLibrary()
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		family := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		weight := 400
		if strings.HasSuffix(strings.ToLower(family), "-bold") {
			family = family[:len(family)-len("-bold")]
			weight = 700
		}
		if err := lib.LoadTTF(family, weight, false, filepath.Join(dir, e.Name())); err != nil {
			l.Warn("font skipped", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return textlayout.BasicProvider{}
	}
	return textlayout.OTProvider{Lib: lib, Fallback: textlayout.BasicProvider{}}
}
