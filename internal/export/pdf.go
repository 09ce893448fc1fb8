/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"posterforge/internal/scene"
	"posterforge/internal/storage"
)

// PDFOptions controls PDF export behavior.
// Each scene unit maps to one PDF point; pages keep their own sizes.
// Content is embedded as rendered rasters, so CJK text needs no font
// embedding.
type PDFOptions struct {
	Raster RasterOptions
	Pages  []int // zero-based; empty exports all
}

// ExportPDF writes the selected pages into a single multi-page PDF at
// outPath (resolved against the project's exports folder when relative).
func ExportPDF(ph *storage.ProjectHandle, outPath string, opt PDFOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(ph.Root, "exports", outPath)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	pages := pageIndexes(len(ph.Manifest.Pages), opt.Pages)
	if len(pages) == 0 {
		return fmt.Errorf("no pages to export")
	}

	// Size from the first page; per-page sizes are set on AddPageFormat.
	first, err := scene.Decode(ph.Manifest.Pages[pages[0]].Scene)
	if err != nil {
		return fmt.Errorf("page %d: %w", pages[0]+1, err)
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: first.Width, Ht: first.Height},
		OrientationStr: "",
	})
	pdf.SetTitle(ph.Manifest.Name, true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	raster := opt.Raster
	if raster.Scale <= 0 {
		// render at 2x for crisp print output
		raster.Scale = 2
	}
	for i, idx := range pages {
		s, err := scene.Decode(ph.Manifest.Pages[idx].Scene)
		if err != nil {
			return fmt.Errorf("page %d: %w", idx+1, err)
		}
		data, err := EncodePNG(s, raster)
		if err != nil {
			return fmt.Errorf("page %d: %w", idx+1, err)
		}
		pdf.AddPageFormat("", gofpdf.SizeType{Wd: s.Width, Ht: s.Height})
		name := fmt.Sprintf("page-%d", i+1)
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
		pdf.ImageOptions(name, 0, 0, s.Width, s.Height, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
