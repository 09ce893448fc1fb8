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
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	applog "posterforge/internal/log"
	"posterforge/internal/scene"
	"posterforge/internal/storage"
)

// PageOptions controls per-page raster export.
type PageOptions struct {
	Raster  RasterOptions
	Format  string // "png" or "jpeg"
	Quality int    // jpeg only; 0 means 90
	Pages   []int  // zero-based; empty exports all
}

// ExportPages renders the selected pages concurrently and writes one
// image file per page under outDir (resolved against the project's
// exports folder when relative). Files are named page-<n>.<ext> with n
// starting at 1.
func ExportPages(ctx context.Context, ph *storage.ProjectHandle, outDir string, opt PageOptions) error {
	if ph == nil {
		return fmt.Errorf("project handle is nil")
	}
	format := opt.Format
	if format == "" {
		format = "png"
	}
	if format == "jpg" {
		format = "jpeg"
	}
	if format != "png" && format != "jpeg" {
		return fmt.Errorf("unsupported format %q", format)
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(ph.Root, "exports", outDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}

	pages := pageIndexes(len(ph.Manifest.Pages), opt.Pages)
	l := applog.WithComponent("export")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, idx := range pages {
		rec := ph.Manifest.Pages[idx]
		n := idx + 1
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := scene.Decode(rec.Scene)
			if err != nil {
				return fmt.Errorf("page %d: %w", n, err)
			}
			data, err := encodeImage(s, format, opt)
			if err != nil {
				return fmt.Errorf("page %d: %w", n, err)
			}
			name := filepath.Join(outDir, fmt.Sprintf("page-%d.%s", n, extOf(format)))
			if err := os.WriteFile(name, data, 0o644); err != nil {
				return fmt.Errorf("page %d: %w", n, err)
			}
			l.Info("page exported", slog.Int("page", n), slog.String("file", name))
			return nil
		})
	}
	return g.Wait()
}

func encodeImage(s *scene.Scene, format string, opt PageOptions) ([]byte, error) {
	img := RenderScene(s, opt.Raster)
	var buf bytes.Buffer
	switch format {
	case "jpeg":
		q := opt.Quality
		if q <= 0 {
			q = 90
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func extOf(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

// pageIndexes returns the requested zero-based indexes, or all of them
// when the request is empty. Out-of-range requests are dropped.
func pageIndexes(total int, requested []int) []int {
	if len(requested) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for _, i := range requested {
		if i >= 0 && i < total {
			out = append(out, i)
		}
	}
	return out
}
