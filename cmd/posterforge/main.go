/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"posterforge/internal/backend"
	"posterforge/internal/config"
	"posterforge/internal/crash"
	"posterforge/internal/doc"
	"posterforge/internal/dsl"
	"posterforge/internal/engine"
	"posterforge/internal/export"
	"posterforge/internal/genai"
	applog "posterforge/internal/log"
	"posterforge/internal/rewrite"
	"posterforge/internal/scene"
	"posterforge/internal/storage"
	"posterforge/internal/telemetry"
	"posterforge/internal/version"
)

func usage() {
	fmt.Println("PosterForge")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  posterforge version|-v|--version              Show version")
	fmt.Println("  posterforge init <dir> <name>                 Create a new project at <dir> with name <name>")
	fmt.Println("  posterforge open <dir>                        Open project at <dir> and print summary")
	fmt.Println("  posterforge save <dir>                        Save project at <dir> (creates backup)")
	fmt.Println("  posterforge page <dir> list                   List pages")
	fmt.Println("  posterforge page <dir> add                    Append an empty page and activate it")
	fmt.Println("  posterforge page <dir> delete <n>             Delete page <n> (1-based)")
	fmt.Println("  posterforge page <dir> switch <n>             Make page <n> active")
	fmt.Println("  posterforge page <dir> reorder <from> <to>    Move page <from> to position <to>")
	fmt.Println("  posterforge apply-dsl <dir> <file>            Apply a scene description file to the active page")
	fmt.Println("  posterforge analyze <dir>                     Classify the active page's text and print code tokens")
	fmt.Println("  posterforge rewrite <dir> <file>              Apply generated token content (single- or multi-page)")
	fmt.Println("  posterforge generate <dir> [prompt]           Rewrite the active page via the generation service")
	fmt.Println("  posterforge works list                        List poster works stored on the sync backend")
	fmt.Println("  posterforge export <dir> png|jpeg [outDir]    Render pages to images")
	fmt.Println("  posterforge export <dir> pdf [outFile]        Render pages to a single PDF")
	fmt.Println("  posterforge serve                             Run the sync backend server")
}

// thumbRenderer adapts the raster exporter for engine thumbnail refreshes.
func thumbRenderer(snapshot []byte) ([]byte, error) {
	return export.RenderThumbnail(snapshot, 160)
}

// logOptions maps the persisted logging preferences onto the logger
// configuration. Environment overrides are merged upstream by config.Load.
func logOptions(lc config.LoggingConfig) applog.Options {
	return applog.Options{
		Level:     lc.Level,
		Format:    lc.Format,
		AddSource: lc.Source,
		File:      lc.File,
	}
}

func main() {
	cfg, token, cfgErr := config.Load()
	if cfgErr != nil {
		applog.Init(applog.FromEnv())
	} else {
		applog.Init(logOptions(cfg.Logging))
	}
	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	telemetry.NewDefault(tcfg)
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("user config unavailable, using defaults", slog.Any("err", cfgErr))
	}
	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("PosterForge")
		fmt.Println(version.String())

	case "init":
		if len(args) < 4 {
			fmt.Println("init requires <dir> and <name>")
			usage()
			os.Exit(2)
		}
		abs, _ := filepath.Abs(args[2])
		l.Info("init project", slog.String("root", abs), slog.String("name", args[3]))
		h, err := storage.InitProject(abs, storage.SnapshotStore(doc.NewStore(args[3])))
		if err != nil {
			fail(l, "init failed", err)
		}
		ph = h
		fmt.Println("Created project at", abs)

	case "open":
		ph = mustOpen(l, args, 2)
		fmt.Printf("Opened project: %s\n", ph.Manifest.Name)
		fmt.Printf("Pages: %d (active: %d)\n", len(ph.Manifest.Pages), ph.Manifest.ActivePage+1)
		fmt.Println("Root:", ph.Root)
		if err := storage.UpdateIndex(context.Background(), ph); err != nil {
			l.Warn("index refresh failed", slog.Any("err", err))
		}
		telemetry.Event(telemetry.EventProjectOpened, map[string]any{"pages": len(ph.Manifest.Pages)})

	case "save":
		ph = mustOpen(l, args, 2)
		if err := storage.Save(ph); err != nil {
			fail(l, "save failed", err)
		}
		fmt.Println("Saved project and created a backup of the previous manifest (if any).")
		telemetry.Event(telemetry.EventProjectSaved, nil)

	case "page":
		if len(args) < 4 {
			fmt.Println("page requires <dir> and an operation")
			usage()
			os.Exit(2)
		}
		ph = mustOpen(l, args, 2)
		runPageOp(l, ph, args[3], args[4:])

	case "apply-dsl":
		if len(args) < 4 {
			fmt.Println("apply-dsl requires <dir> and <file>")
			usage()
			os.Exit(2)
		}
		ph = mustOpen(l, args, 2)
		runApplyDSL(l, ph, args[3])

	case "analyze":
		ph = mustOpen(l, args, 2)
		runAnalyze(l, ph)

	case "rewrite":
		if len(args) < 4 {
			fmt.Println("rewrite requires <dir> and <file>")
			usage()
			os.Exit(2)
		}
		ph = mustOpen(l, args, 2)
		runRewrite(l, ph, args[3])

	case "generate":
		ph = mustOpen(l, args, 2)
		prompt := ""
		if len(args) > 3 {
			prompt = args[3]
		}
		runGenerate(l, ph, cfg, prompt)

	case "works":
		if len(args) < 3 {
			fmt.Println("works requires an operation")
			usage()
			os.Exit(2)
		}
		runWorks(l, cfg, token, args[2])

	case "export":
		if len(args) < 4 {
			fmt.Println("export requires <dir> and a format")
			usage()
			os.Exit(2)
		}
		ph = mustOpen(l, args, 2)
		out := ""
		if len(args) > 4 {
			out = args[4]
		}
		runExport(l, ph, args[3], out)

	case "serve":
		if err := backend.Start(); err != nil {
			fail(l, "server failed", err)
		}

	default:
		usage()
	}
}

func fail(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func mustOpen(l *slog.Logger, args []string, pos int) *storage.ProjectHandle {
	if len(args) <= pos {
		fmt.Println("missing <dir> argument")
		usage()
		os.Exit(2)
	}
	abs, _ := filepath.Abs(args[pos])
	h, err := storage.Open(abs)
	if err != nil {
		fail(l, "open failed", err)
	}
	return h
}

// persist writes the mutated store back into the handle, keeping the
// original creation stamp, and saves.
func persist(l *slog.Logger, ph *storage.ProjectHandle, st *doc.Store) {
	created := ph.Manifest.CreatedAt
	ph.Manifest = storage.SnapshotStore(st)
	ph.Manifest.CreatedAt = created
	if err := storage.Save(ph); err != nil {
		fail(l, "save failed", err)
	}
	if err := storage.UpdateIndex(context.Background(), ph); err != nil {
		l.Warn("index refresh failed", slog.Any("err", err))
	}
}

func parseIndex(arg string, count int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a page number", arg)
	}
	if n < 1 || n > count {
		return 0, fmt.Errorf("page %d out of range 1..%d", n, count)
	}
	return n - 1, nil
}

func runPageOp(l *slog.Logger, ph *storage.ProjectHandle, op string, rest []string) {
	st := storage.RestoreStore(ph.Manifest)
	switch op {
	case "list":
		for i, p := range st.Pages() {
			marker := " "
			if i == st.ActiveIndex() {
				marker = "*"
			}
			s, err := scene.Decode(p.Scene)
			if err != nil {
				fmt.Printf("%s %d: (unreadable scene)\n", marker, i+1)
				continue
			}
			fmt.Printf("%s %d: %.0fx%.0f, %d objects\n", marker, i+1, s.Width, s.Height, len(s.Objects))
		}
		return
	case "add":
		st.AddPage()
		fmt.Printf("Added page %d (now active)\n", st.Len())
	case "delete":
		if len(rest) < 1 {
			fail(l, "page delete", fmt.Errorf("delete requires <n>"))
		}
		idx, err := parseIndex(rest[0], st.Len())
		if err != nil {
			fail(l, "page delete", err)
		}
		if err := st.DeletePage(idx); err != nil {
			fail(l, "page delete", err)
		}
		fmt.Printf("Deleted page %d\n", idx+1)
	case "switch":
		if len(rest) < 1 {
			fail(l, "page switch", fmt.Errorf("switch requires <n>"))
		}
		idx, err := parseIndex(rest[0], st.Len())
		if err != nil {
			fail(l, "page switch", err)
		}
		if err := st.SetActive(idx); err != nil {
			fail(l, "page switch", err)
		}
		fmt.Printf("Active page is now %d\n", idx+1)
	case "reorder":
		if len(rest) < 2 {
			fail(l, "page reorder", fmt.Errorf("reorder requires <from> and <to>"))
		}
		from, err := parseIndex(rest[0], st.Len())
		if err != nil {
			fail(l, "page reorder", err)
		}
		to, err := parseIndex(rest[1], st.Len())
		if err != nil {
			fail(l, "page reorder", err)
		}
		st.ReorderPage(from, to)
		fmt.Printf("Moved page %d to position %d\n", from+1, to+1)
	default:
		fmt.Printf("unknown page operation %q\n", op)
		usage()
		os.Exit(2)
	}
	persist(l, ph, st)
}

func runApplyDSL(l *slog.Logger, ph *storage.ProjectHandle, file string) {
	input, err := os.ReadFile(file)
	if err != nil {
		fail(l, "read input", err)
	}
	d, err := dsl.Parse(string(input))
	if err != nil {
		fail(l, "parse failed", err)
	}

	st := storage.RestoreStore(ph.Manifest)
	surface := engine.NewMemorySurface()
	eng := engine.New(st, surface, engine.WithThumbnailRenderer(thumbRenderer))
	if err := eng.Attach(); err != nil {
		fail(l, "attach failed", err)
	}
	defer eng.Close()

	res := dsl.Apply(surface, d)
	// surface events already pushed history per element; just flush the scene
	if err := eng.SyncSurfaceToPage(false, false); err != nil {
		fail(l, "capture failed", err)
	}
	page := st.Active()
	if thumb, terr := thumbRenderer(page.Scene); terr == nil {
		page.Thumbnail = thumb
	}

	fmt.Printf("Applied %d element(s)", res.Applied)
	if res.Skipped > 0 {
		fmt.Printf(", skipped %d", res.Skipped)
	}
	fmt.Println()
	persist(l, ph, st)
	telemetry.Event(telemetry.EventDSLApplied, map[string]any{"applied": res.Applied, "skipped": res.Skipped})
}

func runAnalyze(l *slog.Logger, ph *storage.ProjectHandle) {
	st := storage.RestoreStore(ph.Manifest)
	s, err := scene.Decode(st.Active().Scene)
	if err != nil {
		fail(l, "decode scene", err)
	}
	a := rewrite.Analyze(s)
	fmt.Println(a.Summary())
	for _, e := range a.Elements {
		fmt.Printf("  %s  %-8s cap=%-3d %q\n", e.Token, e.Class, e.Capacity, e.Content)
	}
}

func runRewrite(l *slog.Logger, ph *storage.ProjectHandle, file string) {
	input, err := os.ReadFile(file)
	if err != nil {
		fail(l, "read input", err)
	}

	st := storage.RestoreStore(ph.Manifest)
	surface := engine.NewMemorySurface()
	eng := engine.New(st, surface, engine.WithThumbnailRenderer(thumbRenderer))
	if err := eng.Attach(); err != nil {
		fail(l, "attach failed", err)
	}
	defer eng.Close()

	// A pages array or canvas markers address the whole document; a lone
	// token group keeps the single-page semantics on the active page.
	var probe map[string]json.RawMessage
	_ = json.Unmarshal(input, &probe)
	_, hasPagesKey := probe["pages"]
	if pages, perr := rewrite.ParseGeneratedPages(input); perr == nil && (hasPagesKey || len(pages) > 1) {
		res, err := applyGeneratedToPages(eng, surface, st, pages, thumbRenderer)
		if err != nil {
			fail(l, "rewrite failed", err)
		}
		fmt.Printf("Matched %d token(s) across %d page(s)\n", len(res.Matched), len(pages))
		if len(res.Unmatched) > 0 {
			fmt.Printf("Unmatched: %v\n", res.Unmatched)
		}
		persist(l, ph, st)
		telemetry.Event(telemetry.EventRewriteDone, map[string]any{
			"matched": len(res.Matched), "unmatched": len(res.Unmatched), "pages": len(pages)})
		return
	}

	generated, err := rewrite.ParseGenerated(input)
	if err != nil {
		fail(l, "parse generated content", err)
	}
	a := rewrite.Analyze(surface.Scene())
	res, err := rewrite.Apply(surface, a, generated)
	if err != nil {
		fail(l, "rewrite failed", err)
	}
	if err := eng.SyncSurfaceToPage(false, false); err != nil {
		fail(l, "capture failed", err)
	}
	page := st.Active()
	if thumb, terr := thumbRenderer(page.Scene); terr == nil {
		page.Thumbnail = thumb
	}

	fmt.Printf("Matched %d token(s)\n", len(res.Matched))
	if len(res.Unmatched) > 0 {
		fmt.Printf("Unmatched: %v\n", res.Unmatched)
	}
	persist(l, ph, st)
	telemetry.Event(telemetry.EventRewriteDone, map[string]any{"matched": len(res.Matched), "unmatched": len(res.Unmatched)})
}

// applyGeneratedToPages applies one token group per page, in document
// order. Each page is analyzed on its own since tokens are only unique
// within a page. Groups beyond the page count surface as unmatched; a
// page group that matches nothing does not abort the remaining pages.
func applyGeneratedToPages(eng *engine.Engine, surface *engine.MemorySurface, st *doc.Store, pages []map[string]string, render func([]byte) ([]byte, error)) (rewrite.Result, error) {
	var total rewrite.Result
	orig := st.ActiveIndex()
	n := len(pages)
	if n > st.Len() {
		n = st.Len()
	}
	for i := 0; i < n; i++ {
		if len(pages[i]) == 0 {
			continue
		}
		eng.SwitchPage(i)
		a := rewrite.Analyze(surface.Scene())
		res, err := rewrite.Apply(surface, a, pages[i])
		total.Matched = append(total.Matched, res.Matched...)
		total.Unmatched = append(total.Unmatched, res.Unmatched...)
		if err != nil {
			continue
		}
		if err := eng.SyncSurfaceToPage(false, false); err != nil {
			return total, err
		}
		if render != nil {
			if p, perr := st.Page(i); perr == nil {
				if thumb, terr := render(p.Scene); terr == nil {
					p.Thumbnail = thumb
				}
			}
		}
	}
	for i := n; i < len(pages); i++ {
		for tok := range pages[i] {
			total.Unmatched = append(total.Unmatched, tok)
		}
	}
	eng.SwitchPage(orig)
	if len(total.Matched) == 0 {
		return total, fmt.Errorf("no generated key matched any element on any page")
	}
	return total, nil
}

// generateReplacements sends the analyzed elements to the generation
// service and parses the returned token map.
func generateReplacements(ctx context.Context, client *genai.Client, a *rewrite.Analysis, prompt, model string) (map[string]string, error) {
	payload, err := json.Marshal(map[string]any{"elements": a.Elements})
	if err != nil {
		return nil, err
	}
	text, err := client.GenerateText(ctx, genai.TextRequest{Text: string(payload), Prompt: prompt, Model: model})
	if err != nil {
		return nil, err
	}
	return rewrite.ParseGenerated([]byte(text))
}

func runGenerate(l *slog.Logger, ph *storage.ProjectHandle, cfg config.AppConfig, prompt string) {
	if cfg.Generation.BaseURL == "" {
		fail(l, "generate", fmt.Errorf("no generation service configured; set generation.base_url in the config file or %s", config.EnvGenerationURL))
	}

	st := storage.RestoreStore(ph.Manifest)
	surface := engine.NewMemorySurface()
	eng := engine.New(st, surface, engine.WithThumbnailRenderer(thumbRenderer))
	if err := eng.Attach(); err != nil {
		fail(l, "attach failed", err)
	}
	defer eng.Close()

	a := rewrite.Analyze(surface.Scene())
	if len(a.Elements) == 0 {
		fail(l, "generate", fmt.Errorf("active page has no rewritable text"))
	}

	client := genai.NewClient(cfg.Generation.BaseURL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	l.Info("requesting generated copy", slog.String("model", cfg.Generation.Model), slog.Int("elements", len(a.Elements)))
	generated, err := generateReplacements(ctx, client, a, prompt, cfg.Generation.Model)
	if err != nil {
		fail(l, "generation failed", err)
	}

	res, err := rewrite.Apply(surface, a, generated)
	if err != nil {
		fail(l, "rewrite failed", err)
	}
	if err := eng.SyncSurfaceToPage(false, false); err != nil {
		fail(l, "capture failed", err)
	}
	page := st.Active()
	if thumb, terr := thumbRenderer(page.Scene); terr == nil {
		page.Thumbnail = thumb
	}

	fmt.Printf("Generated and matched %d token(s)\n", len(res.Matched))
	if len(res.Unmatched) > 0 {
		fmt.Printf("Unmatched: %v\n", res.Unmatched)
	}
	persist(l, ph, st)
	telemetry.Event(telemetry.EventRewriteDone, map[string]any{"matched": len(res.Matched), "unmatched": len(res.Unmatched), "generated": true})
}

func runWorks(l *slog.Logger, cfg config.AppConfig, token, op string) {
	client := backend.NewClient(cfg.Backend.BaseURL, token)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.EffectiveTimeout())
	defer cancel()
	if token == "" {
		if err := client.Authenticate(ctx, "cli"); err != nil {
			fail(l, "backend auth failed", err)
		}
	}
	switch op {
	case "list":
		works, err := client.ListWorks(ctx)
		if err != nil {
			fail(l, "list works failed", err)
		}
		if len(works) == 0 {
			fmt.Println("No works stored on the backend.")
			return
		}
		for _, wk := range works {
			fmt.Printf("%4d  %-30s %s\n", wk.ID, wk.Title, wk.UpdatedAt.Format("2006-01-02 15:04"))
		}
	default:
		fmt.Printf("unknown works operation %q\n", op)
		usage()
		os.Exit(2)
	}
}

func runExport(l *slog.Logger, ph *storage.ProjectHandle, format, out string) {
	ctx := context.Background()
	raster := export.RasterOptions{Fonts: export.LoadProjectFonts(ph.Root)}
	switch format {
	case "png", "jpeg", "jpg":
		if out == "" {
			out = "exports"
		}
		opt := export.PageOptions{Raster: raster, Format: format}
		if err := export.ExportPages(ctx, ph, out, opt); err != nil {
			fail(l, "export failed", err)
		}
		fmt.Printf("Exported %d page(s) as %s\n", len(ph.Manifest.Pages), format)
	case "pdf":
		if out == "" {
			out = filepath.Join(ph.Root, "exports", "poster.pdf")
		}
		if err := export.ExportPDF(ph, out, export.PDFOptions{Raster: raster}); err != nil {
			fail(l, "export failed", err)
		}
		fmt.Println("Exported PDF to", out)
	default:
		fmt.Printf("unknown export format %q\n", format)
		usage()
		os.Exit(2)
	}
	telemetry.Event(telemetry.EventExportDone, map[string]any{"format": format})
}
