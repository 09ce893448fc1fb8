/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package engine keeps exactly one page's scene authoritative against the
// live surface and manages that page's undo/redo history.
//
// Surface edits flow surface -> page (history push + debounced thumbnail);
// page switches and undo/redo flow page -> surface through a guarded load
// path. Loads move the engine through Idle -> Loading -> Ready; events
// observed while Loading are the engine watching its own load and are
// dropped. Done() exposes load completion so dependents (export, multi-page
// rewrite) wait on a signal instead of polling with fixed delays.
package engine

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"posterforge/internal/doc"
	applog "posterforge/internal/log"
	"posterforge/internal/scene"
)

// LoadState is the engine's page-load lifecycle state.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
)

// ThumbnailDebounce is the quiet period before a thumbnail recompute.
const ThumbnailDebounce = 300 * time.Millisecond

// Renderer turns a snapshot into thumbnail image bytes.
type Renderer func(snapshot []byte) ([]byte, error)

// Engine is the bidirectional synchronizer between a doc.Store and a Surface.
type Engine struct {
	mu    sync.Mutex
	store *doc.Store

	surface Surface
	sub     Subscription

	// state is atomic so the event handler can check it without the engine
	// lock; a surface may deliver events synchronously from inside Load.
	state atomic.Int32
	done  chan struct{}

	thumbDelay  time.Duration
	thumbTimer  *time.Timer
	renderThumb Renderer

	log *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithThumbnailRenderer installs the thumbnail renderer. Without one,
// thumbnail updates are skipped.
func WithThumbnailRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderThumb = r }
}

// WithThumbnailDebounce overrides the debounce interval (tests).
func WithThumbnailDebounce(d time.Duration) Option {
	return func(e *Engine) { e.thumbDelay = d }
}

// New wires an engine to a store and surface. Call Attach to load the active
// page and begin observing edits.
func New(store *doc.Store, surface Surface, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		surface:    surface,
		done:       closedChan(),
		thumbDelay: ThumbnailDebounce,
		log:        applog.WithComponent("engine"),
	}
	e.state.Store(int32(StateIdle))
	for _, o := range opts {
		o(e)
	}
	return e
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Attach loads the active page onto the surface and subscribes to edits.
func (e *Engine) Attach() error {
	e.mu.Lock()
	page := e.store.Active()
	e.loadLocked(page.Scene)
	e.subscribeLocked()
	e.mu.Unlock()
	return nil
}

// Close detaches from the surface and cancels pending thumbnail work.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sub != nil {
		e.sub.Dispose()
		e.sub = nil
	}
	if e.thumbTimer != nil {
		e.thumbTimer.Stop()
		e.thumbTimer = nil
	}
}

// State returns the current load state.
func (e *Engine) State() LoadState {
	return LoadState(e.state.Load())
}

// Done returns a channel closed once the most recent load has completed.
// It is already closed when no load is in flight.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *Engine) subscribeLocked() {
	if e.sub != nil {
		e.sub.Dispose()
	}
	e.sub = e.surface.Subscribe(e.onEvent)
}

// onEvent handles a surface change. All event kinds are treated the same:
// capture with history push and thumbnail refresh. Events during a load are
// the engine's own writes and must not corrupt history.
func (e *Engine) onEvent(ev Event) {
	if LoadState(e.state.Load()) == StateLoading {
		return
	}
	if err := e.SyncSurfaceToPage(true, true); err != nil {
		e.log.Warn("capture failed", slog.String("event", ev.Kind.String()), slog.Any("err", err))
	}
}

// SyncSurfaceToPage serializes the live surface into the active page. With
// pushHistory the snapshot is appended to the page history (the ring
// truncates any redo tail and evicts past capacity); the page scene is
// always updated. With updateThumbnail a debounced recompute is scheduled.
func (e *Engine) SyncSurfaceToPage(pushHistory, updateThumbnail bool) error {
	snap, err := e.surface.Serialize()
	if err != nil {
		return err
	}
	e.mu.Lock()
	page := e.store.Active()
	page.Scene = snap
	if pushHistory {
		page.History.Push(snap)
	}
	e.mu.Unlock()
	if updateThumbnail {
		e.scheduleThumbnail(page)
	}
	return nil
}

// SyncPageToSurface loads a page's snapshot onto the surface. A malformed
// snapshot means nothing to render: the load is abandoned and logged, never
// retried, and no error reaches the store.
func (e *Engine) SyncPageToSurface(page *doc.Page) <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadLocked(page.Scene)
	return e.done
}

func (e *Engine) loadLocked(snapshot []byte) {
	e.state.Store(int32(StateLoading))
	e.done = make(chan struct{})
	defer func() {
		e.state.Store(int32(StateReady))
		close(e.done)
	}()
	if len(snapshot) == 0 {
		e.surface.Clear()
		return
	}
	if err := e.surface.Load(snapshot); err != nil {
		if errors.Is(err, scene.ErrEmptySnapshot) {
			e.surface.Clear()
			return
		}
		e.log.Warn("snapshot load abandoned", slog.Any("err", err))
	}
}

// SwitchPage flushes the active page (no history push), then activates and
// loads the target. An unresolvable index is logged and ignored.
func (e *Engine) SwitchPage(index int) {
	if _, err := e.store.Page(index); err != nil {
		e.log.Warn("switch to missing page ignored", slog.Int("index", index), slog.Any("err", err))
		return
	}
	if err := e.SyncSurfaceToPage(false, false); err != nil {
		e.log.Warn("flush before switch failed", slog.Any("err", err))
	}
	e.mu.Lock()
	if e.sub != nil {
		e.sub.Dispose()
		e.sub = nil
	}
	_ = e.store.SetActive(index)
	page := e.store.Active()
	e.loadLocked(page.Scene)
	e.subscribeLocked()
	e.mu.Unlock()
}

// AddPage flushes the current page, appends a new empty page, activates it
// and loads it onto the surface.
func (e *Engine) AddPage() *doc.Page {
	if err := e.SyncSurfaceToPage(false, false); err != nil {
		e.log.Warn("flush before add failed", slog.Any("err", err))
	}
	e.mu.Lock()
	if e.sub != nil {
		e.sub.Dispose()
		e.sub = nil
	}
	page := e.store.AddPage()
	e.loadLocked(page.Scene)
	e.subscribeLocked()
	e.mu.Unlock()
	return page
}

// DeletePage removes a page; the store's last-page invariant applies. When
// the active page changes as a result, the new active page is loaded.
func (e *Engine) DeletePage(index int) error {
	if err := e.store.DeletePage(index); err != nil {
		return err
	}
	e.mu.Lock()
	page := e.store.Active()
	e.loadLocked(page.Scene)
	e.mu.Unlock()
	return nil
}

// Undo steps the active page's history back and replays that snapshot onto
// the surface without pushing a new entry. Returns false at the boundary.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	page := e.store.Active()
	snap, ok := page.History.Undo()
	if !ok {
		return false
	}
	page.Scene = snap
	e.loadLocked(snap)
	return true
}

// Redo steps the active page's history forward; false at the boundary.
func (e *Engine) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	page := e.store.Active()
	snap, ok := page.History.Redo()
	if !ok {
		return false
	}
	page.Scene = snap
	e.loadLocked(snap)
	return true
}

// scheduleThumbnail debounces a thumbnail recompute for the page. A result
// arriving after the page stopped being active is dropped.
func (e *Engine) scheduleThumbnail(page *doc.Page) {
	if e.renderThumb == nil {
		return
	}
	e.mu.Lock()
	if e.thumbTimer != nil {
		e.thumbTimer.Stop()
	}
	snap := page.Scene
	e.thumbTimer = time.AfterFunc(e.thumbDelay, func() {
		thumb, err := e.renderThumb(snap)
		if err != nil {
			e.log.Debug("thumbnail render failed", slog.Any("err", err))
			return
		}
		e.mu.Lock()
		if e.store.Active() == page {
			page.Thumbnail = thumb
		}
		e.mu.Unlock()
	})
	e.mu.Unlock()
}
