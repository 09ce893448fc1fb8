/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package doc owns the ordered page sequence of a poster document and the
// single-active-page selection. All structural changes (add, delete, switch,
// reorder) go through the Store.
package doc

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"posterforge/internal/history"
	applog "posterforge/internal/log"
	"posterforge/internal/scene"
)

// ErrLastPage is returned when deleting the only remaining page.
var ErrLastPage = errors.New("a document must keep at least one page")

// ErrNoSuchPage is returned when an index does not resolve to a page.
var ErrNoSuchPage = errors.New("no such page")

// Page is one canvas/board in a document. Scene holds the serialized
// snapshot that is authoritative while the page is inactive; Thumbnail is a
// small rendered PNG cache regenerated asynchronously.
type Page struct {
	ID        string
	Scene     []byte
	Thumbnail []byte
	History   *history.Ring
}

// NewPage creates an empty page (default size, white background) with its
// initial snapshot already recorded in history.
func NewPage() *Page {
	snap, err := scene.Encode(scene.New())
	if err != nil {
		// scene.New always marshals; keep the page usable regardless
		snap = []byte(`{"version":"` + scene.SnapshotVersion + `","objects":[]}`)
	}
	p := &Page{
		ID:      uuid.NewString(),
		Scene:   snap,
		History: history.NewRing(history.DefaultCapacity),
	}
	p.History.Push(snap)
	return p
}

// Store is the page collection of one document plus the active index.
// It is safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	name   string
	pages  []*Page
	active int
	log    *slog.Logger
}

// NewStore creates a document with a single empty page, which is active.
func NewStore(name string) *Store {
	return &Store{
		name:   name,
		pages:  []*Page{NewPage()},
		active: 0,
		log:    applog.WithComponent("doc"),
	}
}

// RestoreStore rebuilds a document from persisted pages. An empty page
// slice yields a fresh single-page document; the active index is
// clamped into bounds.
func RestoreStore(name string, pages []*Page, active int) *Store {
	if len(pages) == 0 {
		return NewStore(name)
	}
	return &Store{
		name:   name,
		pages:  pages,
		active: clamp(active, 0, len(pages)-1),
		log:    applog.WithComponent("doc"),
	}
}

// Name returns the document name.
func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Len returns the page count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// ActiveIndex returns the index of the active page.
func (s *Store) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Active returns the active page.
func (s *Store) Active() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[s.active]
}

// Page returns the page at index.
func (s *Store) Page(index int) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchPage, index, len(s.pages))
	}
	return s.pages[index], nil
}

// Pages returns the ordered page slice (shared; callers must not reorder it).
func (s *Store) Pages() []*Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Page, len(s.pages))
	copy(out, s.pages)
	return out
}

// AddPage appends a new empty page and makes it active.
func (s *Store) AddPage() *Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := NewPage()
	s.pages = append(s.pages, p)
	s.active = len(s.pages) - 1
	s.log.Info("page added", slog.String("page", p.ID), slog.Int("count", len(s.pages)))
	return p
}

// DeletePage removes the page at index. Deleting the last remaining page is
// rejected with ErrLastPage and the document is unchanged. On success the
// page at max(0, index-1) becomes active.
func (s *Store) DeletePage(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchPage, index, len(s.pages))
	}
	if len(s.pages) == 1 {
		return ErrLastPage
	}
	removed := s.pages[index]
	s.pages = append(s.pages[:index], s.pages[index+1:]...)
	s.active = index - 1
	if s.active < 0 {
		s.active = 0
	}
	s.log.Info("page deleted", slog.String("page", removed.ID), slog.Int("active", s.active))
	return nil
}

// SetActive moves the active selection. The caller (the sync engine) is
// responsible for flushing the outgoing page first.
func (s *Store) SetActive(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pages) {
		return fmt.Errorf("%w: index %d of %d", ErrNoSuchPage, index, len(s.pages))
	}
	s.active = index
	return nil
}

// ReorderPage moves the page at from to position to, clamping both into
// bounds. The active page stays the same page object.
func (s *Store) ReorderPage(from, to int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pages)
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)
	if from == to {
		return
	}
	activePage := s.pages[s.active]
	p := s.pages[from]
	s.pages = append(s.pages[:from], s.pages[from+1:]...)
	rest := append([]*Page{}, s.pages[to:]...)
	s.pages = append(append(s.pages[:to:to], p), rest...)
	for i, pg := range s.pages {
		if pg == activePage {
			s.active = i
			break
		}
	}
	s.log.Debug("page reordered", slog.Int("from", from), slog.Int("to", to))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
