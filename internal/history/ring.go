/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history provides the bounded undo/redo snapshot store for one page.
//
// Invariants:
//   - 0 <= Index < Len whenever Len > 0
//   - Push truncates everything after Index (discarding the redo tail),
//     appends, and evicts the oldest entry once capacity is exceeded
//   - Undo/Redo only move the index; they never add or remove entries
package history

import "sync"

// DefaultCapacity bounds the number of retained snapshots per page.
const DefaultCapacity = 50

// Ring is a bounded linear snapshot history with an explicit cursor.
// Snapshots are opaque blobs; the ring copies nothing and assumes callers
// do not mutate pushed slices. It is safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	snaps [][]byte
	idx   int
	cap   int
}

// NewRing creates a history ring. capacity <= 0 selects DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{snaps: nil, idx: -1, cap: capacity}
}

// Push records a new snapshot as the current state. Any redo tail beyond the
// cursor is discarded first; the oldest entry is evicted when the ring is
// full.
func (r *Ring) Push(snap []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps[:r.idx+1], snap)
	if len(r.snaps) > r.cap {
		drop := len(r.snaps) - r.cap
		r.snaps = append([][]byte{}, r.snaps[drop:]...)
	}
	r.idx = len(r.snaps) - 1
}

// Undo moves the cursor one step back and returns that snapshot.
// It reports false at the oldest retained snapshot.
func (r *Ring) Undo() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx <= 0 {
		return nil, false
	}
	r.idx--
	return r.snaps[r.idx], true
}

// Redo moves the cursor one step forward and returns that snapshot.
// It reports false at the newest snapshot.
func (r *Ring) Redo() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx >= len(r.snaps)-1 {
		return nil, false
	}
	r.idx++
	return r.snaps[r.idx], true
}

// Current returns the snapshot under the cursor, or nil if the ring is empty.
func (r *Ring) Current() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idx < 0 || r.idx >= len(r.snaps) {
		return nil
	}
	return r.snaps[r.idx]
}

// Len returns the number of retained snapshots.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

// Index returns the cursor position, -1 when empty.
func (r *Ring) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.idx
}

// Snapshots returns a copy of the retained snapshot slice, oldest first.
// Used when persisting a page.
func (r *Ring) Snapshots() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.snaps))
	copy(out, r.snaps)
	return out
}

// Restore replaces ring contents from persisted state. An out-of-range index
// is clamped into the retained slice.
func (r *Ring) Restore(snaps [][]byte, index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(snaps) > r.cap {
		snaps = snaps[len(snaps)-r.cap:]
	}
	r.snaps = append([][]byte{}, snaps...)
	switch {
	case len(r.snaps) == 0:
		r.idx = -1
	case index < 0:
		r.idx = 0
	case index >= len(r.snaps):
		r.idx = len(r.snaps) - 1
	default:
		r.idx = index
	}
}
