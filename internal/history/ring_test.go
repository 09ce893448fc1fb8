/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"fmt"
	"testing"
)

func TestPushUndoRedoSequence(t *testing.T) {
	r := NewRing(50)
	// initial snapshot plus N edits
	n := 10
	for i := 0; i <= n; i++ {
		r.Push([]byte(fmt.Sprintf("s%d", i)))
	}
	if r.Len() != n+1 {
		t.Fatalf("expected len %d, got %d", n+1, r.Len())
	}
	if r.Index() != n {
		t.Fatalf("expected index %d, got %d", n, r.Index())
	}
	for k := 1; k <= n; k++ {
		s, ok := r.Undo()
		if !ok {
			t.Fatalf("undo %d failed", k)
		}
		want := fmt.Sprintf("s%d", n-k)
		if string(s) != want {
			t.Fatalf("undo %d: got %q want %q", k, s, want)
		}
		if r.Index() != n-k {
			t.Fatalf("undo %d: index %d want %d", k, r.Index(), n-k)
		}
	}
	if _, ok := r.Undo(); ok {
		t.Fatalf("undo past oldest should fail")
	}
	if s, ok := r.Redo(); !ok || string(s) != "s1" {
		t.Fatalf("redo expected s1, got %q ok=%v", s, ok)
	}
}

func TestEvictionBeyondCapacity(t *testing.T) {
	r := NewRing(50)
	for i := 0; i < 80; i++ {
		r.Push([]byte(fmt.Sprintf("s%d", i)))
	}
	if r.Len() != 50 {
		t.Fatalf("expected len capped at 50, got %d", r.Len())
	}
	if r.Index() != 49 {
		t.Fatalf("expected index 49, got %d", r.Index())
	}
	if string(r.Current()) != "s79" {
		t.Fatalf("expected newest s79, got %q", r.Current())
	}
	// oldest retained should be s30
	for {
		if _, ok := r.Undo(); !ok {
			break
		}
	}
	if string(r.Current()) != "s30" {
		t.Fatalf("expected oldest retained s30, got %q", r.Current())
	}
}

func TestPushTruncatesRedoTail(t *testing.T) {
	r := NewRing(10)
	for i := 0; i < 5; i++ {
		r.Push([]byte(fmt.Sprintf("s%d", i)))
	}
	r.Undo()
	r.Undo()
	r.Push([]byte("branch"))
	if r.Len() != 4 {
		t.Fatalf("expected redo tail discarded, len=%d", r.Len())
	}
	if _, ok := r.Redo(); ok {
		t.Fatalf("redo should fail after a new push")
	}
	if string(r.Current()) != "branch" {
		t.Fatalf("current should be branch, got %q", r.Current())
	}
}

func TestRestoreClampsIndex(t *testing.T) {
	r := NewRing(3)
	r.Restore([][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}, 9)
	if r.Len() != 3 {
		t.Fatalf("restore should clamp to capacity, len=%d", r.Len())
	}
	if r.Index() != 2 || string(r.Current()) != "d" {
		t.Fatalf("restore index/current wrong: %d %q", r.Index(), r.Current())
	}
	r.Restore(nil, 0)
	if r.Len() != 0 || r.Index() != -1 {
		t.Fatalf("restore empty wrong: %d %d", r.Len(), r.Index())
	}
}
