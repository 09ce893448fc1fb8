/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package doc

import (
	"errors"
	"testing"
)

func TestNewStoreHasOnePage(t *testing.T) {
	s := NewStore("test")
	if s.Len() != 1 {
		t.Fatalf("expected 1 page, got %d", s.Len())
	}
	p := s.Active()
	if p.ID == "" || p.History == nil {
		t.Fatalf("active page not initialized: %+v", p)
	}
	if p.History.Len() != 1 {
		t.Fatalf("new page should carry its initial snapshot, history len %d", p.History.Len())
	}
}

func TestDeleteLastPageRejected(t *testing.T) {
	s := NewStore("test")
	if err := s.DeletePage(0); !errors.Is(err, ErrLastPage) {
		t.Fatalf("expected ErrLastPage, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("page count changed on rejected delete: %d", s.Len())
	}
}

func TestAddDeleteActivation(t *testing.T) {
	s := NewStore("test")
	p2 := s.AddPage()
	p3 := s.AddPage()
	if s.Len() != 3 || s.ActiveIndex() != 2 {
		t.Fatalf("add should activate new page: len=%d active=%d", s.Len(), s.ActiveIndex())
	}
	if err := s.DeletePage(2); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if s.ActiveIndex() != 1 || s.Active() != p2 {
		t.Fatalf("delete should activate max(0,index-1): active=%d", s.ActiveIndex())
	}
	_ = p3
	if err := s.DeletePage(5); !errors.Is(err, ErrNoSuchPage) {
		t.Fatalf("expected ErrNoSuchPage, got %v", err)
	}
}

func TestReorderClampsAndTracksActive(t *testing.T) {
	s := NewStore("test")
	s.AddPage()
	s.AddPage() // 3 pages, active=2
	active := s.Active()
	s.ReorderPage(2, 0)
	if s.Pages()[0] != active {
		t.Fatalf("reorder did not move page to front")
	}
	if s.ActiveIndex() != 0 || s.Active() != active {
		t.Fatalf("active selection should follow the moved page, active=%d", s.ActiveIndex())
	}
	// out-of-bounds indices clamp instead of failing
	s.ReorderPage(-5, 99)
	if s.Len() != 3 {
		t.Fatalf("clamped reorder changed page count: %d", s.Len())
	}
}
