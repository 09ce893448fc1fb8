/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package rewrite

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Analyses expire if no rewrite consumes them; the generator round
// trip rarely takes more than a couple of minutes.
const (
	sessionTTL     = 10 * time.Minute
	sessionCleanup = 5 * time.Minute
)

// Sessions holds pending analyses keyed by page ID until a rewrite
// consumes them. One analysis feeds exactly one apply round.
type Sessions struct {
	c *gocache.Cache
}

func NewSessions() *Sessions {
	return &Sessions{c: gocache.New(sessionTTL, sessionCleanup)}
}

// Put replaces any pending analysis for the page.
func (s *Sessions) Put(pageID string, a *Analysis) {
	s.c.Set(pageID, a, gocache.DefaultExpiration)
}

// Peek returns the pending analysis without consuming it.
func (s *Sessions) Peek(pageID string) (*Analysis, bool) {
	v, ok := s.c.Get(pageID)
	if !ok {
		return nil, false
	}
	return v.(*Analysis), true
}

// Consume returns the pending analysis and discards it. A second
// Consume for the same page misses until the page is analyzed again.
func (s *Sessions) Consume(pageID string) (*Analysis, bool) {
	a, ok := s.Peek(pageID)
	if ok {
		s.c.Delete(pageID)
	}
	return a, ok
}
