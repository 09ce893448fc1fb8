/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"posterforge/internal/engine"
	"posterforge/internal/rewrite"
	"posterforge/internal/scene"
)

// Rewrite endpoints run the analyze/apply round for clients that hold
// their page remotely (web editor, batch tools). The snapshot arrives
// in the request, is schema-checked like every foreign payload, and the
// analysis lives server-side only between the two calls.

// handleRewriteAnalyze classifies the text elements of a submitted page
// snapshot and parks the result until the matching apply call.
func handleRewriteAnalyze(sessions *rewrite.Sessions, w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageID  string          `json:"page_id"`
		Content json.RawMessage `json:"content"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.PageID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("page_id is required"))
		return
	}
	content := NormalizeContent(req.Content)
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("content is required"))
		return
	}
	if err := scene.ValidateSnapshot(content); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s, err := scene.Decode(content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	a := rewrite.Analyze(s)
	sessions.Put(req.PageID, a)
	elements := a.Elements
	if elements == nil {
		elements = []rewrite.ElementStat{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page_id":  req.PageID,
		"summary":  a.Summary(),
		"elements": elements,
	})
}

// handleRewriteApply consumes the pending analysis for the page and
// matches generated token content onto the submitted snapshot. The
// analysis is one-shot; a second apply for the same page needs a fresh
// analyze call.
func handleRewriteApply(sessions *rewrite.Sessions, w http.ResponseWriter, r *http.Request) {
	var req struct {
		PageID    string          `json:"page_id"`
		Content   json.RawMessage `json:"content"`
		Generated json.RawMessage `json:"generated"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.PageID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("page_id is required"))
		return
	}
	a, ok := sessions.Consume(req.PageID)
	if !ok {
		writeError(w, http.StatusConflict, fmt.Errorf("no pending analysis for page %q; call analyze first", req.PageID))
		return
	}
	content := NormalizeContent(req.Content)
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("content is required"))
		return
	}
	if err := scene.ValidateSnapshot(content); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	generated, err := rewrite.ParseGenerated(req.Generated)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	surface := engine.NewMemorySurface()
	if err := surface.Load(content); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	res, err := rewrite.Apply(surface, a, generated)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	snap, err := surface.Serialize()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	matched, unmatched := res.Matched, res.Unmatched
	if matched == nil {
		matched = []string{}
	}
	if unmatched == nil {
		unmatched = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page_id":   req.PageID,
		"content":   json.RawMessage(snap),
		"matched":   matched,
		"unmatched": unmatched,
	})
}
