/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySnapshot is returned when a snapshot decodes to nothing renderable.
var ErrEmptySnapshot = errors.New("empty snapshot")

// Encode serializes the scene to its snapshot JSON form.
func Encode(s *Scene) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil scene")
	}
	if s.Version == "" {
		s.Version = SnapshotVersion
	}
	return json.Marshal(s)
}

// Decode parses a snapshot. Persisted payloads are sometimes double-encoded
// (a JSON string whose contents are the real snapshot); Decode unwraps one
// level of that before giving up.
func Decode(data []byte) (*Scene, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, ErrEmptySnapshot
	}
	var s Scene
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil && (s.Width > 0 || len(s.Objects) > 0 || s.Version != "") {
		normalize(&s)
		return &s, nil
	}
	// The payload may be a JSON string wrapping the snapshot.
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		var s2 Scene
		if err := json.Unmarshal([]byte(inner), &s2); err == nil {
			normalize(&s2)
			return &s2, nil
		}
	}
	return nil, fmt.Errorf("parse snapshot: not a scene document")
}

func normalize(s *Scene) {
	if s.Version == "" {
		s.Version = SnapshotVersion
	}
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	if s.Background == "" {
		s.Background = DefaultBackground
	}
	if s.Objects == nil {
		s.Objects = []Object{}
	}
	for i := range s.Objects {
		if s.Objects[i].ID == "" {
			s.Objects[i].ID = NewID()
		}
	}
}
