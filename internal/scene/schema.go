/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// snapshotSchema is the JSON Schema the engine-authored snapshot format
// conforms to. Foreign payloads (backend works, imported templates) are
// checked against it before they reach the surface.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Poster page snapshot",
  "type": "object",
  "required": ["version", "objects"],
  "properties": {
    "version": {"type": "string"},
    "width": {"type": "number", "exclusiveMinimum": 0},
    "height": {"type": "number", "exclusiveMinimum": 0},
    "background": {"type": "string"},
    "objects": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "x", "y"],
        "properties": {
          "id": {"type": "string"},
          "type": {"enum": ["text", "image", "rect", "circle", "line", "triangle"]},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "width": {"type": "number"},
          "height": {"type": "number"},
          "angle": {"type": "number"},
          "opacity": {"type": "number", "minimum": 0, "maximum": 1},
          "fill": {"type": "string"},
          "stroke": {"type": "string"},
          "strokeWidth": {"type": "number", "minimum": 0}
        }
      }
    }
  }
}`

var compiledSchema *gojsonschema.Schema

func init() {
	var err error
	compiledSchema, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(snapshotSchema))
	if err != nil {
		panic(fmt.Sprintf("scene: invalid embedded snapshot schema: %v", err))
	}
}

// ValidateSnapshot checks raw snapshot JSON against the embedded schema and
// returns a single descriptive error listing the first few violations.
func ValidateSnapshot(data []byte) error {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msg := "snapshot does not conform to schema:"
	for i, e := range result.Errors() {
		if i == 3 {
			msg += fmt.Sprintf(" (+%d more)", len(result.Errors())-i)
			break
		}
		msg += " " + e.String() + ";"
	}
	return fmt.Errorf("%s", msg)
}
