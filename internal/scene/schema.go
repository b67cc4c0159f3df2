/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package scene

import (
	"errors"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

// ErrInvalidScene is wrapped around every schema validation failure.
var ErrInvalidScene = errors.New("scene: description does not conform to schema")

// schemaJSON is the JSON Schema every scene description must satisfy.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "diagramkit scene",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "elements": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "width", "height"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "x": {"type": "number"},
          "y": {"type": "number"},
          "width": {"type": "number", "exclusiveMinimum": 0},
          "height": {"type": "number", "exclusiveMinimum": 0},
          "minWidth": {"type": "number", "minimum": 0},
          "minHeight": {"type": "number", "minimum": 0},
          "parent": {"type": "string"}
        }
      }
    },
    "lines": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "handles"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "handles": {
            "type": "array",
            "minItems": 2,
            "items": {
              "type": "array",
              "minItems": 2,
              "maxItems": 2,
              "items": {"type": "number"}
            }
          },
          "orthogonal": {"type": "boolean"},
          "horizontal": {"type": "boolean"}
        }
      }
    },
    "connections": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["line", "end", "to", "port"],
        "properties": {
          "line": {"type": "string"},
          "end": {"type": "string", "enum": ["head", "tail"]},
          "to": {"type": "string"},
          "port": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

// Validate checks data against the scene schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("scene: validate: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidScene, strings.Join(msgs, "; "))
	}
	return nil
}
