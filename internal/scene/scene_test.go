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
	"math"
	"testing"

	"diagramkit/internal/canvas"
	"diagramkit/internal/item"
)

const demoScene = `{
  "name": "demo",
  "elements": [
    {"id": "a", "x": 0, "y": 0, "width": 100, "height": 50},
    {"id": "b", "x": 300, "y": 200, "width": 100, "height": 50}
  ],
  "lines": [
    {"id": "l", "handles": [[0, 0], [10, 10]]}
  ],
  "connections": [
    {"line": "l", "end": "head", "to": "a", "port": 0},
    {"line": "l", "end": "tail", "to": "b", "port": 3}
  ]
}`

func TestValidateAcceptsDemoScene(t *testing.T) {
	if err := Validate([]byte(demoScene)); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsBadDocuments(t *testing.T) {
	bad := []string{
		`{"elements": [{"id": "a"}]}`,                                        // missing size
		`{"elements": [{"id": "a", "width": -1, "height": 5}]}`,              // negative width
		`{"lines": [{"id": "l", "handles": [[0, 0]]}]}`,                      // one handle
		`{"connections": [{"line": "l", "end": "middle", "to": "a", "port": 0}]}`, // bad end
		`{"unknown": true}`, // additional property
	}
	for _, doc := range bad {
		if err := Validate([]byte(doc)); !errors.Is(err, ErrInvalidScene) {
			t.Fatalf("document %q: expected ErrInvalidScene, got %v", doc, err)
		}
	}
}

func TestLoadDecodes(t *testing.T) {
	s, err := Load([]byte(demoScene))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "demo" || len(s.Elements) != 2 || len(s.Lines) != 1 || len(s.Connections) != 2 {
		t.Fatalf("unexpected scene: %+v", s)
	}
}

func TestBuildConstructsAndConnects(t *testing.T) {
	s, err := Load([]byte(demoScene))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cv := canvas.New()
	items, err := Build(s, cv)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := cv.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(items) != 3 || len(cv.Items()) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	line := items["l"].(*item.Line)
	if cv.Connections().ConnectionFor(line.Head()) == nil ||
		cv.Connections().ConnectionFor(line.Tail()) == nil {
		t.Fatalf("line ends must be connected")
	}

	// Tail glued to b's left edge: common x equals b's translation.
	lx, ly := line.Tail().Pos().Pos()
	cx, _ := line.MatrixI2C().Apply(lx, ly)
	if math.Abs(cx-300) > 1e-9 {
		t.Fatalf("tail common x = %g, want 300", cx)
	}
}

func TestBuildRejectsUnknownReferences(t *testing.T) {
	s := &Scene{Connections: []ConnectionDef{{Line: "nope", End: "head", To: "a", Port: 0}}}
	if _, err := Build(s, canvas.New()); err == nil {
		t.Fatalf("unknown line reference must fail")
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	s := &Scene{Elements: []ElementDef{
		{ID: "a", Width: 10, Height: 10},
		{ID: "a", Width: 10, Height: 10},
	}}
	if _, err := Build(s, canvas.New()); err == nil {
		t.Fatalf("duplicate id must fail")
	}
}

func TestBuildParentNesting(t *testing.T) {
	doc := `{
	  "elements": [
	    {"id": "outer", "x": 10, "y": 10, "width": 100, "height": 100},
	    {"id": "inner", "x": 5, "y": 5, "width": 20, "height": 20, "parent": "outer"}
	  ]
	}`
	s, err := Load([]byte(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cv := canvas.New()
	items, err := Build(s, cv)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := cv.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	inner := items["inner"]
	if cv.Parent(inner) != items["outer"] {
		t.Fatalf("inner must be nested under outer")
	}
	if e, f := inner.MatrixI2C().E, inner.MatrixI2C().F; e != 15 || f != 15 {
		t.Fatalf("inner i2c translation = (%g, %g), want (15, 15)", e, f)
	}
}
