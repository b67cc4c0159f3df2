/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package scene builds canvases from a declarative JSON description. The
// description is validated against a JSON schema before anything is
// constructed. This is a construction surface only; the live model is never
// written back.
package scene

import (
	"encoding/json"
	"fmt"

	"diagramkit/internal/canvas"
	"diagramkit/internal/item"
)

// Scene is the root of a scene description.
type Scene struct {
	Name        string          `json:"name,omitempty"`
	Elements    []ElementDef    `json:"elements,omitempty"`
	Lines       []LineDef       `json:"lines,omitempty"`
	Connections []ConnectionDef `json:"connections,omitempty"`
}

// ElementDef describes one rectangular element.
type ElementDef struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	MinWidth  float64 `json:"minWidth,omitempty"`
	MinHeight float64 `json:"minHeight,omitempty"`
	Parent    string  `json:"parent,omitempty"`
}

// LineDef describes one polyline.
type LineDef struct {
	ID         string       `json:"id"`
	Handles    [][2]float64 `json:"handles"`
	Orthogonal bool         `json:"orthogonal,omitempty"`
	Horizontal bool         `json:"horizontal,omitempty"`
}

// ConnectionDef pins one end of a line to a port of another item.
// End is "head" or "tail"; Port indexes the target item's port list.
type ConnectionDef struct {
	Line string `json:"line"`
	End  string `json:"end"`
	To   string `json:"to"`
	Port int    `json:"port"`
}

// Load validates data against the scene schema and decodes it.
func Load(data []byte) (*Scene, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	return &s, nil
}

// Build constructs the described items on cv and returns them by id. The
// caller runs cv.Update to settle constraints.
func Build(s *Scene, cv *canvas.Canvas) (map[string]item.Item, error) {
	items := map[string]item.Item{}
	conn := cv.Connections()

	for _, def := range s.Elements {
		if _, dup := items[def.ID]; dup {
			return nil, fmt.Errorf("scene: duplicate id %q", def.ID)
		}
		e := item.NewElement(conn, def.Width, def.Height)
		if def.MinWidth > 0 {
			e.SetMinWidth(def.MinWidth)
		}
		if def.MinHeight > 0 {
			e.SetMinHeight(def.MinHeight)
		}
		var parent item.Item
		if def.Parent != "" {
			p, ok := items[def.Parent]
			if !ok {
				return nil, fmt.Errorf("scene: element %q: unknown parent %q", def.ID, def.Parent)
			}
			parent = p
		}
		if err := cv.AddAt(e, parent, -1); err != nil {
			return nil, err
		}
		e.Matrix().Translate(def.X, def.Y)
		items[def.ID] = e
	}

	for _, def := range s.Lines {
		if _, dup := items[def.ID]; dup {
			return nil, fmt.Errorf("scene: duplicate id %q", def.ID)
		}
		l := item.NewLine(conn)
		if len(def.Handles) >= 2 {
			l.Head().SetPos(def.Handles[0][0], def.Handles[0][1])
			l.Tail().SetPos(def.Handles[len(def.Handles)-1][0], def.Handles[len(def.Handles)-1][1])
			for i := 1; i < len(def.Handles)-1; i++ {
				h := item.NewHandle(def.Handles[i][0], def.Handles[i][1])
				l.InsertHandle(i, h)
			}
		}
		if err := cv.Add(l); err != nil {
			return nil, err
		}
		if def.Horizontal {
			l.SetHorizontal(true)
		}
		if def.Orthogonal {
			l.SetOrthogonal(true)
		}
		items[def.ID] = l
	}

	for _, def := range s.Connections {
		li, ok := items[def.Line].(*item.Line)
		if !ok {
			return nil, fmt.Errorf("scene: connection refers to unknown line %q", def.Line)
		}
		target, ok := items[def.To]
		if !ok {
			return nil, fmt.Errorf("scene: connection refers to unknown item %q", def.To)
		}
		ports := target.Ports()
		if def.Port < 0 || def.Port >= len(ports) {
			return nil, fmt.Errorf("scene: item %q has no port %d", def.To, def.Port)
		}
		var h *item.Handle
		switch def.End {
		case "head":
			h = li.Head()
		case "tail":
			h = li.Tail()
		default:
			return nil, fmt.Errorf("scene: connection end must be head or tail, got %q", def.End)
		}
		port := ports[def.Port]
		con := port.ConstraintFor(li, h, target)
		if err := conn.Connect(li, h, target, port, con, nil); err != nil {
			return nil, err
		}
	}
	return items, nil
}
