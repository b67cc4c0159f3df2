/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package item

import (
	"diagramkit/internal/geom"
	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// Corner handle indices of an Element.
const (
	NW = iota
	NE
	SE
	SW
)

// Element is a rectangular item with four corner handles and four edge
// ports:
//
//	NW +---+ NE
//	   |   |
//	SW +---+ SE
//
// Internal constraints keep the corners rectangular and enforce the minimal
// size as a lower bound the solver may not shrink below.
type Element struct {
	Base
	handles []*Handle
	ports   []Port

	minWidth  *solver.Variable
	minHeight *solver.Variable
}

// NewElement creates an element of the given nominal size and registers its
// internal constraints with conn.
func NewElement(conn Connector, width, height float64) *Element {
	e := &Element{Base: newBase()}

	for i := 0; i < 4; i++ {
		e.handles = append(e.handles, NewHandle(0, 0))
	}
	hNW := e.handles[NW]
	hNE := e.handles[NE]
	hSE := e.handles[SE]
	hSW := e.handles[SW]

	// The element edges are its default ports.
	e.ports = []Port{
		NewLinePort(hNW.Pos(), hNE.Pos()),
		NewLinePort(hNE.Pos(), hSE.Pos()),
		NewLinePort(hSE.Pos(), hSW.Pos()),
		NewLinePort(hSW.Pos(), hNW.Pos()),
	}

	// The size bounds are STRONG against the NORMAL corner handles, so the
	// solver pushes handles back instead of shrinking the bounds.
	e.minWidth = solver.NewVariableWithStrength(10, solver.Strong)
	e.minHeight = solver.NewVariableWithStrength(10, solver.Strong)

	add := func(c solver.Constraint) { conn.AddConstraint(e, c) }
	add(solver.NewEqual(hNW.Pos().Y, hNE.Pos().Y))
	add(solver.NewEqual(hSW.Pos().Y, hSE.Pos().Y))
	add(solver.NewEqual(hNW.Pos().X, hSW.Pos().X))
	add(solver.NewEqual(hNE.Pos().X, hSE.Pos().X))
	add(solver.NewLessThanDelta(hNW.Pos().X, hSE.Pos().X, e.minWidth))
	add(solver.NewLessThanDelta(hNW.Pos().Y, hSE.Pos().Y, e.minHeight))

	e.SetWidth(width)
	e.SetHeight(height)
	return e
}

// Width is the distance between the left and right handles.
func (e *Element) Width() float64 {
	h := e.handles
	return h[SE].Pos().X.Value() - h[NW].Pos().X.Value()
}

// SetWidth moves the right-edge handles.
func (e *Element) SetWidth(width float64) {
	h := e.handles
	x := h[NW].Pos().X.Value() + width
	h[SE].Pos().X.SetValue(x)
	h[NE].Pos().X.SetValue(x)
}

// Height is the distance between the top and bottom handles.
func (e *Element) Height() float64 {
	h := e.handles
	return h[SE].Pos().Y.Value() - h[NW].Pos().Y.Value()
}

// SetHeight moves the bottom-edge handles.
func (e *Element) SetHeight(height float64) {
	h := e.handles
	y := h[NW].Pos().Y.Value() + height
	h[SE].Pos().Y.SetValue(y)
	h[SW].Pos().Y.SetValue(y)
}

// MinWidth is the lower width bound.
func (e *Element) MinWidth() float64 { return e.minWidth.Value() }

func (e *Element) SetMinWidth(w float64) { e.minWidth.SetValue(w) }

// MinHeight is the lower height bound.
func (e *Element) MinHeight() float64 { return e.minHeight.Value() }

func (e *Element) SetMinHeight(h float64) { e.minHeight.SetValue(h) }

func (e *Element) Handles() []*Handle { return e.handles }

func (e *Element) Ports() []Port { return e.ports }

// Point returns the distance from an item-space point to the element border.
func (e *Element) Point(x, y float64) float64 {
	x0, y0 := e.handles[NW].Pos().Pos()
	x1, y1 := e.handles[SE].Pos().Pos()
	return geom.DistanceRectangleBorderPoint(x0, y0, x1-x0, y1-y0, x, y)
}

func (e *Element) Normalize() bool { return normalizeHandles(e.matrix, e.handles) }

func (e *Element) AttachBus(bus *state.EventBus) {
	e.matrix.AttachBus(bus)
	for _, h := range e.handles {
		h.attachBus(bus)
	}
	e.minWidth.AttachBus(bus)
	e.minHeight.AttachBus(bus)
}
