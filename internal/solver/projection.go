/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package solver

import (
	"diagramkit/internal/geom"
	applog "diagramkit/internal/log"
)

// MatrixProjection exposes an item-local Position as a pair of Vars in the
// common (canvas) coordinate space. Reads transform the local position by the
// matrix; writes transform common coordinates back through the inverse and
// assign the local variables.
//
// External values are recomputed on every read; nothing is cached, so the
// projection always reflects the current matrix.
//
// Writes against a singular matrix are dropped and reported (the local
// position stays as-is).
type MatrixProjection struct {
	local  *Position
	matrix *geom.Matrix

	x, y *projVar

	// DropHandler, if set, receives the error when a write is dropped due to
	// a singular matrix. Defaults to logging.
	DropHandler func(error)
}

// NewMatrixProjection wraps local so it appears in the coordinate space
// defined by matrix (typically an item's item-to-canvas matrix).
func NewMatrixProjection(local *Position, matrix *geom.Matrix) *MatrixProjection {
	p := &MatrixProjection{local: local, matrix: matrix}
	p.x = &projVar{p: p, axis: 0}
	p.y = &projVar{p: p, axis: 1}
	return p
}

// X is the common-space x component.
func (p *MatrixProjection) X() Var { return p.x }

// Y is the common-space y component.
func (p *MatrixProjection) Y() Var { return p.y }

// Pos returns the projected (common-space) coordinates.
func (p *MatrixProjection) Pos() (x, y float64) {
	return p.matrix.Apply(p.local.X.Value(), p.local.Y.Value())
}

// SetPos writes common-space coordinates through the matrix inverse into the
// local position.
func (p *MatrixProjection) SetPos(x, y float64) {
	inv, err := p.matrix.Inverse()
	if err != nil {
		p.drop(err)
		return
	}
	lx, ly := inv.Apply(x, y)
	p.local.X.SetValue(lx)
	p.local.Y.SetValue(ly)
}

// Local returns the wrapped position.
func (p *MatrixProjection) Local() *Position { return p.local }

// Matrix returns the transform the projection reads and writes through.
func (p *MatrixProjection) Matrix() *geom.Matrix { return p.matrix }

func (p *MatrixProjection) drop(err error) {
	if p.DropHandler != nil {
		p.DropHandler(err)
		return
	}
	applog.WithComponent("solver").Warn("projection write dropped", "err", err)
}

// projVar adapts one axis of a MatrixProjection to the Var interface. The
// solver treats it exactly like a variable; strength, serial and dirtiness
// forward to the underlying local variable.
type projVar struct {
	p    *MatrixProjection
	axis int
}

func (v *projVar) Value() float64 {
	cx, cy := v.p.Pos()
	if v.axis == 0 {
		return cx
	}
	return cy
}

func (v *projVar) SetValue(value float64) {
	cx, cy := v.p.Pos()
	if v.axis == 0 {
		cx = value
	} else {
		cy = value
	}
	v.p.SetPos(cx, cy)
}

func (v *projVar) Strength() Strength { return v.Underlying().Strength() }
func (v *projVar) Serial() uint64     { return v.Underlying().Serial() }

func (v *projVar) Underlying() *Variable {
	if v.axis == 0 {
		return v.p.local.X
	}
	return v.p.local.Y
}
