/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geom provides 2D affine transforms and distance helpers for the
// diagram model. All values are float64.
package geom

import (
	"errors"
	"fmt"
	"math"

	"diagramkit/internal/state"
)

// ErrSingularMatrix is returned when a degenerate matrix cannot be inverted.
var ErrSingularMatrix = errors.New("geom: singular matrix")

// matrixEpsilon is used for matrix equality checks.
const matrixEpsilon = 1e-9

// Matrix is an affine 2D transform:
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
//
// mapping (x, y) to (A*x + C*y + E, B*x + D*y + F).
//
// Mutating operations emit an observable event to the attached EventBus
// before committing and notify change handlers afterwards.
type Matrix struct {
	A, B, C, D, E, F float64

	bus      *state.EventBus
	handlers []*matrixHandler
}

type matrixHandler struct {
	fn      func(m *Matrix)
	removed bool
}

// NewMatrix returns the identity matrix.
func NewMatrix() *Matrix { return &Matrix{A: 1, D: 1} }

// NewMatrixFrom returns a matrix with the given coefficients.
func NewMatrixFrom(a, b, c, d, e, f float64) *Matrix {
	return &Matrix{A: a, B: b, C: c, D: d, E: e, F: f}
}

// AttachBus routes this matrix's mutation events to bus. A nil bus detaches.
func (m *Matrix) AttachBus(bus *state.EventBus) { m.bus = bus }

// AddHandler registers fn to be called after every committed change. The
// returned function removes the registration.
func (m *Matrix) AddHandler(fn func(m *Matrix)) (cancel func()) {
	h := &matrixHandler{fn: fn}
	m.handlers = append(m.handlers, h)
	return func() { h.removed = true }
}

func (m *Matrix) notify() {
	for _, h := range m.handlers {
		if !h.removed {
			h.fn(m)
		}
	}
}

// Values returns the six coefficients.
func (m *Matrix) Values() (a, b, c, d, e, f float64) {
	return m.A, m.B, m.C, m.D, m.E, m.F
}

// Apply transforms the point (x, y).
func (m *Matrix) Apply(x, y float64) (float64, float64) {
	return m.A*x + m.C*y + m.E, m.B*x + m.D*y + m.F
}

// ApplyDistance transforms the distance vector (dx, dy), ignoring translation.
func (m *Matrix) ApplyDistance(dx, dy float64) (float64, float64) {
	return m.A*dx + m.C*dy, m.B*dx + m.D*dy
}

// Mul returns m×n without modifying either operand. The product applies n
// first, then m.
func (m *Matrix) Mul(n *Matrix) *Matrix {
	return &Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Multiply composes n into m so that n is applied before the previous m.
func (m *Matrix) Multiply(n *Matrix) {
	m.set(m.Mul(n))
}

// Translate composes a translation into m (applied in m's local space).
func (m *Matrix) Translate(tx, ty float64) {
	if tx == 0 && ty == 0 {
		return
	}
	m.bus.Emit(state.Event{Op: state.OpMatrixTranslate, Receiver: m, Args: []any{tx, ty}})
	m.E, m.F = m.Apply(tx, ty)
	m.notify()
}

// Scale composes a scale into m.
func (m *Matrix) Scale(sx, sy float64) {
	if sx == 1 && sy == 1 {
		return
	}
	m.bus.Emit(state.Event{Op: state.OpMatrixScale, Receiver: m, Args: []any{sx, sy}})
	m.apply(&Matrix{A: sx, D: sy})
	m.notify()
}

// Rotate composes a rotation (radians) into m.
func (m *Matrix) Rotate(radians float64) {
	if radians == 0 {
		return
	}
	m.bus.Emit(state.Event{Op: state.OpMatrixRotate, Receiver: m, Args: []any{radians}})
	c, s := math.Cos(radians), math.Sin(radians)
	m.apply(&Matrix{A: c, B: s, C: -s, D: c})
	m.notify()
}

// apply sets m = m.Mul(n) without emitting; callers emit their own event.
func (m *Matrix) apply(n *Matrix) {
	p := m.Mul(n)
	m.A, m.B, m.C, m.D, m.E, m.F = p.A, p.B, p.C, p.D, p.E, p.F
}

// Set assigns new coefficients to m. No event or notification is produced
// when the values are unchanged.
func (m *Matrix) Set(a, b, c, d, e, f float64) {
	m.set(&Matrix{A: a, B: b, C: c, D: d, E: e, F: f})
}

func (m *Matrix) set(n *Matrix) {
	if m.equal(n) {
		return
	}
	m.bus.Emit(state.Event{
		Op:       state.OpMatrixSet,
		Receiver: m,
		Args:     []any{[6]float64{m.A, m.B, m.C, m.D, m.E, m.F}, [6]float64{n.A, n.B, n.C, n.D, n.E, n.F}},
	})
	m.A, m.B, m.C, m.D, m.E, m.F = n.A, n.B, n.C, n.D, n.E, n.F
	m.notify()
}

// Inverse returns the inverse matrix, or ErrSingularMatrix when the
// determinant vanishes.
func (m *Matrix) Inverse() (*Matrix, error) {
	det := m.A*m.D - m.B*m.C
	if math.Abs(det) < 1e-300 {
		return nil, ErrSingularMatrix
	}
	inv := &Matrix{
		A: m.D / det,
		B: -m.B / det,
		C: -m.C / det,
		D: m.A / det,
	}
	inv.E = -(inv.A*m.E + inv.C*m.F)
	inv.F = -(inv.B*m.E + inv.D*m.F)
	return inv, nil
}

// Invert replaces m with its inverse in place.
func (m *Matrix) Invert() error {
	inv, err := m.Inverse()
	if err != nil {
		return err
	}
	m.bus.Emit(state.Event{Op: state.OpMatrixInvert, Receiver: m})
	m.A, m.B, m.C, m.D, m.E, m.F = inv.A, inv.B, inv.C, inv.D, inv.E, inv.F
	m.notify()
	return nil
}

// Equal reports coefficient-wise equality within epsilon.
func (m *Matrix) Equal(n *Matrix) bool { return m.equal(n) }

func (m *Matrix) equal(n *Matrix) bool {
	return math.Abs(m.A-n.A) < matrixEpsilon &&
		math.Abs(m.B-n.B) < matrixEpsilon &&
		math.Abs(m.C-n.C) < matrixEpsilon &&
		math.Abs(m.D-n.D) < matrixEpsilon &&
		math.Abs(m.E-n.E) < matrixEpsilon &&
		math.Abs(m.F-n.F) < matrixEpsilon
}

func (m *Matrix) String() string {
	return fmt.Sprintf("Matrix(%g, %g, %g, %g, %g, %g)", m.A, m.B, m.C, m.D, m.E, m.F)
}

func init() {
	state.RegisterApply(state.OpMatrixTranslate, func(e state.Event) error {
		m, ok := e.Receiver.(*Matrix)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		m.Translate(e.Args[0].(float64), e.Args[1].(float64))
		return nil
	})
	state.RegisterApply(state.OpMatrixScale, func(e state.Event) error {
		m, ok := e.Receiver.(*Matrix)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		m.Scale(e.Args[0].(float64), e.Args[1].(float64))
		return nil
	})
	state.RegisterApply(state.OpMatrixRotate, func(e state.Event) error {
		m, ok := e.Receiver.(*Matrix)
		if !ok || len(e.Args) != 1 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		m.Rotate(e.Args[0].(float64))
		return nil
	})
	state.RegisterApply(state.OpMatrixInvert, func(e state.Event) error {
		m, ok := e.Receiver.(*Matrix)
		if !ok {
			return fmt.Errorf("bad %s event", e.Op)
		}
		return m.Invert()
	})
	state.RegisterApply(state.OpMatrixSet, func(e state.Event) error {
		m, ok := e.Receiver.(*Matrix)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		v, ok := e.Args[1].([6]float64)
		if !ok {
			return fmt.Errorf("bad %s args", e.Op)
		}
		m.Set(v[0], v[1], v[2], v[3], v[4], v[5])
		return nil
	})
}
