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
	"errors"
	"fmt"

	"diagramkit/internal/geom"
)

// ErrNonConvergent is reported when the Equation constraint fails to bracket
// or converge on a root. The constraint stays dirty and joins the
// unresolvable set of the current Solve pass.
var ErrNonConvergent = errors.New("solver: equation did not converge")

// Constraint is a relation over a fixed, ordered set of Vars. SolveFor
// adjusts target (and only target, except where the constraint is defined
// over positions) so the relation holds given the current values of the
// other operands. Constraints hold no state across resolutions.
type Constraint interface {
	Operands() []Var
	SolveFor(target Var) error
}

// update writes value to v only when the change is material.
func update(v Var, value float64) {
	if abs(v.Value()-value) > Epsilon {
		v.SetValue(value)
	}
}

// Equal keeps a + delta = b.
type Equal struct {
	A, B  Var
	Delta float64
}

// NewEqual creates an equality between two variables.
func NewEqual(a, b Var) *Equal { return &Equal{A: a, B: b} }

func (c *Equal) Operands() []Var { return []Var{c.A, c.B} }

func (c *Equal) SolveFor(target Var) error {
	switch target {
	case c.A:
		update(c.A, c.B.Value()-c.Delta)
	case c.B:
		update(c.B, c.A.Value()+c.Delta)
	default:
		return fmt.Errorf("solver: %v is not an operand", target)
	}
	return nil
}

// LessThan keeps smaller + delta <= bigger, with Delta an optional variable
// holding the minimal gap (nil means 0). Nothing is written while the
// relation already holds; at exact equality no write happens either.
type LessThan struct {
	Smaller, Bigger Var
	Delta           Var
}

func NewLessThan(smaller, bigger Var) *LessThan {
	return &LessThan{Smaller: smaller, Bigger: bigger}
}

// NewLessThanDelta keeps smaller + delta <= bigger.
func NewLessThanDelta(smaller, bigger, delta Var) *LessThan {
	return &LessThan{Smaller: smaller, Bigger: bigger, Delta: delta}
}

func (c *LessThan) Operands() []Var {
	if c.Delta == nil {
		return []Var{c.Smaller, c.Bigger}
	}
	return []Var{c.Smaller, c.Bigger, c.Delta}
}

func (c *LessThan) SolveFor(target Var) error {
	d := 0.0
	if c.Delta != nil {
		d = c.Delta.Value()
	}
	if c.Smaller.Value() <= c.Bigger.Value()-d {
		return nil
	}
	switch target {
	case c.Smaller:
		update(c.Smaller, c.Bigger.Value()-d)
	case c.Bigger:
		update(c.Bigger, c.Smaller.Value()+d)
	case c.Delta:
		update(c.Delta, c.Bigger.Value()-c.Smaller.Value())
	default:
		return fmt.Errorf("solver: %v is not an operand", target)
	}
	return nil
}

// Center keeps center = (a + b) / 2.
type Center struct {
	A, B, Mid Var
}

func NewCenter(a, b, mid Var) *Center { return &Center{A: a, B: b, Mid: mid} }

func (c *Center) Operands() []Var { return []Var{c.A, c.B, c.Mid} }

func (c *Center) SolveFor(target Var) error {
	switch target {
	case c.Mid:
		update(c.Mid, (c.A.Value()+c.B.Value())/2)
	case c.A:
		update(c.A, 2*c.Mid.Value()-c.B.Value())
	case c.B:
		update(c.B, 2*c.Mid.Value()-c.A.Value())
	default:
		return fmt.Errorf("solver: %v is not an operand", target)
	}
	return nil
}

// Balance keeps v = a + ratio*(b - a) for a fixed ratio in [0, 1].
type Balance struct {
	A, B, V Var
	Ratio   float64
}

// NewBalance derives the ratio from the operands' current values.
func NewBalance(a, b, v Var) *Balance {
	c := &Balance{A: a, B: b, V: v}
	c.UpdateRatio()
	return c
}

// UpdateRatio recomputes the ratio from the current values.
func (c *Balance) UpdateRatio() {
	w := c.B.Value() - c.A.Value()
	if w != 0 {
		c.Ratio = (c.V.Value() - c.A.Value()) / w
	} else {
		c.Ratio = 0
	}
}

func (c *Balance) Operands() []Var { return []Var{c.A, c.B, c.V} }

func (c *Balance) SolveFor(target Var) error {
	a, b := c.A.Value(), c.B.Value()
	switch target {
	case c.V:
		update(c.V, a+(b-a)*c.Ratio)
	case c.A:
		if c.Ratio == 1 {
			return nil // a is free when v is pinned to b
		}
		update(c.A, (c.V.Value()-b*c.Ratio)/(1-c.Ratio))
	case c.B:
		if c.Ratio == 0 {
			return nil
		}
		update(c.B, a+(c.V.Value()-a)/c.Ratio)
	default:
		return fmt.Errorf("solver: %v is not an operand", target)
	}
	return nil
}

// Equation solver tuning. The bracket half-width starts at equationInitialH,
// doubles at most equationMaxDoublings times looking for a sign change, then
// bisection runs until the interval shrinks below equationTolerance or
// equationMaxIterations is hit.
const (
	equationInitialH      = 1.0
	equationMaxDoublings  = 32
	equationTolerance     = 1e-10
	equationMaxIterations = 100
)

// Equation keeps f(vars...) = 0 by numerically solving for the target with a
// bracketed bisection root finder.
type Equation struct {
	F    func(vals []float64) float64
	Vars []Var
}

func NewEquation(f func(vals []float64) float64, vars ...Var) *Equation {
	return &Equation{F: f, Vars: vars}
}

func (c *Equation) Operands() []Var { return c.Vars }

func (c *Equation) SolveFor(target Var) error {
	idx := -1
	vals := make([]float64, len(c.Vars))
	for i, v := range c.Vars {
		vals[i] = v.Value()
		if v == target {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("solver: %v is not an operand", target)
	}

	f := func(x float64) float64 {
		vals[idx] = x
		return c.F(vals)
	}

	x0 := target.Value()
	f0 := f(x0)
	if abs(f0) <= equationTolerance {
		return nil
	}

	// Expand the bracket around the current value until the sign changes.
	h := equationInitialH
	lo, hi := x0, x0
	flo, fhi := f0, f0
	bracketed := false
	for i := 0; i < equationMaxDoublings; i++ {
		lo, hi = x0-h, x0+h
		flo, fhi = f(lo), f(hi)
		if flo == 0 {
			update(target, lo)
			return nil
		}
		if fhi == 0 {
			update(target, hi)
			return nil
		}
		if flo*fhi < 0 {
			bracketed = true
			break
		}
		// Either half-bracket may already straddle the root.
		if flo*f0 < 0 {
			hi, fhi = x0, f0
			bracketed = true
			break
		}
		if f0*fhi < 0 {
			lo, flo = x0, f0
			bracketed = true
			break
		}
		h *= 2
	}
	if !bracketed {
		return ErrNonConvergent
	}

	for i := 0; i < equationMaxIterations && hi-lo > equationTolerance; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if fm == 0 {
			lo, hi = mid, mid
			break
		}
		if flo*fm < 0 {
			hi, fhi = mid, fm
		} else {
			lo, flo = mid, fm
		}
	}
	update(target, (lo+hi)/2)
	return nil
}

// Line keeps a point on the segment between two points: the point is moved
// to the foot of its perpendicular on the segment, clamped parametrically to
// [0, 1]. Operands are the segment ends followed by the point; solving
// writes the point's both components.
type Line struct {
	SX, SY, EX, EY Var
	PX, PY         Var
}

// NewLine builds the constraint from two segment-end projections and the
// point to keep on the segment.
func NewLine(sx, sy, ex, ey, px, py Var) *Line {
	return &Line{SX: sx, SY: sy, EX: ex, EY: ey, PX: px, PY: py}
}

func (c *Line) Operands() []Var {
	return []Var{c.SX, c.SY, c.EX, c.EY, c.PX, c.PY}
}

func (c *Line) SolveFor(target Var) error {
	_, fx, fy := geom.DistanceLinePoint(
		c.SX.Value(), c.SY.Value(),
		c.EX.Value(), c.EY.Value(),
		c.PX.Value(), c.PY.Value(),
	)
	update(c.PX, fx)
	update(c.PY, fy)
	return nil
}

// PositionEqual keeps point at origin: both components coincide.
type PositionEqual struct {
	OX, OY Var
	PX, PY Var
}

func NewPositionEqual(ox, oy, px, py Var) *PositionEqual {
	return &PositionEqual{OX: ox, OY: oy, PX: px, PY: py}
}

func (c *PositionEqual) Operands() []Var { return []Var{c.OX, c.OY, c.PX, c.PY} }

func (c *PositionEqual) SolveFor(target Var) error {
	update(c.PX, c.OX.Value())
	update(c.PY, c.OY.Value())
	return nil
}
