/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package solver keeps a set of constraints over variables true. Variables
// change; at some point the dirty constraints are solved again, weakest
// variable first. Projections make variables living in different coordinate
// spaces look like plain variables to the solver.
package solver

import (
	"fmt"

	"diagramkit/internal/state"
)

// Epsilon is the absolute tolerance for variable value comparison. Writes
// closer than this to the current value are not observed and do not dirty
// the solver.
const Epsilon = 1e-9

// Strength is an integer priority. In a constraint the weakest variables are
// the ones being changed.
type Strength int

// Canonical strength bands.
const (
	VeryWeak   Strength = 0
	Weak       Strength = 10
	Normal     Strength = 20
	Strong     Strength = 30
	VeryStrong Strength = 40
	Required   Strength = 100
)

// writeSerial is a process-wide monotone counter stamped on every material
// variable write. The solver breaks strength ties by preferring the least
// recently written operand (lowest serial).
var writeSerial uint64

// Var is what constraints operate on: either a plain *Variable or a
// projection that reads and writes through a coordinate transform.
type Var interface {
	Value() float64
	SetValue(float64)
	Strength() Strength
	// Serial is the write-serial of the most recent material write.
	Serial() uint64
	// Underlying returns the plain variable holding the actual state. For a
	// plain variable that is the variable itself.
	Underlying() *Variable
}

// Variable is a scalar value with a strength.
type Variable struct {
	value    float64
	strength Strength
	serial   uint64
	refs     int

	bus      *state.EventBus
	handlers []*varHandler
}

type varHandler struct {
	fn      func(v *Variable, old float64)
	removed bool
}

// NewVariable creates a variable with NORMAL strength.
func NewVariable(value float64) *Variable { return &Variable{value: value, strength: Normal} }

// NewVariableWithStrength creates a variable with the given strength.
func NewVariableWithStrength(value float64, strength Strength) *Variable {
	return &Variable{value: value, strength: strength}
}

func (v *Variable) Value() float64     { return v.value }
func (v *Variable) Strength() Strength { return v.strength }
func (v *Variable) Serial() uint64     { return v.serial }

func (v *Variable) Underlying() *Variable { return v }

// SetStrength changes the strength. It fails while the variable is attached
// to one or more registered constraints; detach (remove the constraints)
// first.
func (v *Variable) SetStrength(s Strength) error {
	if v.refs > 0 {
		return fmt.Errorf("solver: variable is attached to %d constraint(s)", v.refs)
	}
	v.strength = s
	return nil
}

// SetValue assigns a new value. The assignment is observable and dirties the
// variable only when it differs from the current value by more than Epsilon.
func (v *Variable) SetValue(value float64) {
	old := v.value
	if abs(old-value) <= Epsilon {
		return
	}
	v.bus.Emit(state.Event{Op: state.OpVariableSet, Receiver: v, Args: []any{old, value}})
	v.value = value
	writeSerial++
	v.serial = writeSerial
	for _, h := range v.handlers {
		if !h.removed {
			h.fn(v, old)
		}
	}
}

// AddHandler registers fn to run after each committed change. The returned
// function removes the registration.
func (v *Variable) AddHandler(fn func(v *Variable, old float64)) (cancel func()) {
	h := &varHandler{fn: fn}
	v.handlers = append(v.handlers, h)
	return func() { h.removed = true }
}

// AttachBus routes this variable's mutation events to bus. Nil detaches.
func (v *Variable) AttachBus(bus *state.EventBus) { v.bus = bus }

func (v *Variable) String() string {
	return fmt.Sprintf("Variable(%g, %d)", v.value, v.strength)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func init() {
	state.RegisterApply(state.OpVariableSet, func(e state.Event) error {
		v, ok := e.Receiver.(*Variable)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		nv, ok := e.Args[1].(float64)
		if !ok {
			return fmt.Errorf("bad %s args", e.Op)
		}
		v.SetValue(nv)
		return nil
	})
}
