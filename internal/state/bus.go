/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package state is the central point where the model classes report their
// state changes. Mutators emit an Event to the owning EventBus *before* the
// change is committed, so observers can capture prior state.
//
// A second layer inverts events: for every event delivered to observers, the
// reverter produces the inverse event and delivers it to subscribers. Applying
// recorded inverse events in reverse order restores the previous state; the
// Recorder below packages that into undo/redo transactions.
package state

import (
	"fmt"

	applog "diagramkit/internal/log"
)

// Operation names. Each op's applier is registered by the package that owns
// the receiver type. Inverse builders for the variable, matrix, handle and
// line ops are registered in this package; the canvas and connections ops
// register theirs in the canvas package.
const (
	OpVariableSet = "variable.set-value"

	OpMatrixTranslate = "matrix.translate"
	OpMatrixScale     = "matrix.scale"
	OpMatrixRotate    = "matrix.rotate"
	OpMatrixInvert    = "matrix.invert"
	OpMatrixSet       = "matrix.set"

	OpHandleConnectable = "handle.set-connectable"
	OpHandleMovable     = "handle.set-movable"
	OpHandleVisible     = "handle.set-visible"

	OpLineOrthogonal = "line.set-orthogonal"
	OpLineHorizontal = "line.set-horizontal"

	OpCanvasAdd      = "canvas.add"
	OpCanvasRemove   = "canvas.remove"
	OpCanvasReparent = "canvas.reparent"

	OpConnect    = "connections.connect"
	OpDisconnect = "connections.disconnect"
)

// Event describes one mutating operation: what is about to happen, to whom,
// and with which arguments. Args carry enough prior state for the inverse to
// be derived (e.g. old value before an assignment).
type Event struct {
	Op       string
	Receiver any
	Args     []any
}

// Observer receives events.
type Observer func(Event)

// EventBus owns the observer and subscriber sets. One bus is owned by each
// Canvas; its lifetime is the canvas's lifetime.
type EventBus struct {
	observers   []*registration
	subscribers []*registration
}

type registration struct {
	fn      Observer
	removed bool
}

func NewEventBus() *EventBus { return &EventBus{} }

// Observe registers fn to receive raw pre-commit events. The returned
// function removes the registration.
func (b *EventBus) Observe(fn Observer) (cancel func()) {
	r := &registration{fn: fn}
	b.observers = append(b.observers, r)
	return func() { r.removed = true }
}

// Subscribe registers fn to receive reverter-produced inverse events.
func (b *EventBus) Subscribe(fn Observer) (cancel func()) {
	r := &registration{fn: fn}
	b.subscribers = append(b.subscribers, r)
	return func() { r.removed = true }
}

// Emit delivers e to all observers and, if an inverse is known, delivers the
// inverse event to all subscribers. A nil bus is valid and does nothing, so
// model objects not (yet) owned by a canvas can emit unconditionally.
//
// A panicking callback is caught and logged; other callbacks still run.
func (b *EventBus) Emit(e Event) {
	if b == nil {
		return
	}
	deliver(b.observers, e)
	if len(b.subscribers) == 0 {
		return
	}
	if inv, ok := Inverse(e); ok {
		deliver(b.subscribers, inv)
	}
}

func deliver(regs []*registration, e Event) {
	for _, r := range regs {
		if r.removed {
			continue
		}
		func() {
			defer func() {
				if p := recover(); p != nil {
					applog.WithComponent("state").Error("observer panic", "op", e.Op, "panic", fmt.Sprint(p))
				}
			}()
			r.fn(e)
		}()
	}
}

// inverters maps an operation to a function building its inverse event.
var inverters = map[string]func(Event) (Event, bool){}

// appliers maps an operation to a function executing it on the receiver.
var appliers = map[string]func(Event) error{}

// RegisterInverse installs the inverse builder for op. Called from init
// functions, in this package and in the canvas package.
func RegisterInverse(op string, fn func(Event) (Event, bool)) { inverters[op] = fn }

// RegisterApply installs the applier for op.
func RegisterApply(op string, fn func(Event) error) { appliers[op] = fn }

// Inverse returns the inverse of e, or ok=false when no inverse is known.
func Inverse(e Event) (Event, bool) {
	fn := inverters[e.Op]
	if fn == nil {
		return Event{}, false
	}
	return fn(e)
}

// Apply executes the operation described by e against its receiver.
func Apply(e Event) error {
	fn := appliers[e.Op]
	if fn == nil {
		return fmt.Errorf("state: no applier registered for op %q", e.Op)
	}
	return fn(e)
}

// swapArgs is the inverse builder for plain old/new assignment events.
func swapArgs(e Event) (Event, bool) {
	if len(e.Args) != 2 {
		return Event{}, false
	}
	return Event{Op: e.Op, Receiver: e.Receiver, Args: []any{e.Args[1], e.Args[0]}}, true
}

func init() {
	// Assignment-shaped ops invert by swapping old and new.
	for _, op := range []string{
		OpVariableSet,
		OpMatrixSet,
		OpHandleConnectable,
		OpHandleMovable,
		OpHandleVisible,
		OpLineOrthogonal,
		OpLineHorizontal,
	} {
		RegisterInverse(op, swapArgs)
	}

	RegisterInverse(OpMatrixTranslate, func(e Event) (Event, bool) {
		if len(e.Args) != 2 {
			return Event{}, false
		}
		tx, ok1 := e.Args[0].(float64)
		ty, ok2 := e.Args[1].(float64)
		if !ok1 || !ok2 {
			return Event{}, false
		}
		return Event{Op: OpMatrixTranslate, Receiver: e.Receiver, Args: []any{-tx, -ty}}, true
	})
	RegisterInverse(OpMatrixScale, func(e Event) (Event, bool) {
		if len(e.Args) != 2 {
			return Event{}, false
		}
		sx, ok1 := e.Args[0].(float64)
		sy, ok2 := e.Args[1].(float64)
		if !ok1 || !ok2 || sx == 0 || sy == 0 {
			return Event{}, false
		}
		return Event{Op: OpMatrixScale, Receiver: e.Receiver, Args: []any{1 / sx, 1 / sy}}, true
	})
	RegisterInverse(OpMatrixRotate, func(e Event) (Event, bool) {
		if len(e.Args) != 1 {
			return Event{}, false
		}
		r, ok := e.Args[0].(float64)
		if !ok {
			return Event{}, false
		}
		return Event{Op: OpMatrixRotate, Receiver: e.Receiver, Args: []any{-r}}, true
	})
	RegisterInverse(OpMatrixInvert, func(e Event) (Event, bool) {
		return Event{Op: OpMatrixInvert, Receiver: e.Receiver}, true
	})
}
