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
	"fmt"

	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// Handle is a movable point on an item, in item coordinates.
type Handle struct {
	pos         *solver.Position
	connectable bool
	movable     bool
	visible     bool

	bus *state.EventBus
}

// NewHandle creates a movable, visible handle at (x, y) with NORMAL strength.
func NewHandle(x, y float64) *Handle {
	return NewHandleWithStrength(x, y, solver.Normal)
}

// NewHandleWithStrength creates a handle whose position has the given strength.
func NewHandleWithStrength(x, y float64, strength solver.Strength) *Handle {
	return &Handle{
		pos:     solver.NewPositionWithStrength(x, y, strength),
		movable: true,
		visible: true,
	}
}

// Pos is the handle's position.
func (h *Handle) Pos() *solver.Position { return h.pos }

// SetPos assigns both position components.
func (h *Handle) SetPos(x, y float64) { h.pos.SetPos(x, y) }

// Connectable reports whether the handle can connect to a port.
func (h *Handle) Connectable() bool { return h.connectable }

func (h *Handle) SetConnectable(connectable bool) {
	if h.connectable == connectable {
		return
	}
	h.bus.Emit(state.Event{Op: state.OpHandleConnectable, Receiver: h, Args: []any{h.connectable, connectable}})
	h.connectable = connectable
}

// Movable reports whether the handle may be moved by the user.
func (h *Handle) Movable() bool { return h.movable }

func (h *Handle) SetMovable(movable bool) {
	if h.movable == movable {
		return
	}
	h.bus.Emit(state.Event{Op: state.OpHandleMovable, Receiver: h, Args: []any{h.movable, movable}})
	h.movable = movable
}

// Visible reports whether the handle is shown to the user.
func (h *Handle) Visible() bool { return h.visible }

func (h *Handle) SetVisible(visible bool) {
	if h.visible == visible {
		return
	}
	h.bus.Emit(state.Event{Op: state.OpHandleVisible, Receiver: h, Args: []any{h.visible, visible}})
	h.visible = visible
}

// attachBus wires the handle and its position variables to bus.
func (h *Handle) attachBus(bus *state.EventBus) {
	h.bus = bus
	h.pos.X.AttachBus(bus)
	h.pos.Y.AttachBus(bus)
}

func (h *Handle) String() string {
	x, y := h.pos.Pos()
	return fmt.Sprintf("<Handle (%g, %g)>", x, y)
}

func init() {
	state.RegisterApply(state.OpHandleConnectable, func(e state.Event) error {
		h, ok := e.Receiver.(*Handle)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		h.SetConnectable(e.Args[1].(bool))
		return nil
	})
	state.RegisterApply(state.OpHandleMovable, func(e state.Event) error {
		h, ok := e.Receiver.(*Handle)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		h.SetMovable(e.Args[1].(bool))
		return nil
	})
	state.RegisterApply(state.OpHandleVisible, func(e state.Event) error {
		h, ok := e.Receiver.(*Handle)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		h.SetVisible(e.Args[1].(bool))
		return nil
	})
}
