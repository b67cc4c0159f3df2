/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"errors"
	"fmt"

	"diagramkit/internal/item"
	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// ErrConnectionExists is returned by Connect for a handle that is already
// connected. The call has no side effect; disconnect first.
var ErrConnectionExists = errors.New("canvas: handle is already connected")

// ErrNoConnection is returned when no record exists for the given key.
var ErrNoConnection = errors.New("canvas: no such connection")

// Connection records that a handle of one item is pinned to a port of
// another item by a constraint. Records with a nil Handle carry an item's
// internal constraints.
type Connection struct {
	Item       item.Item
	Handle     *item.Handle
	Connected  item.Item
	Port       item.Port
	Constraint solver.Constraint
	Callback   func()
}

// Connections manages connection records and their constraints. At most one
// record exists per (item, handle).
type Connections struct {
	solver  *solver.Solver
	bus     *state.EventBus
	records []*Connection
}

func newConnections(s *solver.Solver, bus *state.EventBus) *Connections {
	return &Connections{solver: s, bus: bus}
}

// Solver returns the solver used by this registry.
func (c *Connections) Solver() *solver.Solver { return c.solver }

// AddConstraint registers an item-internal constraint.
func (c *Connections) AddConstraint(owner item.Item, con solver.Constraint) solver.Constraint {
	c.solver.AddConstraint(con)
	c.records = append(c.records, &Connection{Item: owner, Constraint: con})
	return con
}

// RemoveConstraint removes an item-internal constraint.
func (c *Connections) RemoveConstraint(owner item.Item, con solver.Constraint) error {
	for i, r := range c.records {
		if r.Item == owner && r.Handle == nil && r.Constraint == con {
			c.records = append(c.records[:i], c.records[i+1:]...)
			return c.solver.RemoveConstraint(con)
		}
	}
	return fmt.Errorf("%w: constraint of item %v", ErrNoConnection, owner.ID())
}

// Connect pins handle (of it) to port (of connected) with the given
// constraint. The constraint is added to the solver; callback is invoked
// exactly once when the connection is broken.
func (c *Connections) Connect(it item.Item, handle *item.Handle, connected item.Item, port item.Port, con solver.Constraint, callback func()) error {
	if c.ConnectionFor(handle) != nil {
		return fmt.Errorf("%w: handle %v of item %v", ErrConnectionExists, handle, it.ID())
	}
	c.bus.Emit(state.Event{
		Op:       state.OpConnect,
		Receiver: c,
		Args:     []any{it, handle, connected, port, con, callback},
	})
	c.records = append(c.records, &Connection{
		Item: it, Handle: handle, Connected: connected,
		Port: port, Constraint: con, Callback: callback,
	})
	if con != nil {
		c.solver.AddConstraint(con)
	}
	return nil
}

// Disconnect breaks the connection of (it, handle). With a nil handle all of
// the item's handle connections are broken.
func (c *Connections) Disconnect(it item.Item, handle *item.Handle) error {
	found := false
	for _, r := range c.matching(func(r *Connection) bool {
		return r.Item == it && r.Handle != nil && (handle == nil || r.Handle == handle)
	}) {
		c.disconnect(r)
		found = true
	}
	if !found {
		return fmt.Errorf("%w: item %v", ErrNoConnection, it.ID())
	}
	return nil
}

func (c *Connections) disconnect(r *Connection) {
	c.bus.Emit(state.Event{
		Op:       state.OpDisconnect,
		Receiver: c,
		Args:     []any{r.Item, r.Handle, r.Connected, r.Port, r.Constraint, r.Callback},
	})
	if r.Constraint != nil {
		_ = c.solver.RemoveConstraint(r.Constraint)
	}
	if r.Callback != nil {
		r.Callback()
	}
	for i, rr := range c.records {
		if rr == r {
			c.records = append(c.records[:i], c.records[i+1:]...)
			break
		}
	}
}

// RemoveConnectionsTo breaks every record where it appears as item or as
// connected item, internal constraints included.
func (c *Connections) RemoveConnectionsTo(it item.Item) {
	for _, r := range c.matching(func(r *Connection) bool {
		return r.Item == it || r.Connected == it
	}) {
		if r.Handle == nil {
			// Internal constraint record; no callback, no event.
			if r.Constraint != nil {
				_ = c.solver.RemoveConstraint(r.Constraint)
			}
			for i, rr := range c.records {
				if rr == r {
					c.records = append(c.records[:i], c.records[i+1:]...)
					break
				}
			}
			continue
		}
		c.disconnect(r)
	}
}

// Reconnect swaps the constraint of an existing connection, keeping port and
// callback.
func (c *Connections) Reconnect(it item.Item, handle *item.Handle, con solver.Constraint) error {
	r := c.ConnectionFor(handle)
	if r == nil || r.Item != it {
		return fmt.Errorf("%w: item %v", ErrNoConnection, it.ID())
	}
	if r.Constraint != nil {
		_ = c.solver.RemoveConstraint(r.Constraint)
	}
	r.Constraint = con
	if con != nil {
		c.solver.AddConstraint(con)
	}
	return nil
}

// ConnectionFor returns the record for handle, or nil.
func (c *Connections) ConnectionFor(handle *item.Handle) *Connection {
	for _, r := range c.records {
		if r.Handle == handle {
			return r
		}
	}
	return nil
}

// ByItem returns records whose connecting item is it (handles only).
func (c *Connections) ByItem(it item.Item) []*Connection {
	return c.matching(func(r *Connection) bool { return r.Item == it && r.Handle != nil })
}

// ByConnected returns records whose connected item is it.
func (c *Connections) ByConnected(it item.Item) []*Connection {
	return c.matching(func(r *Connection) bool { return r.Connected == it })
}

// SolvableConstraints returns the constraints anchored to it, internal
// constraints included.
func (c *Connections) SolvableConstraints(it item.Item) []solver.Constraint {
	var out []solver.Constraint
	for _, r := range c.records {
		if r.Item == it && r.Constraint != nil {
			out = append(out, r.Constraint)
		}
	}
	return out
}

func (c *Connections) matching(pred func(*Connection) bool) []*Connection {
	var out []*Connection
	for _, r := range c.records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	state.RegisterInverse(state.OpConnect, func(e state.Event) (state.Event, bool) {
		return state.Event{Op: state.OpDisconnect, Receiver: e.Receiver, Args: e.Args}, true
	})
	state.RegisterInverse(state.OpDisconnect, func(e state.Event) (state.Event, bool) {
		return state.Event{Op: state.OpConnect, Receiver: e.Receiver, Args: e.Args}, true
	})

	state.RegisterApply(state.OpConnect, func(e state.Event) error {
		c, ok := e.Receiver.(*Connections)
		if !ok || len(e.Args) != 6 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		it, _ := e.Args[0].(item.Item)
		handle, _ := e.Args[1].(*item.Handle)
		connected, _ := e.Args[2].(item.Item)
		port, _ := e.Args[3].(item.Port)
		con, _ := e.Args[4].(solver.Constraint)
		callback, _ := e.Args[5].(func())
		return c.Connect(it, handle, connected, port, con, callback)
	})
	state.RegisterApply(state.OpDisconnect, func(e state.Event) error {
		c, ok := e.Receiver.(*Connections)
		if !ok || len(e.Args) != 6 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		it, _ := e.Args[0].(item.Item)
		handle, _ := e.Args[1].(*item.Handle)
		return c.Disconnect(it, handle)
	})
}
