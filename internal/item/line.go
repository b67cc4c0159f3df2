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
	"math"

	"diagramkit/internal/geom"
	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// Line is a polyline of two or more handles connected by line ports.
//
// With the orthogonal flag set, internal constraints keep consecutive
// segments alternating between vertical and horizontal; the horizontal flag
// makes the first segment horizontal.
type Line struct {
	Base
	conn    Connector
	handles []*Handle
	ports   []Port

	fuzziness  float64
	horizontal bool
	orthogonal bool

	orthoConstraints []solver.Constraint

	bus *state.EventBus
}

// NewLine creates a line from (0, 0) to (10, 10) with connectable ends.
func NewLine(conn Connector) *Line {
	l := &Line{Base: newBase(), conn: conn}
	h0 := NewHandle(0, 0)
	h0.SetConnectable(true)
	h1 := NewHandle(10, 10)
	h1.SetConnectable(true)
	l.handles = []*Handle{h0, h1}
	l.updatePorts()
	return l
}

// Head is the first handle.
func (l *Line) Head() *Handle { return l.handles[0] }

// Tail is the last handle.
func (l *Line) Tail() *Handle { return l.handles[len(l.handles)-1] }

// Opposite returns the other end handle.
func (l *Line) Opposite(h *Handle) (*Handle, error) {
	switch h {
	case l.handles[0]:
		return l.handles[len(l.handles)-1], nil
	case l.handles[len(l.handles)-1]:
		return l.handles[0], nil
	}
	return nil, fmt.Errorf("item: handle is not an end handle")
}

// Fuzziness is an extra margin taken into account by Point.
func (l *Line) Fuzziness() float64 { return l.fuzziness }

func (l *Line) SetFuzziness(f float64) { l.fuzziness = f }

// Orthogonal reports whether segments are kept axis-aligned.
func (l *Line) Orthogonal() bool { return l.orthogonal }

func (l *Line) SetOrthogonal(orthogonal bool) {
	if l.orthogonal == orthogonal {
		return
	}
	l.bus.Emit(state.Event{Op: state.OpLineOrthogonal, Receiver: l, Args: []any{l.orthogonal, orthogonal}})
	l.orthogonal = orthogonal
	l.updateOrthogonalConstraints()
}

// Horizontal reports whether the first segment is horizontal.
func (l *Line) Horizontal() bool { return l.horizontal }

func (l *Line) SetHorizontal(horizontal bool) {
	if l.horizontal == horizontal {
		return
	}
	l.bus.Emit(state.Event{Op: state.OpLineHorizontal, Receiver: l, Args: []any{l.horizontal, horizontal}})
	l.horizontal = horizontal
	l.updateOrthogonalConstraints()
}

// InsertHandle inserts h before index, splitting the segment there.
func (l *Line) InsertHandle(index int, h *Handle) {
	if index < 0 {
		index = 0
	}
	if index > len(l.handles) {
		index = len(l.handles)
	}
	l.handles = append(l.handles[:index], append([]*Handle{h}, l.handles[index:]...)...)
	if l.bus != nil {
		h.attachBus(l.bus)
	}
	l.updatePorts()
	l.updateOrthogonalConstraints()
}

// RemoveHandle removes h, merging its segments. The line keeps at least two
// handles.
func (l *Line) RemoveHandle(h *Handle) error {
	if len(l.handles) <= 2 {
		return fmt.Errorf("item: line needs at least two handles")
	}
	for i, hh := range l.handles {
		if hh == h {
			l.handles = append(l.handles[:i], l.handles[i+1:]...)
			l.updatePorts()
			l.updateOrthogonalConstraints()
			return nil
		}
	}
	return fmt.Errorf("item: handle not on this line")
}

// SplitSegment splits segment index at its midpoint and returns the new
// handle.
func (l *Line) SplitSegment(index int) (*Handle, error) {
	if index < 0 || index >= len(l.handles)-1 {
		return nil, fmt.Errorf("item: no segment %d", index)
	}
	x0, y0 := l.handles[index].Pos().Pos()
	x1, y1 := l.handles[index+1].Pos().Pos()
	h := NewHandle((x0+x1)/2, (y0+y1)/2)
	l.InsertHandle(index+1, h)
	return h, nil
}

// updatePorts rebuilds the per-segment line ports.
func (l *Line) updatePorts() {
	ports := make([]Port, 0, len(l.handles)-1)
	for i := 0; i < len(l.handles)-1; i++ {
		ports = append(ports, NewLinePort(l.handles[i].Pos(), l.handles[i+1].Pos()))
	}
	l.ports = ports
}

// updateOrthogonalConstraints replaces the constraints keeping the line
// orthogonal. Lines with fewer than three handles carry none.
func (l *Line) updateOrthogonalConstraints() {
	for _, c := range l.orthoConstraints {
		_ = l.conn.RemoveConstraint(l, c)
	}
	l.orthoConstraints = nil

	if !l.orthogonal || len(l.handles) < 3 {
		return
	}

	rest := 0
	if l.horizontal {
		rest = 1
	}
	for i := 0; i < len(l.handles)-1; i++ {
		p0 := l.handles[i].Pos()
		p1 := l.handles[i+1].Pos()
		var c solver.Constraint
		if i%2 == rest {
			c = solver.NewEqual(p0.X, p1.X)
		} else {
			c = solver.NewEqual(p0.Y, p1.Y)
		}
		l.orthoConstraints = append(l.orthoConstraints, l.conn.AddConstraint(l, c))
	}
}

func (l *Line) Handles() []*Handle { return l.handles }

func (l *Line) Ports() []Port { return l.ports }

// Point returns the distance from an item-space point to the polyline,
// reduced by the fuzziness margin.
func (l *Line) Point(x, y float64) float64 {
	min := math.Inf(1)
	for i := 0; i < len(l.handles)-1; i++ {
		x0, y0 := l.handles[i].Pos().Pos()
		x1, y1 := l.handles[i+1].Pos().Pos()
		d, _, _ := geom.DistanceLinePoint(x0, y0, x1, y1, x, y)
		if d < min {
			min = d
		}
	}
	return math.Max(0, min-l.fuzziness)
}

func (l *Line) Normalize() bool { return normalizeHandles(l.matrix, l.handles) }

func (l *Line) AttachBus(bus *state.EventBus) {
	l.bus = bus
	l.matrix.AttachBus(bus)
	for _, h := range l.handles {
		h.attachBus(bus)
	}
}

func init() {
	state.RegisterApply(state.OpLineOrthogonal, func(e state.Event) error {
		l, ok := e.Receiver.(*Line)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		l.SetOrthogonal(e.Args[1].(bool))
		return nil
	})
	state.RegisterApply(state.OpLineHorizontal, func(e state.Event) error {
		l, ok := e.Receiver.(*Line)
		if !ok || len(e.Args) != 2 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		l.SetHorizontal(e.Args[1].(bool))
		return nil
	})
}
