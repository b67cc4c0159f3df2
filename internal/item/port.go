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
)

// Port is a connectable region on an item. A handle of one item glues to a
// port of another; ConstraintFor produces the constraint that pins the
// handle to the port in common coordinates.
type Port interface {
	Connectable() bool

	// Glue returns the point on the port closest to (x, y) and its distance,
	// all in item coordinates.
	Glue(x, y float64) (gx, gy, dist float64)

	// ConstraintFor builds the constraint keeping handle (owned by owner) on
	// this port (owned by glueItem). Coordinates cross item spaces through
	// the items' item-to-canvas matrices.
	ConstraintFor(owner Item, handle *Handle, glueItem Item) solver.Constraint
}

// PointPort glues handles to a fixed position.
type PointPort struct {
	point       *solver.Position
	connectable bool
}

func NewPointPort(point *solver.Position) *PointPort {
	return &PointPort{point: point, connectable: true}
}

func (p *PointPort) Connectable() bool { return p.connectable }

func (p *PointPort) SetConnectable(connectable bool) { p.connectable = connectable }

// Point returns the port's anchor position.
func (p *PointPort) Point() *solver.Position { return p.point }

func (p *PointPort) Glue(x, y float64) (gx, gy, dist float64) {
	gx, gy = p.point.Pos()
	return gx, gy, geom.DistancePointPoint(gx, gy, x, y)
}

func (p *PointPort) ConstraintFor(owner Item, handle *Handle, glueItem Item) solver.Constraint {
	origin := solver.NewMatrixProjection(p.point, glueItem.MatrixI2C())
	point := solver.NewMatrixProjection(handle.Pos(), owner.MatrixI2C())
	return solver.NewPositionEqual(origin.X(), origin.Y(), point.X(), point.Y())
}

// LinePort glues handles to the segment between two positions.
type LinePort struct {
	Start, End  *solver.Position
	connectable bool
}

func NewLinePort(start, end *solver.Position) *LinePort {
	return &LinePort{Start: start, End: end, connectable: true}
}

func (p *LinePort) Connectable() bool { return p.connectable }

func (p *LinePort) SetConnectable(connectable bool) { p.connectable = connectable }

func (p *LinePort) Glue(x, y float64) (gx, gy, dist float64) {
	sx, sy := p.Start.Pos()
	ex, ey := p.End.Pos()
	dist, gx, gy = geom.DistanceLinePoint(sx, sy, ex, ey, x, y)
	return gx, gy, dist
}

func (p *LinePort) ConstraintFor(owner Item, handle *Handle, glueItem Item) solver.Constraint {
	start := solver.NewMatrixProjection(p.Start, glueItem.MatrixI2C())
	end := solver.NewMatrixProjection(p.End, glueItem.MatrixI2C())
	point := solver.NewMatrixProjection(handle.Pos(), owner.MatrixI2C())
	return solver.NewLine(start.X(), start.Y(), end.X(), end.Y(), point.X(), point.Y())
}
