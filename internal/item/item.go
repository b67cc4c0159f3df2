/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package item defines the things placed on a canvas: items with a local
// affine matrix, their handles and their connectable ports. Two standard
// shapes are provided, the rectangular Element and the polyline Line.
package item

import (
	"github.com/google/uuid"

	"diagramkit/internal/geom"
	"diagramkit/internal/measure"
	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// UpdateContext is handed to the update hooks. It carries a measurement
// handle so items can size themselves to text during PreUpdate; the engine
// itself does not interpret drawing calls.
type UpdateContext struct {
	Text measure.Measurer
}

// Item is implemented by everything placed in the canvas tree.
type Item interface {
	// ID is the stable identity reported in log attributes, diagnostics and
	// error messages. The tree and the connection records hold the items
	// themselves, not their IDs.
	ID() uuid.UUID

	// Matrix is the local, item-to-parent transform.
	Matrix() *geom.Matrix

	// MatrixI2C is the item-to-canvas transform, maintained by the canvas
	// as the composition from root. Its pointer is stable for the item's
	// lifetime; the canvas updates it in place.
	MatrixI2C() *geom.Matrix

	Handles() []*Handle
	Ports() []Port

	// Point returns the distance from an item-space point to the item;
	// 0 means the point is on the item.
	Point(x, y float64) float64

	// PreUpdate and PostUpdate run inside the canvas update cycle. Errors
	// are caught and logged by the pipeline.
	PreUpdate(ctx *UpdateContext) error
	PostUpdate(ctx *UpdateContext) error

	// Normalize translates the local matrix so the first handle sits at the
	// item origin, shifting all handles accordingly. Reports whether the
	// matrix changed.
	Normalize() bool

	// AttachBus routes the item's observable mutations (matrix, handle
	// variables, flags) to bus; nil detaches.
	AttachBus(bus *state.EventBus)
}

// Connector registers and removes constraints owned by or pinning items. It
// is implemented by the connections registry.
type Connector interface {
	AddConstraint(owner Item, c solver.Constraint) solver.Constraint
	RemoveConstraint(owner Item, c solver.Constraint) error
}

// Base carries the identity and matrices common to all items.
type Base struct {
	id        uuid.UUID
	matrix    *geom.Matrix
	matrixI2C *geom.Matrix
}

func newBase() Base {
	return Base{id: uuid.New(), matrix: geom.NewMatrix(), matrixI2C: geom.NewMatrix()}
}

func (b *Base) ID() uuid.UUID          { return b.id }
func (b *Base) Matrix() *geom.Matrix   { return b.matrix }
func (b *Base) MatrixI2C() *geom.Matrix { return b.matrixI2C }

// PreUpdate is a no-op by default.
func (b *Base) PreUpdate(ctx *UpdateContext) error { return nil }

// PostUpdate is a no-op by default.
func (b *Base) PostUpdate(ctx *UpdateContext) error { return nil }

// normalizeHandles moves the first handle to the origin by translating the
// matrix and shifting every handle. Shared by Element and Line.
func normalizeHandles(matrix *geom.Matrix, handles []*Handle) bool {
	if len(handles) == 0 {
		return false
	}
	x, y := handles[0].Pos().Pos()
	if x == 0 && y == 0 {
		return false
	}
	matrix.Translate(x, y)
	for _, h := range handles {
		hx, hy := h.Pos().Pos()
		h.Pos().SetPos(hx-x, hy-y)
	}
	return true
}
