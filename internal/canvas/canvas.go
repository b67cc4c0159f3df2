/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas holds the item forest, the constraint solver and the
// connections registry, and runs the update pipeline keeping them
// consistent.
package canvas

import (
	"errors"
	"fmt"
	"log/slog"

	"diagramkit/internal/diag"
	"diagramkit/internal/geom"
	"diagramkit/internal/item"
	applog "diagramkit/internal/log"
	"diagramkit/internal/measure"
	"diagramkit/internal/solver"
	"diagramkit/internal/state"
)

// ErrReentrantUpdate is returned when Update is entered while an update is
// already running (e.g. from an observer callback). The call has no side
// effect.
var ErrReentrantUpdate = errors.New("canvas: update already running")

// View is notified when items need redrawing. Implemented by the host.
type View interface {
	RequestUpdate(updated, matrixOnly, removed []item.Item)
}

// Canvas is the container for items.
type Canvas struct {
	bus         *state.EventBus
	tree        *tree
	solver      *solver.Solver
	connections *Connections
	diagnostics diag.Reporter
	log         *slog.Logger

	dirtyItems       map[item.Item]struct{}
	dirtyMatrixItems map[item.Item]struct{}
	// detach undoes the per-item variable and matrix handlers.
	detach map[item.Item][]func()

	views    []View
	measurer measure.Measurer

	updating bool
}

// Options configure a canvas.
type Options struct {
	Solver      solver.Options
	Diagnostics diag.Reporter
	Measurer    measure.Measurer
}

// New creates an empty canvas with default options.
func New() *Canvas { return NewWithOptions(Options{}) }

// NewWithOptions creates an empty canvas.
func NewWithOptions(opts Options) *Canvas {
	if opts.Diagnostics == nil {
		opts.Diagnostics = diag.NewLogReporter()
	}
	if opts.Measurer == nil {
		opts.Measurer = measure.Default()
	}
	if opts.Solver.Diagnostics == nil {
		opts.Solver.Diagnostics = opts.Diagnostics
	}
	bus := state.NewEventBus()
	s := solver.NewWithOptions(opts.Solver)
	return &Canvas{
		bus:              bus,
		tree:             newTree(),
		solver:           s,
		connections:      newConnections(s, bus),
		diagnostics:      opts.Diagnostics,
		log:              applog.WithComponent("canvas"),
		dirtyItems:       map[item.Item]struct{}{},
		dirtyMatrixItems: map[item.Item]struct{}{},
		detach:           map[item.Item][]func(){},
		measurer:         opts.Measurer,
	}
}

// Bus is the event bus owned by this canvas. Observers receive pre-commit
// mutation events, subscribers the reverter-produced inverses.
func (c *Canvas) Bus() *state.EventBus { return c.bus }

// Solver returns the canvas's constraint solver.
func (c *Canvas) Solver() *solver.Solver { return c.solver }

// Connections returns the connections registry.
func (c *Canvas) Connections() *Connections { return c.connections }

// SetMeasurer replaces the text measurement handle passed to update hooks.
func (c *Canvas) SetMeasurer(m measure.Measurer) { c.measurer = m }

// Add places it at the root level.
func (c *Canvas) Add(it item.Item) error { return c.AddAt(it, nil, -1) }

// AddAt places it under parent at the given sibling index (-1 appends).
func (c *Canvas) AddAt(it item.Item, parent item.Item, index int) error {
	if c.tree.contains(it) {
		return fmt.Errorf("canvas: item %v already added", it.ID())
	}
	if parent != nil && !c.tree.contains(parent) {
		return fmt.Errorf("canvas: parent %v not in canvas", parent.ID())
	}
	if n := len(c.tree.childrenOf(parent)); index < 0 || index > n {
		index = n
	}
	c.bus.Emit(state.Event{Op: state.OpCanvasAdd, Receiver: c, Args: []any{it, parent, index}})
	if err := c.tree.add(it, parent, index); err != nil {
		return err
	}
	c.attach(it)
	c.updateMatrix(it)
	c.RequestUpdate(it)
	return nil
}

// Remove removes it and its descendants; every connection record where an
// affected item appears as item or connected item is disconnected.
func (c *Canvas) Remove(it item.Item) error {
	if !c.tree.contains(it) {
		return fmt.Errorf("canvas: item %v not in canvas", it.ID())
	}
	children := c.tree.childrenOf(it)
	for i := len(children) - 1; i >= 0; i-- {
		if err := c.Remove(children[i]); err != nil {
			return err
		}
	}
	c.connections.RemoveConnectionsTo(it)

	parent := c.tree.parent(it)
	index := c.tree.siblingIndex(it)
	c.bus.Emit(state.Event{Op: state.OpCanvasRemove, Receiver: c, Args: []any{it, parent, index}})

	for _, cancel := range c.detach[it] {
		cancel()
	}
	delete(c.detach, it)
	it.AttachBus(nil)

	if err := c.tree.removeOne(it); err != nil {
		return err
	}
	delete(c.dirtyItems, it)
	delete(c.dirtyMatrixItems, it)
	c.notifyViews(nil, nil, []item.Item{it})
	return nil
}

// Reparent moves it (with its subtree) under parent at the sibling index.
func (c *Canvas) Reparent(it item.Item, parent item.Item, index int) error {
	if !c.tree.contains(it) {
		return fmt.Errorf("canvas: item %v not in canvas", it.ID())
	}
	if parent != nil && !c.tree.contains(parent) {
		return fmt.Errorf("canvas: parent %v not in canvas", parent.ID())
	}
	for p := parent; p != nil; p = c.tree.parent(p) {
		if p == it {
			return fmt.Errorf("canvas: cannot reparent %v below itself", it.ID())
		}
	}
	oldParent := c.tree.parent(it)
	oldIndex := c.tree.siblingIndex(it)
	siblings := c.tree.childrenOf(parent)
	maxIndex := len(siblings)
	if parent == oldParent {
		maxIndex--
	}
	if index < 0 || index > maxIndex {
		index = maxIndex
	}
	c.bus.Emit(state.Event{
		Op:       state.OpCanvasReparent,
		Receiver: c,
		Args:     []any{it, parent, index, oldParent, oldIndex},
	})
	if err := c.tree.reparent(it, parent, index); err != nil {
		return err
	}
	c.RequestMatrixUpdate(it)
	c.RequestUpdate(it)
	return nil
}

// attach wires the item's observable state into the canvas: mutation events
// go to the bus, matrix changes mark the matrix dirty, handle movement marks
// the item dirty.
func (c *Canvas) attach(it item.Item) {
	it.AttachBus(c.bus)
	var cancels []func()
	self := it
	cancels = append(cancels, it.Matrix().AddHandler(func(_ *geom.Matrix) {
		c.RequestMatrixUpdate(self)
	}))
	for _, h := range it.Handles() {
		for _, v := range []*solver.Variable{h.Pos().X, h.Pos().Y} {
			cancels = append(cancels, v.AddHandler(func(_ *solver.Variable, _ float64) {
				c.RequestUpdate(self)
			}))
		}
	}
	c.detach[it] = cancels
}

// Items returns all items in depth-first order.
func (c *Canvas) Items() []item.Item { return append([]item.Item{}, c.tree.nodes...) }

// RootItems returns the root-level items.
func (c *Canvas) RootItems() []item.Item { return c.tree.childrenOf(nil) }

// Parent returns the parent of it, or nil.
func (c *Canvas) Parent(it item.Item) item.Item { return c.tree.parent(it) }

// Children returns the direct children of it.
func (c *Canvas) Children(it item.Item) []item.Item { return c.tree.childrenOf(it) }

// AllChildren returns all descendants of it in depth-first order.
func (c *Canvas) AllChildren(it item.Item) []item.Item { return c.tree.allChildren(it) }

// Ancestors returns the ancestors of it, nearest first.
func (c *Canvas) Ancestors(it item.Item) []item.Item { return c.tree.ancestors(it) }

// Sort orders an arbitrary set of items in tree (depth-first) order.
func (c *Canvas) Sort(items []item.Item) []item.Item { return c.tree.order(items) }

// SiblingIndex returns it's position among its siblings.
func (c *Canvas) SiblingIndex(it item.Item) int { return c.tree.siblingIndex(it) }

// MatrixC2I returns the canvas-to-item matrix: the inverse of the maintained
// item-to-canvas composition.
func (c *Canvas) MatrixC2I(it item.Item) (*geom.Matrix, error) {
	return it.MatrixI2C().Inverse()
}

// MatrixI2I composes the transform mapping from-item coordinates into
// to-item coordinates.
func (c *Canvas) MatrixI2I(from, to item.Item) (*geom.Matrix, error) {
	c2i, err := c.MatrixC2I(to)
	if err != nil {
		return nil, err
	}
	return c2i.Mul(from.MatrixI2C()), nil
}

// Project wraps an item-local position so it reads and writes canvas
// coordinates through the item's item-to-canvas matrix.
func (c *Canvas) Project(it item.Item, pos *solver.Position) *solver.MatrixProjection {
	p := solver.NewMatrixProjection(pos, it.MatrixI2C())
	p.DropHandler = func(err error) {
		c.log.Warn("projection write dropped", "item", it.ID(), "err", err)
		c.diagnostics.Report(diag.Event{Kind: diag.KindSingularMatrix, Detail: it.ID().String()})
	}
	return p
}

// RequestUpdate marks it for a full update in the next Update call and
// notifies registered views.
func (c *Canvas) RequestUpdate(it item.Item) {
	c.dirtyItems[it] = struct{}{}
	c.notifyViews([]item.Item{it}, nil, nil)
}

// RequestMatrixUpdate marks only the item's matrices as stale.
func (c *Canvas) RequestMatrixUpdate(it item.Item) {
	c.dirtyMatrixItems[it] = struct{}{}
	c.notifyViews(nil, []item.Item{it}, nil)
}

// RequiresUpdate reports whether any item is marked dirty.
func (c *Canvas) RequiresUpdate() bool {
	return len(c.dirtyItems) > 0 || len(c.dirtyMatrixItems) > 0
}

// RegisterView adds a view to be notified of update requests.
func (c *Canvas) RegisterView(v View) { c.views = append(c.views, v) }

// UnregisterView removes a view.
func (c *Canvas) UnregisterView(v View) {
	for i, vv := range c.views {
		if vv == v {
			c.views = append(c.views[:i], c.views[i+1:]...)
			return
		}
	}
}

func (c *Canvas) notifyViews(updated, matrixOnly, removed []item.Item) {
	for _, v := range c.views {
		v.RequestUpdate(updated, matrixOnly, removed)
	}
}

// Update runs the update pipeline:
//
//  1. pre-update hooks for dirty items (and their ancestors) in tree order,
//  2. item-to-canvas matrix refresh for stale matrices, re-dirtying every
//     constraint that projects through a changed matrix,
//  3. constraint solving,
//  4. normalization (first handle moved to the item origin),
//  5. matrix refresh for normalized items and a settling solve,
//  6. post-update hooks for the (possibly grown) dirty set in tree order.
//
// After Update returns every registered constraint either holds within
// tolerance or was reported in the returned UnresolvableError, matrices are
// up to date and the dirty set is empty. Reentrant calls are rejected with
// ErrReentrantUpdate and have no side effect.
func (c *Canvas) Update() error {
	if c.updating {
		return ErrReentrantUpdate
	}
	c.updating = true
	defer func() { c.updating = false }()

	ctx := &item.UpdateContext{Text: c.measurer}
	var errs []error

	// 1. Pre-update. Items may request further updates from their hooks;
	// those are picked up in the same cycle, each item running once.
	processed := map[item.Item]struct{}{}
	allDirty := map[item.Item]struct{}{}
	for len(c.dirtyItems) > 0 {
		batch := c.takeDirtyWithAncestors()
		ran := false
		for _, it := range batch {
			allDirty[it] = struct{}{}
			if _, done := processed[it]; done {
				continue
			}
			processed[it] = struct{}{}
			ran = true
			c.runHook(it, "pre-update", it.PreUpdate, ctx)
		}
		if !ran {
			break
		}
	}

	// 2. Matrix refresh. Setting an item-to-canvas matrix re-dirties the
	// constraints projecting through it.
	changedMatrices := c.updateMatrices(c.drainDirtyMatrices())

	// 3. Solve.
	if err := c.solver.Solve(); err != nil {
		c.log.Error("constraint resolution incomplete", "err", err)
		errs = append(errs, err)
	}
	for it := range c.drainDirty() {
		allDirty[it] = struct{}{}
	}

	// 4. Normalize.
	var normalized []item.Item
	for _, it := range c.tree.order(keys(allDirty)) {
		if it.Normalize() {
			normalized = append(normalized, it)
		}
	}

	// 5. Second matrix refresh for normalized items, then settle.
	if len(normalized) > 0 || len(c.dirtyMatrixItems) > 0 {
		more := c.updateMatrices(c.drainDirtyMatrices())
		changedMatrices = append(changedMatrices, more...)
		if err := c.solver.Solve(); err != nil {
			errs = append(errs, err)
		}
	}
	for it := range c.drainDirty() {
		allDirty[it] = struct{}{}
	}

	// 6. Post-update.
	for _, it := range c.tree.order(keys(allDirty)) {
		c.runHook(it, "post-update", it.PostUpdate, ctx)
	}

	c.dirtyItems = map[item.Item]struct{}{}
	c.dirtyMatrixItems = map[item.Item]struct{}{}
	c.notifyViews(keys(allDirty), changedMatrices, nil)
	return errors.Join(errs...)
}

// runHook calls an update hook, catching errors and panics so one failing
// item cannot wedge the pipeline; the item stays clean afterwards.
func (c *Canvas) runHook(it item.Item, name string, hook func(*item.UpdateContext) error, ctx *item.UpdateContext) {
	defer func() {
		if p := recover(); p != nil {
			c.log.Error("update hook panicked", "hook", name, "item", it.ID(), "panic", fmt.Sprint(p))
			c.diagnostics.Report(diag.Event{Kind: diag.KindUpdateHookFailed, Detail: it.ID().String()})
		}
	}()
	if err := hook(ctx); err != nil {
		c.log.Error("update hook failed", "hook", name, "item", it.ID(), "err", err)
		c.diagnostics.Report(diag.Event{Kind: diag.KindUpdateHookFailed, Detail: it.ID().String()})
	}
}

// takeDirtyWithAncestors drains the dirty set, extends it with ancestors and
// returns the batch in tree order.
func (c *Canvas) takeDirtyWithAncestors() []item.Item {
	batch := map[item.Item]struct{}{}
	for it := range c.dirtyItems {
		batch[it] = struct{}{}
		for _, a := range c.tree.ancestors(it) {
			batch[a] = struct{}{}
		}
	}
	c.dirtyItems = map[item.Item]struct{}{}
	return c.tree.order(keys(batch))
}

func (c *Canvas) drainDirty() map[item.Item]struct{} {
	d := c.dirtyItems
	c.dirtyItems = map[item.Item]struct{}{}
	return d
}

func (c *Canvas) drainDirtyMatrices() []item.Item {
	out := keys(c.dirtyMatrixItems)
	c.dirtyMatrixItems = map[item.Item]struct{}{}
	return c.tree.order(out)
}

// updateMatrices recomputes item-to-canvas matrices for the given items and
// their subtrees, parents before children. Returns the items whose matrix
// actually changed.
func (c *Canvas) updateMatrices(items []item.Item) []item.Item {
	var changed []item.Item
	members := map[item.Item]bool{}
	for _, it := range items {
		members[it] = true
	}
	var walk func(it item.Item)
	walk = func(it item.Item) {
		if c.updateMatrix(it) {
			changed = append(changed, it)
		}
		for _, child := range c.tree.childrenOf(it) {
			walk(child)
		}
	}
	for _, it := range items {
		if p := c.tree.parent(it); p != nil && members[p] {
			// Covered by the parent's walk.
			continue
		}
		walk(it)
	}
	return changed
}

// updateMatrix recomposes one item's item-to-canvas matrix from the root.
// Reports whether it changed.
func (c *Canvas) updateMatrix(it item.Item) bool {
	i2c := it.Matrix()
	if p := c.tree.parent(it); p != nil {
		i2c = p.MatrixI2C().Mul(i2c)
	}
	if it.MatrixI2C().Equal(i2c) {
		return false
	}
	it.MatrixI2C().Set(i2c.Values())
	return true
}

func keys(m map[item.Item]struct{}) []item.Item {
	out := make([]item.Item, 0, len(m))
	for it := range m {
		out = append(out, it)
	}
	return out
}

func init() {
	state.RegisterInverse(state.OpCanvasAdd, func(e state.Event) (state.Event, bool) {
		return state.Event{Op: state.OpCanvasRemove, Receiver: e.Receiver, Args: e.Args}, true
	})
	state.RegisterInverse(state.OpCanvasRemove, func(e state.Event) (state.Event, bool) {
		return state.Event{Op: state.OpCanvasAdd, Receiver: e.Receiver, Args: e.Args}, true
	})
	state.RegisterInverse(state.OpCanvasReparent, func(e state.Event) (state.Event, bool) {
		if len(e.Args) != 5 {
			return state.Event{}, false
		}
		return state.Event{
			Op:       state.OpCanvasReparent,
			Receiver: e.Receiver,
			Args:     []any{e.Args[0], e.Args[3], e.Args[4], e.Args[1], e.Args[2]},
		}, true
	})

	state.RegisterApply(state.OpCanvasAdd, func(e state.Event) error {
		cv, ok := e.Receiver.(*Canvas)
		if !ok || len(e.Args) != 3 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		it, _ := e.Args[0].(item.Item)
		parent, _ := e.Args[1].(item.Item)
		index, _ := e.Args[2].(int)
		return cv.AddAt(it, parent, index)
	})
	state.RegisterApply(state.OpCanvasRemove, func(e state.Event) error {
		cv, ok := e.Receiver.(*Canvas)
		if !ok || len(e.Args) != 3 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		it, _ := e.Args[0].(item.Item)
		return cv.Remove(it)
	})
	state.RegisterApply(state.OpCanvasReparent, func(e state.Event) error {
		cv, ok := e.Receiver.(*Canvas)
		if !ok || len(e.Args) != 5 {
			return fmt.Errorf("bad %s event", e.Op)
		}
		it, _ := e.Args[0].(item.Item)
		parent, _ := e.Args[1].(item.Item)
		index, _ := e.Args[2].(int)
		return cv.Reparent(it, parent, index)
	})
}
