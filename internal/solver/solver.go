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
	"log/slog"

	"diagramkit/internal/diag"
	"diagramkit/internal/geom"
	applog "diagramkit/internal/log"
)

// ErrUnknownConstraint is returned by RemoveConstraint for a constraint that
// was never registered. The call has no side effect.
var ErrUnknownConstraint = errors.New("solver: unknown constraint")

// UnresolvableError reports that a Solve pass ended with constraints still
// dirty: the iteration budget ran out, an equation failed to converge, or a
// constraint had only REQUIRED operands. State is left as last written; the
// caller may re-invoke Solve.
type UnresolvableError struct {
	Constraints []Constraint
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("solver: %d constraint(s) left unresolved", len(e.Constraints))
}

// Options tune one solver instance.
type Options struct {
	// IterationBudget bounds constraint solves per Solve pass. Default 1000.
	IterationBudget int
	// RequeueLimit bounds re-enqueues of a single constraint within one
	// Solve pass; beyond it, enqueues are suppressed and logged. Default 100.
	RequeueLimit int
	// Diagnostics receives budget/suppression/convergence conditions.
	Diagnostics diag.Reporter
}

func (o *Options) fill() {
	if o.IterationBudget <= 0 {
		o.IterationBudget = 1000
	}
	if o.RequeueLimit <= 0 {
		o.RequeueLimit = 100
	}
	if o.Diagnostics == nil {
		o.Diagnostics = diag.Nop()
	}
}

// Solver tracks registered constraints, marks them dirty when their
// variables change, and resolves the dirty queue to a fixed point on demand.
type Solver struct {
	opts Options
	log  *slog.Logger

	constraints map[Constraint]struct{}
	// deps indexes every underlying variable to the constraints that hold it
	// as an operand (possibly through a projection).
	deps map[*Variable]map[Constraint]struct{}
	// varCancels undo the per-variable change handlers.
	varCancels map[*Variable]func()
	// matrixCancels undo the per-constraint projection-matrix handlers.
	matrixCancels map[Constraint][]func()

	queue      []Constraint
	inQueue    map[Constraint]bool
	enqueues   map[Constraint]int
	suppressed map[Constraint]bool

	solving bool
	current Constraint
}

// New creates a solver with default options.
func New() *Solver { return NewWithOptions(Options{}) }

// NewWithOptions creates a solver with explicit tuning.
func NewWithOptions(opts Options) *Solver {
	opts.fill()
	return &Solver{
		opts:          opts,
		log:           applog.WithComponent("solver"),
		constraints:   map[Constraint]struct{}{},
		deps:          map[*Variable]map[Constraint]struct{}{},
		varCancels:    map[*Variable]func(){},
		matrixCancels: map[Constraint][]func(){},
		inQueue:       map[Constraint]bool{},
		enqueues:      map[Constraint]int{},
	}
}

// Constraints returns the registered constraints.
func (s *Solver) Constraints() []Constraint {
	out := make([]Constraint, 0, len(s.constraints))
	for c := range s.constraints {
		out = append(out, c)
	}
	return out
}

// Holds reports whether c is registered.
func (s *Solver) Holds(c Constraint) bool {
	_, ok := s.constraints[c]
	return ok
}

// NeedsSolving reports whether the dirty queue is non-empty.
func (s *Solver) NeedsSolving() bool { return len(s.queue) > 0 }

// AddConstraint registers c, indexes its operand variables and marks it
// dirty. The constraint is returned so it can be removed later.
func (s *Solver) AddConstraint(c Constraint) Constraint {
	if _, ok := s.constraints[c]; ok {
		return c
	}
	s.constraints[c] = struct{}{}
	for _, operand := range c.Operands() {
		v := operand.Underlying()
		set := s.deps[v]
		if set == nil {
			set = map[Constraint]struct{}{}
			s.deps[v] = set
			vv := v
			s.varCancels[v] = v.AddHandler(func(_ *Variable, _ float64) {
				s.RequestResolve(vv)
			})
		}
		if _, held := set[c]; !held {
			set[c] = struct{}{}
			v.refs++
		}

		// A projected operand also depends on its matrix: when the matrix
		// changes, the constraint must be re-solved.
		if pv, ok := operand.(*projVar); ok {
			cc := c
			cancel := pv.p.matrix.AddHandler(func(_ *geom.Matrix) {
				s.markDirty(cc)
			})
			s.matrixCancels[c] = append(s.matrixCancels[c], cancel)
		}
	}
	s.markDirty(c)
	return c
}

// RemoveConstraint drops c and its index entries. Operand variables left
// without any referring constraint are no longer tracked.
func (s *Solver) RemoveConstraint(c Constraint) error {
	if _, ok := s.constraints[c]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownConstraint, c)
	}
	delete(s.constraints, c)
	for _, operand := range c.Operands() {
		v := operand.Underlying()
		set := s.deps[v]
		if set == nil {
			continue
		}
		if _, held := set[c]; held {
			delete(set, c)
			v.refs--
		}
		if len(set) == 0 {
			delete(s.deps, v)
			if cancel := s.varCancels[v]; cancel != nil {
				cancel()
				delete(s.varCancels, v)
			}
		}
	}
	for _, cancel := range s.matrixCancels[c] {
		cancel()
	}
	delete(s.matrixCancels, c)

	if s.inQueue[c] {
		for i, qc := range s.queue {
			if qc == c {
				s.queue = append(s.queue[:i], s.queue[i+1:]...)
				break
			}
		}
		delete(s.inQueue, c)
	}
	return nil
}

// RequestResolve marks v dirty: every constraint referring to v is enqueued.
// During a Solve pass the constraint currently being solved is not
// re-enqueued by its own write.
func (s *Solver) RequestResolve(v *Variable) {
	for c := range s.deps[v] {
		if c == s.current {
			continue
		}
		s.markDirty(c)
	}
}

func (s *Solver) markDirty(c Constraint) {
	if s.inQueue[c] {
		return
	}
	if s.solving {
		n := s.enqueues[c] + 1
		s.enqueues[c] = n
		if n > s.opts.RequeueLimit {
			if n == s.opts.RequeueLimit+1 {
				s.log.Warn("constraint re-enqueue suppressed", "constraint", fmt.Sprint(c), "limit", s.opts.RequeueLimit)
				s.opts.Diagnostics.Report(diag.Event{Kind: diag.KindRequeueSuppressed, Detail: fmt.Sprint(c)})
			}
			s.suppressed[c] = true
			return
		}
	}
	s.queue = append(s.queue, c)
	s.inQueue[c] = true
}

// chooseTarget picks the operand with the lowest strength; ties go to the
// least recently written (lowest serial). REQUIRED operands are never
// chosen. Returns nil when every operand is REQUIRED.
func chooseTarget(c Constraint) Var {
	var target Var
	for _, v := range c.Operands() {
		if v.Strength() >= Required {
			continue
		}
		if target == nil ||
			v.Strength() < target.Strength() ||
			(v.Strength() == target.Strength() && v.Serial() < target.Serial()) {
			target = v
		}
	}
	return target
}

// Solve drains the dirty-constraint queue to a fixed point in FIFO order.
//
// Each dirty constraint is solved for its weakest operand; a material change
// of the target re-enqueues the other constraints holding that variable.
// The pass stops when the queue is empty or the iteration budget runs out;
// in the latter case an UnresolvableError lists the leftover constraints and
// they stay dirty for a later pass.
func (s *Solver) Solve() error {
	if s.solving {
		return nil
	}
	s.solving = true
	s.enqueues = map[Constraint]int{}
	s.suppressed = map[Constraint]bool{}
	defer func() {
		s.solving = false
		s.current = nil
	}()

	var failed []Constraint
	solves := 0
	for len(s.queue) > 0 {
		if solves >= s.opts.IterationBudget {
			left := make([]Constraint, 0, len(s.queue)+len(failed))
			left = append(left, s.queue...)
			left = append(left, failed...)
			for sc := range s.suppressed {
				left = append(left, sc)
			}
			s.log.Error("iteration budget exceeded", "budget", s.opts.IterationBudget, "dirty", len(left))
			s.opts.Diagnostics.Report(diag.Event{Kind: diag.KindBudgetExceeded, Detail: fmt.Sprintf("%d constraints dirty", len(left))})
			// Leave them dirty so a later pass can retry.
			for _, c := range left {
				if !s.inQueue[c] {
					s.queue = append(s.queue, c)
					s.inQueue[c] = true
				}
			}
			return &UnresolvableError{Constraints: left}
		}
		c := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.inQueue, c)

		target := chooseTarget(c)
		if target == nil {
			failed = append(failed, c)
			continue
		}
		s.current = c
		err := c.SolveFor(target)
		s.current = nil
		solves++
		if err != nil {
			s.log.Warn("constraint failed to solve", "constraint", fmt.Sprint(c), "err", err)
			if errors.Is(err, ErrNonConvergent) {
				s.opts.Diagnostics.Report(diag.Event{Kind: diag.KindNonConvergent, Detail: fmt.Sprint(c)})
			}
			failed = append(failed, c)
		}
	}
	// A constraint whose re-enqueues were suppressed never reached a fixed
	// point; it counts as unresolved.
	for sc := range s.suppressed {
		failed = append(failed, sc)
	}
	if len(failed) > 0 {
		// Leave them dirty so a later pass can retry.
		for _, c := range failed {
			if !s.inQueue[c] {
				s.queue = append(s.queue, c)
				s.inQueue[c] = true
			}
		}
		return &UnresolvableError{Constraints: failed}
	}
	return nil
}
