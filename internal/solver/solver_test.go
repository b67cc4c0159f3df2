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
	"testing"
)

func TestSolverEqualChainPropagates(t *testing.T) {
	s := New()
	a := NewVariable(0)
	b := NewVariable(0)
	c := NewVariable(0)
	s.AddConstraint(NewEqual(a, b))
	s.AddConstraint(NewEqual(b, c))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}

	a.SetValue(42)
	if !s.NeedsSolving() {
		t.Fatalf("write should have marked constraints dirty")
	}
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	almost(t, b.Value(), 42, 1e-9)
	almost(t, c.Value(), 42, 1e-9)
}

func TestSolverTargetIsWeakestOperand(t *testing.T) {
	s := New()
	weak := NewVariableWithStrength(0, Weak)
	strong := NewVariableWithStrength(7, Strong)
	s.AddConstraint(NewEqual(weak, strong))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	almost(t, weak.Value(), 7, 1e-9)
	almost(t, strong.Value(), 7, 1e-9)
}

func TestSolverTieBreakLeastRecentlyWritten(t *testing.T) {
	s := New()
	a := NewVariable(0)
	b := NewVariable(0)
	s.AddConstraint(NewEqual(a, b))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}

	// b was written last, so a is the weaker (least recently written) side.
	b.SetValue(9)
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	almost(t, a.Value(), 9, 1e-9)
}

func TestSolverRequiredNeverTarget(t *testing.T) {
	s := New()
	pinned := NewVariableWithStrength(3, Required)
	free := NewVariable(0)
	s.AddConstraint(NewEqual(free, pinned))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	almost(t, free.Value(), 3, 1e-9)
	almost(t, pinned.Value(), 3, 1e-9)
}

func TestSolverAllRequiredReportedUnresolvable(t *testing.T) {
	s := New()
	a := NewVariableWithStrength(0, Required)
	b := NewVariableWithStrength(5, Required)
	c := NewEqual(a, b)
	s.AddConstraint(c)
	err := s.Solve()
	var unres *UnresolvableError
	if !errors.As(err, &unres) {
		t.Fatalf("expected UnresolvableError, got %v", err)
	}
	if len(unres.Constraints) != 1 || unres.Constraints[0] != c {
		t.Fatalf("unexpected unresolved set: %v", unres.Constraints)
	}
}

func TestSolverRemoveConstraint(t *testing.T) {
	s := New()
	a := NewVariable(0)
	b := NewVariable(1)
	c := NewEqual(a, b)
	s.AddConstraint(c)
	if err := s.RemoveConstraint(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	a.SetValue(100)
	if s.NeedsSolving() {
		t.Fatalf("removed constraint must not be re-enqueued")
	}
	if err := s.RemoveConstraint(c); !errors.Is(err, ErrUnknownConstraint) {
		t.Fatalf("expected ErrUnknownConstraint, got %v", err)
	}
}

func TestSolverContradictionTerminatesAndReports(t *testing.T) {
	s := NewWithOptions(Options{IterationBudget: 1000, RequeueLimit: 20})
	a := NewVariableWithStrength(0, Strong)
	b := NewVariableWithStrength(0, Strong)
	// a = b + 1 and a = b cannot both hold.
	c1 := NewEquation(func(v []float64) float64 { return v[0] - v[1] - 1 }, a, b)
	c2 := NewEquation(func(v []float64) float64 { return v[0] - v[1] }, a, b)
	s.AddConstraint(c1)
	s.AddConstraint(c2)

	err := s.Solve()
	var unres *UnresolvableError
	if !errors.As(err, &unres) {
		t.Fatalf("expected UnresolvableError, got %v", err)
	}
	found := map[Constraint]bool{}
	for _, c := range unres.Constraints {
		found[c] = true
	}
	if !found[c1] && !found[c2] {
		t.Fatalf("unresolved set should mention the contradictory constraints")
	}
}

func TestSolverIdempotentAtFixedPoint(t *testing.T) {
	s := New()
	a := NewVariable(0)
	b := NewVariable(5)
	s.AddConstraint(NewEqual(a, b))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	av, bv := a.Value(), b.Value()
	if err := s.Solve(); err != nil {
		t.Fatalf("second solve: %v", err)
	}
	if a.Value() != av || b.Value() != bv {
		t.Fatalf("second solve changed state: a=%g b=%g", a.Value(), b.Value())
	}
	if s.NeedsSolving() {
		t.Fatalf("queue must be empty at the fixed point")
	}
}

func TestSolverRequestResolve(t *testing.T) {
	s := New()
	a := NewVariable(1)
	b := NewVariable(1)
	s.AddConstraint(NewEqual(a, b))
	if err := s.Solve(); err != nil {
		t.Fatalf("solve: %v", err)
	}
	s.RequestResolve(a)
	if !s.NeedsSolving() {
		t.Fatalf("request resolve should enqueue the constraint")
	}
}
