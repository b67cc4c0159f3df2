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

import "testing"

func TestVariableSetValueEpsilon(t *testing.T) {
	v := NewVariable(5)
	calls := 0
	v.AddHandler(func(_ *Variable, _ float64) { calls++ })

	v.SetValue(5 + 1e-12) // below epsilon, not observed
	if calls != 0 {
		t.Fatalf("sub-epsilon write should not notify, got %d calls", calls)
	}
	if v.Value() != 5 {
		t.Fatalf("sub-epsilon write should not change the value, got %g", v.Value())
	}

	v.SetValue(6)
	if calls != 1 {
		t.Fatalf("material write should notify once, got %d", calls)
	}
}

func TestVariableSerialOrdering(t *testing.T) {
	a := NewVariable(0)
	b := NewVariable(0)
	a.SetValue(1)
	b.SetValue(1)
	if a.Serial() >= b.Serial() {
		t.Fatalf("later write must have higher serial: a=%d b=%d", a.Serial(), b.Serial())
	}
	a.SetValue(2)
	if a.Serial() <= b.Serial() {
		t.Fatalf("most recent write must win: a=%d b=%d", a.Serial(), b.Serial())
	}
}

func TestVariableStrengthLockedWhileAttached(t *testing.T) {
	s := New()
	a := NewVariable(0)
	b := NewVariable(1)
	c := NewEqual(a, b)
	s.AddConstraint(c)

	if err := a.SetStrength(Strong); err == nil {
		t.Fatalf("strength change must fail while attached")
	}
	if err := s.RemoveConstraint(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := a.SetStrength(Strong); err != nil {
		t.Fatalf("strength change after detach: %v", err)
	}
	if a.Strength() != Strong {
		t.Fatalf("strength not applied")
	}
}

func TestPositionAssignsComponents(t *testing.T) {
	p := NewPosition(1, 2)
	p.SetPos(3, 4)
	x, y := p.Pos()
	if x != 3 || y != 4 {
		t.Fatalf("unexpected position: (%g, %g)", x, y)
	}
	if p.Strength() != Normal {
		t.Fatalf("unexpected strength: %d", p.Strength())
	}
}
