/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package state

import "testing"

// cell is a minimal observable value for exercising the recorder.
type cell struct {
	bus *EventBus
	v   int
}

const opCellSet = "test.cell-set"

func init() {
	RegisterInverse(opCellSet, swapArgs)
	RegisterApply(opCellSet, func(e Event) error {
		c := e.Receiver.(*cell)
		c.set(e.Args[1].(int))
		return nil
	})
}

func (c *cell) set(v int) {
	if c.v == v {
		return
	}
	c.bus.Emit(Event{Op: opCellSet, Receiver: c, Args: []any{c.v, v}})
	c.v = v
}

func TestRecorderUndoRedo(t *testing.T) {
	bus := NewEventBus()
	rec := NewRecorder(bus, RecorderConfig{})
	defer rec.Close()
	c := &cell{bus: bus}

	rec.Begin()
	c.set(1)
	c.set(2)
	rec.Commit()

	if undo, _ := rec.Depth(); undo != 1 {
		t.Fatalf("expected one transaction, got %d", undo)
	}
	if !rec.Undo() {
		t.Fatalf("undo failed")
	}
	if c.v != 0 {
		t.Fatalf("undo should restore 0, got %d", c.v)
	}
	if !rec.Redo() {
		t.Fatalf("redo failed")
	}
	if c.v != 2 {
		t.Fatalf("redo should restore 2, got %d", c.v)
	}
}

func TestRecorderEmptyTransactionDiscarded(t *testing.T) {
	bus := NewEventBus()
	rec := NewRecorder(bus, RecorderConfig{})
	defer rec.Close()

	rec.Begin()
	rec.Commit()
	if undo, _ := rec.Depth(); undo != 0 {
		t.Fatalf("empty transaction must be discarded")
	}
	if rec.Undo() {
		t.Fatalf("nothing to undo")
	}
}

func TestRecorderNewChangeInvalidatesRedo(t *testing.T) {
	bus := NewEventBus()
	rec := NewRecorder(bus, RecorderConfig{})
	defer rec.Close()
	c := &cell{bus: bus}

	rec.Begin()
	c.set(1)
	rec.Commit()
	rec.Undo()

	rec.Begin()
	c.set(5)
	rec.Commit()
	if _, redo := rec.Depth(); redo != 0 {
		t.Fatalf("new change must clear the redo stack")
	}
}

func TestRecorderDepthCap(t *testing.T) {
	bus := NewEventBus()
	rec := NewRecorder(bus, RecorderConfig{MaxDepth: 2})
	defer rec.Close()
	c := &cell{bus: bus}

	for i := 1; i <= 5; i++ {
		rec.Begin()
		c.set(i)
		rec.Commit()
	}
	if undo, _ := rec.Depth(); undo != 2 {
		t.Fatalf("depth cap not enforced: %d", undo)
	}
}
