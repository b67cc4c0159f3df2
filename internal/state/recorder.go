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

import applog "diagramkit/internal/log"

// transaction is one undoable group of inverse events, recorded in the order
// the original mutations happened.
type transaction struct {
	inverses []Event
}

// RecorderConfig controls depth caps.
type RecorderConfig struct {
	// MaxDepth limits the number of transactions kept (0 means unlimited).
	MaxDepth int
}

// Recorder subscribes to an EventBus and journals inverse events into
// transactions. Undo applies the most recent transaction's inverses in
// reverse order; the mutations performed by the undo are themselves recorded
// as a redo transaction.
//
// The engine core never manages undo stacks itself; the Recorder is a
// host-side helper built on the observable-state contract.
type Recorder struct {
	cfg    RecorderConfig
	cancel func()

	undo []transaction
	redo []transaction

	open      *transaction
	replaying bool
	redoing   bool
}

// NewRecorder attaches a recorder to bus.
func NewRecorder(bus *EventBus, cfg RecorderConfig) *Recorder {
	r := &Recorder{cfg: cfg}
	r.cancel = bus.Subscribe(r.onInverse)
	return r
}

// Close detaches the recorder from its bus.
func (r *Recorder) Close() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Recorder) onInverse(inv Event) {
	if r.open == nil {
		return
	}
	r.open.inverses = append(r.open.inverses, inv)
}

// Begin opens a transaction; subsequent mutations are journaled until Commit.
func (r *Recorder) Begin() {
	if r.open != nil {
		return
	}
	r.open = &transaction{}
}

// Commit closes the open transaction and pushes it on the undo stack. Empty
// transactions are discarded. Any new change invalidates the redo stack.
func (r *Recorder) Commit() {
	tx := r.open
	r.open = nil
	if tx == nil || len(tx.inverses) == 0 {
		return
	}
	if r.replaying {
		r.redo = append(r.redo, *tx)
		return
	}
	r.undo = append(r.undo, *tx)
	if !r.redoing {
		r.redo = nil
	}
	if r.cfg.MaxDepth > 0 && len(r.undo) > r.cfg.MaxDepth {
		r.undo = append([]transaction{}, r.undo[len(r.undo)-r.cfg.MaxDepth:]...)
	}
}

// Undo applies the latest transaction's inverse events in reverse order.
// Returns false when there is nothing to undo.
func (r *Recorder) Undo() bool {
	if len(r.undo) == 0 {
		return false
	}
	tx := r.undo[len(r.undo)-1]
	r.undo = r.undo[:len(r.undo)-1]

	r.replaying = true
	r.Begin()
	r.apply(tx)
	r.Commit()
	r.replaying = false
	return true
}

// Redo re-applies the latest undone transaction.
func (r *Recorder) Redo() bool {
	if len(r.redo) == 0 {
		return false
	}
	tx := r.redo[len(r.redo)-1]
	r.redo = r.redo[:len(r.redo)-1]

	r.redoing = true
	r.Begin()
	r.apply(tx)
	r.Commit()
	r.redoing = false
	return true
}

func (r *Recorder) apply(tx transaction) {
	for i := len(tx.inverses) - 1; i >= 0; i-- {
		if err := Apply(tx.inverses[i]); err != nil {
			applog.WithComponent("state").Error("undo apply failed", "op", tx.inverses[i].Op, "err", err)
		}
	}
}

// Depth returns the sizes of the undo and redo stacks.
func (r *Recorder) Depth() (undo, redo int) { return len(r.undo), len(r.redo) }
