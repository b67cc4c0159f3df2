/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package diag

import (
	"sync"
	"testing"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Report(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestCollectorDeliversInOrder(t *testing.T) {
	sink := &captureSink{}
	c := NewCollector(sink, 16)
	c.Start()
	c.Report(Event{Kind: KindBudgetExceeded})
	c.Report(Event{Kind: KindNonConvergent})
	c.Close()

	if sink.len() != 2 {
		t.Fatalf("expected 2 delivered events, got %d", sink.len())
	}
	if sink.events[0].Kind != KindBudgetExceeded || sink.events[1].Kind != KindNonConvergent {
		t.Fatalf("order not preserved: %+v", sink.events)
	}
	if sink.events[0].TS.IsZero() {
		t.Fatalf("timestamp must be stamped")
	}
}

func TestCollectorDropsOnOverflowWithoutBlocking(t *testing.T) {
	sink := &captureSink{}
	c := NewCollector(sink, 1)
	// Not started: the queue fills and further reports must drop, not block.
	c.Report(Event{Kind: KindSingularMatrix})
	c.Report(Event{Kind: KindSingularMatrix})
	c.Report(Event{Kind: KindSingularMatrix})
	if c.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", c.Dropped())
	}
	c.Close() // no-op when never started
}

func TestNopReporter(t *testing.T) {
	Nop().Report(Event{Kind: KindRequeueSuppressed}) // must not panic
}
