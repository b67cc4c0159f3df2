/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package diag carries diagnostic events out of the engine: conditions that
// are not errors for the caller but should never pass silently (bounded
// iteration truncation, suppressed re-enqueues, dropped singular-matrix
// writes, non-convergent equations).
//
// Reporting never blocks: the collector drops events when its queue is full
// and counts the drops.
package diag

import (
	"log/slog"
	"sync"
	"time"

	applog "diagramkit/internal/log"
)

// Event kinds.
const (
	KindBudgetExceeded   = "solver.budget-exceeded"
	KindRequeueSuppressed = "solver.requeue-suppressed"
	KindNonConvergent    = "solver.non-convergent"
	KindSingularMatrix   = "projection.singular-matrix"
	KindUpdateHookFailed = "canvas.update-hook-failed"
)

// Event is one diagnostic occurrence.
type Event struct {
	Kind   string
	Detail string
	TS     time.Time
}

// Reporter receives diagnostic events.
type Reporter interface {
	Report(Event)
}

type nop struct{}

func (nop) Report(Event) {}

// Nop returns a reporter that discards everything.
func Nop() Reporter { return nop{} }

// LogReporter writes each event as a warning log line.
type LogReporter struct {
	log *slog.Logger
}

func NewLogReporter() *LogReporter {
	return &LogReporter{log: applog.WithComponent("diag")}
}

func (r *LogReporter) Report(e Event) {
	r.log.Warn("diagnostic", "kind", e.Kind, "detail", e.Detail)
}

// Collector buffers events on a bounded queue and hands them to a sink from
// a single background goroutine. Report never blocks; overflow is counted.
type Collector struct {
	sink Reporter
	q    chan Event

	mu      sync.Mutex
	dropped int

	once    sync.Once
	started bool
	closed  chan struct{}
	done    chan struct{}
}

// NewCollector creates a collector with the given queue depth (minimum 1).
func NewCollector(sink Reporter, depth int) *Collector {
	if depth < 1 {
		depth = 1
	}
	return &Collector{
		sink:   sink,
		q:      make(chan Event, depth),
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the delivery goroutine.
func (c *Collector) Start() {
	c.once.Do(func() {
		c.started = true
		go func() {
			defer close(c.done)
			for {
				select {
				case e := <-c.q:
					c.sink.Report(e)
				case <-c.closed:
					for {
						select {
						case e := <-c.q:
							c.sink.Report(e)
						default:
							return
						}
					}
				}
			}
		}()
	})
}

// Report enqueues e, stamping TS when unset. Drops on overflow.
func (c *Collector) Report(e Event) {
	if e.TS.IsZero() {
		e.TS = time.Now()
	}
	select {
	case c.q <- e:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
}

// Dropped returns the number of events lost to overflow.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Close drains the queue and stops the delivery goroutine.
func (c *Collector) Close() {
	if !c.started {
		return
	}
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	<-c.done
}
