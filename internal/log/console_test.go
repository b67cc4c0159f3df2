/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func record(level slog.Level, msg string, attrs ...slog.Attr) slog.Record {
	r := slog.NewRecord(time.Date(2025, 8, 6, 12, 30, 45, 0, time.UTC), level, msg, 0)
	r.AddAttrs(attrs...)
	return r
}

func TestConsoleHandlerLevelFilter(t *testing.T) {
	h := newConsoleHandler(&bytes.Buffer{}, slog.LevelWarn)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must pass at warn level")
	}
}

func TestConsoleHandlerLine(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelDebug)
	r := record(slog.LevelWarn, "boom",
		slog.Int("n", 42),
		slog.String("file", "a b.txt"),
	)
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "12:30:45.000") {
		t.Fatalf("timestamp missing: %q", out)
	}
	if !strings.Contains(out, "WARN ") || !strings.Contains(out, "boom") {
		t.Fatalf("level or message missing: %q", out)
	}
	if !strings.Contains(out, "n=42") {
		t.Fatalf("int attr missing: %q", out)
	}
	if !strings.Contains(out, `file="a b.txt"`) {
		t.Fatalf("spaced string must be quoted: %q", out)
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	var h slog.Handler = newConsoleHandler(&buf, slog.LevelDebug)
	h = h.WithAttrs([]slog.Attr{slog.String("component", "solver")})
	if err := h.Handle(context.Background(), record(slog.LevelInfo, "queue drained")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(buf.String(), "solver: queue drained") {
		t.Fatalf("component not promoted: %q", buf.String())
	}
}

func TestConsoleHandlerGroupPrefix(t *testing.T) {
	var buf bytes.Buffer
	var h slog.Handler = newConsoleHandler(&buf, slog.LevelDebug)
	h = h.WithGroup("grp")
	if err := h.Handle(context.Background(), record(slog.LevelInfo, "m", slog.Int("n", 7))); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(buf.String(), "grp.n=7") {
		t.Fatalf("group prefix missing: %q", buf.String())
	}
}

func TestFanoutRespectsMemberLevels(t *testing.T) {
	var a, b bytes.Buffer
	f := fanout{
		newConsoleHandler(&a, slog.LevelDebug),
		newConsoleHandler(&b, slog.LevelError),
	}
	if !f.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("fanout enabled when any member is")
	}
	if err := f.Handle(context.Background(), record(slog.LevelInfo, "only-a")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(a.String(), "only-a") {
		t.Fatalf("first handler must receive the record")
	}
	if b.Len() != 0 {
		t.Fatalf("second handler is below its level and must stay silent")
	}
}

func TestLevelTags(t *testing.T) {
	if levelTag(slog.LevelDebug) != "DEBUG" || levelTag(slog.LevelError) != "ERROR" {
		t.Fatalf("unexpected level tags")
	}
	if levelTag(slog.LevelInfo) != "INFO " || levelTag(slog.LevelWarn) != "WARN " {
		t.Fatalf("level tags must be width-padded")
	}
}
