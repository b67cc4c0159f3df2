/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package log provides slog-based logging for the engine. Every engine
// component logs through a component-scoped logger (solver, canvas, state,
// diag); hosts configure level, format and an optional rotated log file once
// at startup via Init.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"diagramkit/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger initialization. Values usually come from the
// config file or from the environment:
//
//   - DK_LOG_LEVEL=debug|info|warn|error
//   - DK_LOG_FORMAT=console|json
//   - DK_LOG_FILE=<path> (enables rotated JSON file logging)
//   - DK_LOG_SOURCE=true|false (include source positions, JSON output only)
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
}

var defaultLogger atomic.Pointer[slog.Logger]

// L returns the default logger, initializing it from the environment on
// first use.
func L() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return defaultLogger.Load()
}

// Init configures the default logger and slog.Default. The console stream
// goes to stderr; when a file is configured, a rotated JSON copy of every
// record is written as well.
func Init(opts Options) {
	level := parseLevel(opts.Level)

	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
	} else {
		h = newConsoleHandler(os.Stderr, level)
	}
	if file := strings.TrimSpace(opts.File); file != "" {
		rotated := &lj.Logger{Filename: file, MaxSize: 20, MaxBackups: 5, MaxAge: 30}
		fh := slog.NewJSONHandler(rotated, &slog.HandlerOptions{Level: level, AddSource: opts.AddSource})
		h = fanout{h, fh}
	}

	l := slog.New(h).With(
		slog.String("app", "diagramkit"),
		slog.String("ver", version.String()),
	)
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

// FromEnv builds Options from environment variables.
func FromEnv() Options {
	return Options{
		Level:     envOr("DK_LOG_LEVEL", "info"),
		Format:    envOr("DK_LOG_FORMAT", "console"),
		AddSource: isTrue(os.Getenv("DK_LOG_SOURCE")),
		File:      os.Getenv("DK_LOG_FILE"),
	}
}

// WithComponent returns a logger carrying the component attribute.
func WithComponent(name string) *slog.Logger {
	return L().With(slog.String("component", name))
}

// WithOperation annotates l with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger {
	return l.With(slog.String("op", op))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout duplicates records across handlers. Enabled when any member is;
// Handle reports the first error but still reaches every member that is
// enabled for the record's level; members below it are skipped.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// consoleHandler prints compact one-line records:
//
//	15:04:05.000 WARN  solver: constraint re-enqueue suppressed limit=100
//
// The component attribute is promoted in front of the message; everything
// else is appended as key=value pairs, group names joined with dots.
type consoleHandler struct {
	w      io.Writer
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, level slog.Level) *consoleHandler {
	return &consoleHandler{w: w, level: level}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	var component string
	var pairs []string
	prefix := strings.Join(h.groups, ".")
	collect := func(a slog.Attr) {
		if a.Key == "component" && prefix == "" {
			component = a.Value.String()
			return
		}
		key := a.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		pairs = append(pairs, key+"="+formatValue(a.Value))
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		collect(a)
		return true
	})

	var b strings.Builder
	b.Grow(128)
	b.WriteString(ts.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	if component != "" {
		b.WriteString(component)
		b.WriteString(": ")
	}
	b.WriteString(r.Message)
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	b.WriteByte('\n')
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &n
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	n := *h
	n.groups = append(append([]string{}, h.groups...), name)
	n.attrs = append([]slog.Attr{}, h.attrs...)
	return &n
}

// levelTag pads level names to a fixed width so messages line up.
func levelTag(l slog.Level) string {
	switch {
	case l < slog.LevelInfo:
		return "DEBUG"
	case l < slog.LevelWarn:
		return "INFO "
	case l < slog.LevelError:
		return "WARN "
	default:
		return "ERROR"
	}
}

// formatValue renders an attribute value, quoting strings with spaces.
func formatValue(v slog.Value) string {
	s := v.String()
	if v.Kind() == slog.KindString && strings.ContainsAny(s, " \t") {
		return strconv.Quote(s)
	}
	return s
}
