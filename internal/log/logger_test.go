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
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Init with a file target writes JSON records carrying the static and
// contextual attributes.
func TestInitWritesJSONFileRecords(t *testing.T) {
	fpath := filepath.Join(os.TempDir(), fmt.Sprintf("dk_log_%d.json", time.Now().UnixNano()))
	t.Cleanup(func() { _ = os.Remove(fpath) })

	Init(Options{Level: "debug", Format: "json", File: fpath})

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.Info("hello world", slog.String("k", "v"))

	data, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines written")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if m["app"] != "diagramkit" {
		t.Fatalf("app attr = %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("ver attr missing")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" || m["k"] != "v" {
		t.Fatalf("context attrs missing: %v", m)
	}
	if m["msg"] != "hello world" {
		t.Fatalf("msg = %v", m["msg"])
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("DK_LOG_LEVEL", "warn")
	t.Setenv("DK_LOG_FORMAT", "json")
	t.Setenv("DK_LOG_SOURCE", "true")
	// DK_LOG_FILE intentionally unset

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := envOr("DK_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("envOr fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"  WARN ": slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsTrue(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		if !isTrue(v) {
			t.Fatalf("isTrue(%q) = false", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off"} {
		if isTrue(v) {
			t.Fatalf("isTrue(%q) = true", v)
		}
	}
}
