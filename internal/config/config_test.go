/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Solver.IterationBudget != 1000 || cfg.Solver.RequeueLimit != 100 {
		t.Fatalf("unexpected solver defaults: %+v", cfg.Solver)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestEnvOverridesSolver(t *testing.T) {
	t.Setenv(EnvSolverIterationBudget, "250")
	t.Setenv(EnvSolverRequeueLimit, "7")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Solver.IterationBudget != 250 {
		t.Fatalf("IterationBudget = %d, want 250", cfg.Solver.IterationBudget)
	}
	if cfg.Solver.RequeueLimit != 7 {
		t.Fatalf("RequeueLimit = %d, want 7", cfg.Solver.RequeueLimit)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvLogSource, "yes")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Logging.Source {
		t.Fatalf("Logging.Source expected true from env override")
	}
}

func TestEnvOverrideForReportsSource(t *testing.T) {
	old := os.Getenv(EnvSolverRequeueLimit)
	t.Setenv(EnvSolverRequeueLimit, "11")
	defer os.Setenv(EnvSolverRequeueLimit, old)
	name, ok := EnvOverrideFor("solver.requeue_limit")
	if !ok || name != EnvSolverRequeueLimit {
		t.Fatalf("EnvOverrideFor mismatch: %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("nonexistent.key"); ok {
		t.Fatalf("unexpected override for unknown key")
	}
}

func TestIgnoresInvalidEnvNumbers(t *testing.T) {
	t.Setenv(EnvSolverIterationBudget, "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Solver.IterationBudget != Defaults().Solver.IterationBudget {
		t.Fatalf("invalid env number should be ignored, got %d", cfg.Solver.IterationBudget)
	}
}
