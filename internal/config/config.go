/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config holds the user-editable configuration persisted to a YAML
// file in the user scope. Environment variables are treated as read-only
// overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// SolverConfig tunes the constraint solver's safety valves. Zero values mean
// "use the built-in default".
type SolverConfig struct {
	// IterationBudget bounds the number of constraint solves in one Solve()
	// pass before the pass is reported as unresolvable.
	IterationBudget int `yaml:"iteration_budget"`
	// RequeueLimit bounds how often a single constraint may be re-enqueued
	// within one Solve() pass; further enqueues are suppressed and logged.
	RequeueLimit int `yaml:"requeue_limit"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Logging       LoggingConfig `yaml:"logging"`
	Solver        SolverConfig  `yaml:"solver"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		Solver:        SolverConfig{IterationBudget: 1000, RequeueLimit: 100},
	}
}

// Env var names used as overrides.
const (
	EnvLogLevel  = "DK_LOG_LEVEL"
	EnvLogFormat = "DK_LOG_FORMAT"
	EnvLogSource = "DK_LOG_SOURCE"
	EnvLogFile   = "DK_LOG_FILE"

	EnvSolverIterationBudget = "DK_SOLVER_ITERATION_BUDGET"
	EnvSolverRequeueLimit    = "DK_SOLVER_REQUEUE_LIMIT"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Diagramkit")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Diagramkit")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "diagramkit")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	if src.Solver.IterationBudget > 0 {
		dst.Solver.IterationBudget = src.Solver.IterationBudget
	}
	if src.Solver.RequeueLimit > 0 {
		dst.Solver.RequeueLimit = src.Solver.RequeueLimit
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSolverIterationBudget)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Solver.IterationBudget = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSolverRequeueLimit)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Solver.RequeueLimit = n
		}
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	case "solver.iteration_budget":
		if os.Getenv(EnvSolverIterationBudget) != "" {
			return EnvSolverIterationBudget, true
		}
	case "solver.requeue_limit":
		if os.Getenv(EnvSolverRequeueLimit) != "" {
			return EnvSolverRequeueLimit, true
		}
	}
	return "", false
}
