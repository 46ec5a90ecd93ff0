// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vmconfig loads scheduler and step-loop runtime tunables from
// YAML. It is deliberately small: the VM itself never reads a config
// file, a host embedding it does, then passes the decoded Config to
// VM.Configure.
package vmconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime tunables a host may want to vary without a
// recompile. MaxTasks and TraceEnabled are applied by VM.Configure;
// RoundRobinSeed is decoded but nothing reads it, and the scheduler's
// ready queue stays a plain FIFO whatever its value.
type Config struct {
	MaxTasks       int    `yaml:"max_tasks"`
	TraceEnabled   bool   `yaml:"trace_enabled"`
	RoundRobinSeed uint64 `yaml:"round_robin_seed"`
}

// Default returns the configuration kont uses when no file is loaded:
// unbounded tasks, tracing off, seed zero.
func Default() Config {
	return Config{MaxTasks: 0, TraceEnabled: false, RoundRobinSeed: 0}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so a file may specify only the fields it wants to override.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("vmconfig: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("vmconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}
