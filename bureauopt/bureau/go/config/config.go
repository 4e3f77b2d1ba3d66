// Copyright 2010-2024 Google LLC
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the solver and output settings of bureau_opt from a
// YAML file. Command-line flags override what the file sets.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration of a run.
type Config struct {
	Solver SolverConfig `yaml:"solver"`
	Output OutputConfig `yaml:"output"`
}

// SolverConfig configures the MIP solver.
type SolverConfig struct {
	// Binary is the path or PATH name of the CBC executable.
	// Default: cbc
	Binary string `yaml:"binary"`

	// TimeLimit bounds the solve, as a Go duration ("90s", "5m"). "0" or ""
	// means no limit, so the solve runs to proven optimality.
	// Default: 0
	TimeLimit string `yaml:"time_limit"`

	// Threads is the number of search threads; 0 leaves it to the solver.
	Threads int `yaml:"threads"`

	// RelativeGap stops the search once the incumbent is within this relative
	// distance of the bound. Negative leaves it to the solver.
	// Default: -1
	RelativeGap float64 `yaml:"relative_gap"`

	// LogOutput forwards the solver log to stderr.
	LogOutput bool `yaml:"log_output"`
}

// OutputConfig configures what a run writes besides the schedule.
type OutputConfig struct {
	// LPFile, when set, receives the model in CPLEX LP format.
	LPFile string `yaml:"lp_file"`

	// ReportFile, when set, receives a JSON summary of the solve.
	ReportFile string `yaml:"report_file"`

	// Verify simulates the decoded schedule before writing it.
	// Default: true
	Verify bool `yaml:"verify"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Solver: SolverConfig{
			Binary:      "cbc",
			TimeLimit:   "0",
			RelativeGap: -1,
		},
		Output: OutputConfig{
			Verify: true,
		},
	}
}

// Load reads the file at `path` over the defaults. Unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML `data` over the defaults and expands ${VAR} references in
// paths.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

func (c *Config) expandVariables() {
	c.Solver.Binary = expandVars(c.Solver.Binary)
	c.Output.LPFile = expandVars(c.Output.LPFile)
	c.Output.ReportFile = expandVars(c.Output.ReportFile)
}

// TimeLimit returns the parsed solver time limit; 0 means none.
func (c *Config) TimeLimit() (time.Duration, error) {
	if c.Solver.TimeLimit == "" || c.Solver.TimeLimit == "0" {
		return 0, nil
	}
	return time.ParseDuration(c.Solver.TimeLimit)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Solver.Binary == "" {
		errs = append(errs, errors.New("solver.binary is required"))
	}
	if d, err := c.TimeLimit(); err != nil {
		errs = append(errs, fmt.Errorf("solver.time_limit: %w", err))
	} else if d < 0 {
		errs = append(errs, fmt.Errorf("solver.time_limit %v is negative", d))
	}
	if c.Solver.Threads < 0 {
		errs = append(errs, fmt.Errorf("solver.threads %d is negative", c.Solver.Threads))
	}
	if c.Solver.RelativeGap >= 1 {
		errs = append(errs, fmt.Errorf("solver.relative_gap %v must be below 1", c.Solver.RelativeGap))
	}
	return errors.Join(errs...)
}

// Parameters converts the solver section to solve parameters.
func (c *Config) Parameters() (*mip.Parameters, error) {
	d, err := c.TimeLimit()
	if err != nil {
		return nil, err
	}
	return &mip.Parameters{
		TimeLimit:    d,
		Threads:      c.Solver.Threads,
		RelativeGap:  c.Solver.RelativeGap,
		EnableOutput: c.Solver.LogOutput,
	}, nil
}
