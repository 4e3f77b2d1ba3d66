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

// Package cbc solves mip models with the Coin-OR CBC command line solver.
//
// The model is written in LP format to a temporary directory, CBC is run on it,
// and the solution file it writes is parsed back into a mip.Response.
package cbc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	log "github.com/golang/glog"
)

// DefaultBinary is the name looked up on PATH when no binary is configured.
const DefaultBinary = "cbc"

// interruptGrace is how long CBC gets to write its incumbent after SIGINT.
const interruptGrace = 10 * time.Second

// Solver runs the CBC binary. The zero value uses DefaultBinary.
type Solver struct {
	// Binary is the path or PATH name of the CBC executable.
	Binary string
	// TempDir is where model and solution files are written; "" uses os.TempDir.
	TempDir string
	// KeepFiles leaves the working directory in place for inspection.
	KeepFiles bool
}

// New returns a Solver running `binary`.
func New(binary string) *Solver {
	return &Solver{Binary: binary}
}

func (s *Solver) binary() string {
	if s == nil || s.Binary == "" {
		return DefaultBinary
	}
	return s.Binary
}

// Available reports whether the CBC binary can be found.
func (s *Solver) Available() bool {
	_, err := exec.LookPath(s.binary())
	return err == nil
}

func commandArgs(lpPath, solPath string, params *mip.Parameters) []string {
	args := []string{lpPath}
	if params.TimeLimit > 0 {
		args = append(args, "-sec", strconv.FormatFloat(params.TimeLimit.Seconds(), 'g', -1, 64))
	}
	if params.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(params.Threads))
	}
	if params.RelativeGap >= 0 {
		args = append(args, "-ratioGap", strconv.FormatFloat(params.RelativeGap, 'g', -1, 64))
	}
	if !params.EnableOutput {
		args = append(args, "-log", "0")
	}
	return append(args, "-solve", "-solu", solPath)
}

// Solve writes `m` to an LP file, runs CBC on it and parses its solution.
//
// Cancelling ctx sends SIGINT to CBC, which stops the search and still writes
// the best incumbent; the response then has Interrupted set.
func (s *Solver) Solve(ctx context.Context, m *mip.Model, params *mip.Parameters) (*mip.Response, error) {
	if params == nil {
		params = mip.DefaultParameters()
	}
	if err := m.Validate(); err != nil {
		log.Errorf("cbc: %v", err)
		return &mip.Response{Status: mip.ModelInvalid, SolverName: "cbc"}, nil
	}

	dir, err := os.MkdirTemp(s.TempDir, "cbc-")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	if s.KeepFiles {
		log.Infof("cbc: keeping work files in %s", dir)
	} else {
		defer os.RemoveAll(dir)
	}

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	f, err := os.Create(lpPath)
	if err != nil {
		return nil, fmt.Errorf("creating LP file: %w", err)
	}
	if err := mip.WriteLpFile(f, m); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing LP file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing LP file: %w", err)
	}

	args := commandArgs(lpPath, solPath, params)
	cmd := exec.CommandContext(ctx, s.binary(), args...)
	cmd.Dir = dir
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = interruptGrace
	if params.EnableOutput {
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
	}

	log.V(1).Infof("cbc: running %s %v", s.binary(), args)
	start := time.Now()
	runErr := cmd.Run()
	wall := time.Since(start)
	interrupted := ctx.Err() != nil

	sol, err := os.Open(solPath)
	if err != nil {
		if runErr != nil {
			if interrupted {
				// Killed before CBC could write anything.
				return &mip.Response{Status: mip.NotSolved, Interrupted: true, WallTime: wall, SolverName: "cbc"}, nil
			}
			return nil, fmt.Errorf("running %s: %w", s.binary(), runErr)
		}
		return nil, fmt.Errorf("cbc wrote no solution file: %w", err)
	}
	defer sol.Close()

	resp, err := ParseSolution(sol, m)
	if err != nil {
		return nil, err
	}
	if runErr != nil && !interrupted {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", s.binary(), runErr)
		}
		log.Warningf("cbc: exited with %v after writing a solution", runErr)
	}
	if interrupted {
		resp.Interrupted = true
	}
	resp.WallTime = wall
	log.V(1).Infof("cbc: status %v objective %v in %v", resp.Status, resp.ObjectiveValue, wall)
	return resp, nil
}
