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

package cbc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
)

// ErrSolutionFormat is returned when a CBC solution file cannot be parsed.
var ErrSolutionFormat = errors.New("malformed cbc solution file")

// header is the decoded first line of a solution file.
type header struct {
	status    mip.Status
	timeLimit bool
	ctrlC     bool
	objective float64
}

// parseHeader decodes lines such as
//
//	Optimal - objective value 5.00000000
//	Stopped on time - objective value 12.00000000
//	Stopped on time (no integer solution - continuous used) - objective value 3.5
func parseHeader(line string) (header, error) {
	var h header
	statusText, objText, found := strings.Cut(line, "objective value")
	if found {
		v, err := strconv.ParseFloat(strings.TrimSpace(objText), 64)
		if err != nil {
			return h, fmt.Errorf("objective in %q: %w", line, ErrSolutionFormat)
		}
		h.objective = v
	}
	statusText = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(statusText), "-")))

	switch {
	case strings.HasPrefix(statusText, "optimal"):
		h.status = mip.Optimal
	case strings.Contains(statusText, "infeasible"):
		h.status = mip.Infeasible
	case strings.HasPrefix(statusText, "unbounded"):
		h.status = mip.Unbounded
	case strings.HasPrefix(statusText, "stopped"):
		h.timeLimit = strings.Contains(statusText, "on time")
		h.ctrlC = strings.Contains(statusText, "ctrl-c")
		if strings.Contains(statusText, "no integer solution") {
			h.status = mip.NotSolved
		} else {
			h.status = mip.Feasible
		}
	case statusText == "":
		return h, fmt.Errorf("empty status line: %w", ErrSolutionFormat)
	default:
		h.status = mip.Abnormal
	}
	return h, nil
}

// ParseSolution reads a CBC solution file for model `m`. Columns CBC does not
// print are zero. Values are only attached when the status carries a feasible
// solution.
func ParseSolution(r io.Reader, m *mip.Model) (*mip.Response, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("empty file: %w", ErrSolutionFormat)
	}
	h, err := parseHeader(sc.Text())
	if err != nil {
		return nil, err
	}
	resp := &mip.Response{
		Status:           h.status,
		ObjectiveValue:   h.objective,
		TimeLimitReached: h.timeLimit,
		Interrupted:      h.ctrlC,
		SolverName:       "cbc",
	}

	byName := make(map[string]mip.VarIndex, len(m.Variables))
	for i, v := range m.Variables {
		byName[v.Name] = mip.VarIndex(i)
	}
	values := make([]float64, len(m.Variables))
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		// Rows violating their bounds are flagged with a leading "**".
		line = strings.TrimSpace(strings.TrimPrefix(line, "**"))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, ErrSolutionFormat)
		}
		ind, ok := byName[fields[1]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown column %q: %w", lineNo, fields[1], ErrSolutionFormat)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value %q: %w", lineNo, fields[2], ErrSolutionFormat)
		}
		values[ind] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if resp.Status.HasSolution() {
		resp.Values = values
	}
	return resp, nil
}
