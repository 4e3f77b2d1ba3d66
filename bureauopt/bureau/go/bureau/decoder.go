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

package bureau

import (
	"fmt"
	"math"
	"sort"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
)

// startResolution is the grid solver start times are snapped to before
// sorting, so that values differing only by floating point noise tie.
const startResolution = 1e-6

// Schedule is a decoded solution.
type Schedule struct {
	// Makespan is Fmax rounded to the nearest integer.
	Makespan int64
	// Sequences lists, per bureaucrat, the citizens in the order they are served.
	Sequences [][]int
	// Starts holds the rounded start time of every task, per citizen and position.
	Starts [][]int64
}

// Decode reads the per-bureaucrat service order and the makespan out of a
// solver response for this formulation.
//
// Tasks on a bureaucrat are sorted by start time, then by end time, so that a
// zero-duration task ending at t precedes a task starting at t. Remaining ties,
// between zero-duration tasks at the same instant, are ordered by citizen
// index, then by task position.
func (f *Formulation) Decode(resp *mip.Response) (*Schedule, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response: %w", ErrUnsolvedModel)
	}
	if !resp.Status.HasSolution() {
		return nil, fmt.Errorf("status %v: %w", resp.Status, ErrUnsolvedModel)
	}
	if n := f.mb.NumVariables(); len(resp.Values) != n {
		return nil, fmt.Errorf("response has %d values for %d variables: %w", len(resp.Values), n, ErrUnsolvedModel)
	}

	startOf := func(ref TaskRef) float64 {
		v := mip.SolutionValue(resp, f.start[ref.Citizen][ref.Position])
		return math.Round(v/startResolution) * startResolution
	}
	endOf := func(ref TaskRef) float64 {
		return startOf(ref) + float64(f.inst.Task(ref).Duration)
	}

	s := &Schedule{
		Makespan:  int64(math.Round(mip.SolutionValue(resp, f.fmax))),
		Sequences: make([][]int, len(f.groups)),
		Starts:    make([][]int64, len(f.start)),
	}
	for b, group := range f.groups {
		refs := append([]TaskRef(nil), group...)
		sort.Slice(refs, func(x, y int) bool {
			sx, sy := startOf(refs[x]), startOf(refs[y])
			if sx != sy {
				return sx < sy
			}
			if ex, ey := endOf(refs[x]), endOf(refs[y]); ex != ey {
				return ex < ey
			}
			if refs[x].Citizen != refs[y].Citizen {
				return refs[x].Citizen < refs[y].Citizen
			}
			return refs[x].Position < refs[y].Position
		})
		seq := make([]int, len(refs))
		for k, ref := range refs {
			seq[k] = ref.Citizen
		}
		s.Sequences[b] = seq
	}
	for i, row := range f.start {
		s.Starts[i] = make([]int64, len(row))
		for j, v := range row {
			s.Starts[i][j] = int64(math.Round(mip.SolutionValue(resp, v)))
		}
	}
	return s, nil
}
