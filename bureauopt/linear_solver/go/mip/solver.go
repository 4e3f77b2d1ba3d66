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

package mip

import (
	"context"
	"time"
)

// Status is the outcome of a solve.
type Status int

// Possible solve outcomes.
const (
	// NotSolved means a limit or an interruption stopped the solve before any
	// feasible solution was found.
	NotSolved Status = iota
	Optimal
	// Feasible means a limit or an interruption stopped the solve with an
	// incumbent that is not proven optimal.
	Feasible
	Infeasible
	Unbounded
	ModelInvalid
	Abnormal
)

var statusNames = map[Status]string{
	NotSolved:    "NOT_SOLVED",
	Optimal:      "OPTIMAL",
	Feasible:     "FEASIBLE",
	Infeasible:   "INFEASIBLE",
	Unbounded:    "UNBOUNDED",
	ModelInvalid: "MODEL_INVALID",
	Abnormal:     "ABNORMAL",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// HasSolution reports whether a response with this status carries a feasible
// assignment.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// Parameters controls a solve. The zero value leaves every setting to the
// solver's defaults.
type Parameters struct {
	// TimeLimit bounds the wall time of the solve; 0 means none.
	TimeLimit time.Duration
	// Threads is the number of search threads; 0 means solver default.
	Threads int
	// RelativeGap stops the search once the incumbent is proven within this
	// relative distance of the bound; negative means solver default.
	RelativeGap float64
	// EnableOutput forwards the solver log to stderr.
	EnableOutput bool
}

// DefaultParameters returns parameters that leave everything to the solver.
func DefaultParameters() *Parameters {
	return &Parameters{RelativeGap: -1}
}

// Response is the result of a solve.
type Response struct {
	Status         Status
	ObjectiveValue float64
	// Values holds one value per model variable, indexed by VarIndex. It is empty
	// when Status.HasSolution() is false.
	Values []float64
	// TimeLimitReached and Interrupted tell why a solve stopped early.
	TimeLimitReached bool
	Interrupted      bool
	WallTime         time.Duration
	// SolverName identifies the backend that produced the response.
	SolverName string
}

// Solver solves models. Implementations must honour ctx cancellation by
// stopping the search and reporting the best incumbent, if any, with the
// Interrupted flag set.
type Solver interface {
	Solve(ctx context.Context, m *Model, params *Parameters) (*Response, error)
}

// SolutionValue returns the value of LinearArgument `la` in the response.
func SolutionValue(r *Response, la LinearArgument) float64 {
	return la.evaluateSolutionValue(r.Values)
}

// SolutionBooleanValue returns the value of binary Var `v` in the response.
func SolutionBooleanValue(r *Response, v Var) bool {
	return v.evaluateSolutionValue(r.Values) > 0.5
}
