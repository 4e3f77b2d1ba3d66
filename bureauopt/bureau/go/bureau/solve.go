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
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	log "github.com/golang/glog"
)

// Result is the outcome of a solve.
type Result struct {
	Status           mip.Status
	TimeLimitReached bool
	Interrupted      bool
	ObjectiveValue   float64
	WallTime         time.Duration
	SolverName       string

	NumVariables   int
	NumConstraints int
	NumBinaries    int

	// Schedule is nil when the solver stopped without an incumbent.
	Schedule *Schedule
}

// Solve builds the makespan formulation of `inst` and solves it with `solver`.
func Solve(ctx context.Context, inst *Instance, solver mip.Solver, params *mip.Parameters) (*Result, error) {
	f, err := Build(inst)
	if err != nil {
		return nil, err
	}
	return f.Solve(ctx, solver, params)
}

// Solve solves the formulation with `solver` and decodes the incumbent.
//
// An infeasible model returns ErrInfeasibleModel and a solver failure returns
// ErrSolverFailed. Stopping on a limit without an incumbent is not an error:
// the result has status NOT_SOLVED and a nil Schedule.
func (f *Formulation) Solve(ctx context.Context, solver mip.Solver, params *mip.Parameters) (*Result, error) {
	if solver == nil {
		return nil, errors.New("nil solver")
	}
	if params == nil {
		params = mip.DefaultParameters()
	}
	m, err := f.Model()
	if err != nil {
		return nil, err
	}

	log.Infof("solving %q: %d variables (%d binary), %d constraints", m.Name, len(m.Variables), m.NumIntegerVariables(), len(m.Constraints))
	resp, err := solver.Solve(ctx, m, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSolverFailed, err)
	}

	res := &Result{
		Status:           resp.Status,
		TimeLimitReached: resp.TimeLimitReached,
		Interrupted:      resp.Interrupted,
		ObjectiveValue:   resp.ObjectiveValue,
		WallTime:         resp.WallTime,
		SolverName:       resp.SolverName,
		NumVariables:     len(m.Variables),
		NumConstraints:   len(m.Constraints),
		NumBinaries:      m.NumIntegerVariables(),
	}
	log.Infof("%s finished with status %v in %v", resp.SolverName, resp.Status, resp.WallTime)

	switch resp.Status {
	case mip.Infeasible:
		return res, ErrInfeasibleModel
	case mip.Unbounded, mip.ModelInvalid, mip.Abnormal:
		return res, fmt.Errorf("status %v: %w", resp.Status, ErrSolverFailed)
	case mip.NotSolved:
		log.Warningf("solver stopped without a feasible schedule (time limit: %v, interrupted: %v)", resp.TimeLimitReached, resp.Interrupted)
		return res, nil
	}

	s, err := f.Decode(resp)
	if err != nil {
		return res, err
	}
	res.Schedule = s
	log.Infof("makespan %d (lower bound %d)", s.Makespan, f.inst.MakespanLowerBound())
	return res, nil
}
