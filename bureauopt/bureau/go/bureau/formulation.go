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

// Package bureau schedules citizens' journeys through bureaucrats so that the
// makespan is minimal.
//
// Each citizen visits bureaucrats in a fixed order, one task per visit, and a
// bureaucrat serves one citizen at a time. The problem is written as a mixed
// integer program with one start time per task and one binary ordering variable
// per pair of tasks sharing a bureaucrat; the "one at a time" rule is linearised
// with big-M constraints. The `Formulation` owns its own `mip.Builder`, so any
// number of formulations can be built side by side.
package bureau

import (
	"errors"
	"fmt"
	"math"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	log "github.com/golang/glog"
)

// OrderingVar is the binary deciding which of two tasks goes first on a
// bureaucrat. First.Citizen < Second.Citizen; value 1 means First goes first.
type OrderingVar struct {
	Bureaucrat int
	First      TaskRef
	Second     TaskRef
	Var        mip.Var
}

type orderingKey struct {
	bureaucrat, first, second int
}

// Formulation is the MIP model of an instance together with handles on its
// variables.
type Formulation struct {
	inst   *Instance
	mb     *mip.Builder
	bigM   float64
	groups [][]TaskRef

	fmax     mip.Var
	finish   []mip.Var
	start    [][]mip.Var
	ordering []OrderingVar
	// orderingIndex points at the first ordering variable of a citizen pair.
	orderingIndex map[orderingKey]int
}

// NewFormulation creates the variables and constraints of `inst`. The objective
// is left unset; see MinimizeMakespan and Build.
func NewFormulation(inst *Instance) (*Formulation, error) {
	if inst == nil {
		return nil, errors.New("nil instance")
	}
	f := &Formulation{
		inst:          inst,
		mb:            mip.NewBuilder("bureau"),
		bigM:          float64(inst.TotalDuration()),
		groups:        inst.TasksByBureaucrat(),
		orderingIndex: make(map[orderingKey]int),
	}
	f.addVariables()
	f.addFinishConstraints()
	f.addJourneyConstraints()
	f.addNoOverlapConstraints()

	if _, err := f.mb.Model(); err != nil {
		return nil, fmt.Errorf("building formulation: %w", err)
	}
	log.V(1).Infof("formulation: %d citizens, %d bureaucrats, %d tasks, %d ordering variables, %d constraints, M = %v",
		inst.CitizenCount(), inst.BureaucratCount(), inst.TaskCount(), len(f.ordering), f.mb.NumConstraints(), f.bigM)
	return f, nil
}

// Build creates the formulation of `inst` and sets the makespan objective.
func Build(inst *Instance) (*Formulation, error) {
	f, err := NewFormulation(inst)
	if err != nil {
		return nil, err
	}
	f.MinimizeMakespan()
	return f, nil
}

func (f *Formulation) addVariables() {
	inf := math.Inf(1)
	f.fmax = f.mb.NewContinuousVar(0, inf).WithName("Fmax")

	f.finish = make([]mip.Var, f.inst.BureaucratCount())
	for b := range f.finish {
		f.finish[b] = f.mb.NewContinuousVar(0, inf).WithName(fmt.Sprintf("F_%d", b))
	}

	f.start = make([][]mip.Var, f.inst.CitizenCount())
	for i, journey := range f.inst.journeys {
		f.start[i] = make([]mip.Var, len(journey))
		for j := range journey {
			f.start[i][j] = f.mb.NewContinuousVar(0, inf).WithName(fmt.Sprintf("start_%d_%d", i, j))
		}
	}
}

// end returns the expression start[i,j] + duration[i,j].
func (f *Formulation) end(ref TaskRef) *mip.LinearExpr {
	d := f.inst.Task(ref).Duration
	return mip.NewLinearExpr().Add(f.start[ref.Citizen][ref.Position]).AddConstant(float64(d))
}

func (f *Formulation) addFinishConstraints() {
	for i, journey := range f.inst.journeys {
		for j, t := range journey {
			ref := TaskRef{Citizen: i, Position: j}
			f.mb.AddLessOrEqual(f.end(ref), f.finish[t.Bureaucrat]).WithName(fmt.Sprintf("finish_%d_%d", i, j))
		}
	}
	for b, fb := range f.finish {
		f.mb.AddLessOrEqual(fb, f.fmax).WithName(fmt.Sprintf("makespan_%d", b))
	}
}

func (f *Formulation) addJourneyConstraints() {
	for i, journey := range f.inst.journeys {
		for j := 0; j+1 < len(journey); j++ {
			ref := TaskRef{Citizen: i, Position: j}
			f.mb.AddLessOrEqual(f.end(ref), f.start[i][j+1]).WithName(fmt.Sprintf("journey_%d_%d", i, j))
		}
	}
}

// addNoOverlapConstraints adds, per bureaucrat and per pair of tasks of
// distinct citizens on it, an ordering binary p and
//
//	end(first)  <= start(second) + M(1-p)
//	end(second) <= start(first)  + M p
//
// Two tasks of one citizen are already ordered by the journey constraints.
func (f *Formulation) addNoOverlapConstraints() {
	m := f.bigM
	for b, refs := range f.groups {
		log.V(2).Infof("bureaucrat %d serves %v", b, refs)
		for x := 0; x < len(refs); x++ {
			for y := x + 1; y < len(refs); y++ {
				first, second := refs[x], refs[y]
				if first.Citizen == second.Citizen {
					continue
				}
				key := orderingKey{b, first.Citizen, second.Citizen}
				suffix := fmt.Sprintf("%d_%d_%d", b, first.Citizen, second.Citizen)
				if _, dup := f.orderingIndex[key]; dup {
					suffix = fmt.Sprintf("%d_%d_%d_%d_%d", b, first.Citizen, first.Position, second.Citizen, second.Position)
				} else {
					f.orderingIndex[key] = len(f.ordering)
				}

				p := f.mb.NewBoolVar().WithName("precedes_" + suffix)
				f.ordering = append(f.ordering, OrderingVar{Bureaucrat: b, First: first, Second: second, Var: p})

				s1 := f.start[first.Citizen][first.Position]
				s2 := f.start[second.Citizen][second.Position]
				f.mb.AddLessOrEqual(f.end(first),
					mip.NewLinearExpr().Add(s2).AddConstant(m).AddTerm(p, -m)).WithName("first_" + suffix)
				f.mb.AddLessOrEqual(f.end(second),
					mip.NewLinearExpr().Add(s1).AddTerm(p, m)).WithName("second_" + suffix)
			}
		}
	}
}

// Instance returns the formulated instance.
func (f *Formulation) Instance() *Instance {
	return f.inst
}

// Builder returns the underlying model builder.
func (f *Formulation) Builder() *mip.Builder {
	return f.mb
}

// Model returns the built model.
func (f *Formulation) Model() (*mip.Model, error) {
	return f.mb.Model()
}

// BigM returns the constant deactivating one side of each disjunction.
func (f *Formulation) BigM() float64 {
	return f.bigM
}

// Makespan returns the Fmax variable.
func (f *Formulation) Makespan() mip.Var {
	return f.fmax
}

// Finish returns the finish time variable F[b] of bureaucrat b.
func (f *Formulation) Finish(b int) mip.Var {
	return f.finish[b]
}

// Start returns the start time variable of citizen i's task at position j.
func (f *Formulation) Start(i, j int) mip.Var {
	return f.start[i][j]
}

// Ordering returns all ordering variables, grouped by bureaucrat.
func (f *Formulation) Ordering() []OrderingVar {
	return append([]OrderingVar(nil), f.ordering...)
}

// Precedes returns precedes[b,i1,i2] for citizens i1 < i2 sharing bureaucrat b.
// When the pair meets on b more than once, the variable of their first
// encounter in journey order is returned.
func (f *Formulation) Precedes(b, i1, i2 int) (mip.Var, bool) {
	k, ok := f.orderingIndex[orderingKey{b, i1, i2}]
	if !ok {
		return mip.Var{}, false
	}
	return f.ordering[k].Var, true
}
