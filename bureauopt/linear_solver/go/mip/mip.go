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

// Package mip offers a builder API for mixed integer linear programs.
//
// The `Builder` struct owns a `Model` and provides helper methods for adding
// variables, ranged linear constraints and a linear objective to it.
// The `Var` struct is a reference to a specific variable of a builder, and
// `LinearExpr` provides helper methods for creating constraints and the
// objective from expressions with many variables and coefficients.
//
// Solving is delegated to an implementation of the `Solver` interface.
package mip

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

var (
	// ErrMixedModels holds the error when elements added to a model are different.
	ErrMixedModels = errors.New("elements are not part of the same model")
	// ErrDuplicateName is returned when a variable or constraint name is used twice.
	ErrDuplicateName = errors.New("duplicate name")
)

type (
	// VarIndex is the index of a variable in the model.
	VarIndex int32
	// ConstrIndex is the index of a constraint in the model.
	ConstrIndex int32
)

// LinearArgument provides an interface for Var and LinearExpr.
type LinearArgument interface {
	addToLinearExpr(e *LinearExpr, c float64)
	evaluateSolutionValue(values []float64) float64
}

// LinearExpr is a container for a linear expression.
type LinearExpr struct {
	terms  []Term
	offset float64
}

// Term is a variable with its coefficient.
type Term struct {
	Var   VarIndex
	Coeff float64
}

// NewLinearExpr creates a new empty LinearExpr.
func NewLinearExpr() *LinearExpr {
	return &LinearExpr{}
}

// NewConstant creates and returns a LinearExpr containing the constant `c`.
func NewConstant(c float64) *LinearExpr {
	return &LinearExpr{offset: c}
}

// Add adds the linear argument term to the LinearExpr and returns itself.
func (l *LinearExpr) Add(la LinearArgument) *LinearExpr {
	return l.AddTerm(la, 1)
}

// AddConstant adds the constant to the LinearExpr and returns itself.
func (l *LinearExpr) AddConstant(c float64) *LinearExpr {
	l.offset += c
	return l
}

// AddTerm adds the linear argument term with the given coefficient to the LinearExpr and returns itself.
func (l *LinearExpr) AddTerm(la LinearArgument, coeff float64) *LinearExpr {
	la.addToLinearExpr(l, coeff)
	return l
}

// AddSum adds the sum of the linear arguments to the LinearExpr and returns itself.
func (l *LinearExpr) AddSum(las ...LinearArgument) *LinearExpr {
	for _, la := range las {
		l.Add(la)
	}
	return l
}

// Offset returns the constant part of the expression.
func (l *LinearExpr) Offset() float64 {
	return l.offset
}

// Terms returns the expression's terms with duplicate variables merged and
// zero coefficients dropped, in order of first appearance.
func (l *LinearExpr) Terms() []Term {
	pos := make(map[VarIndex]int, len(l.terms))
	var merged []Term
	for _, t := range l.terms {
		if p, ok := pos[t.Var]; ok {
			merged[p].Coeff += t.Coeff
			continue
		}
		pos[t.Var] = len(merged)
		merged = append(merged, t)
	}
	out := merged[:0]
	for _, t := range merged {
		if t.Coeff != 0 {
			out = append(out, t)
		}
	}
	return out
}

func (l *LinearExpr) addToLinearExpr(e *LinearExpr, c float64) {
	for _, t := range l.terms {
		e.terms = append(e.terms, Term{Var: t.Var, Coeff: t.Coeff * c})
	}
	e.offset += l.offset * c
}

func (l *LinearExpr) evaluateSolutionValue(values []float64) float64 {
	result := l.offset
	for _, t := range l.terms {
		result += values[t.Var] * t.Coeff
	}
	return result
}

// Var is a reference to a variable in the model.
type Var struct {
	ind VarIndex
	mb  *Builder
}

// Index returns the index of the variable.
func (v Var) Index() VarIndex {
	return v.ind
}

// Name returns the name of the variable.
func (v Var) Name() string {
	return v.mb.model.Variables[v.ind].Name
}

// LB returns the lower bound of the variable.
func (v Var) LB() float64 {
	return v.mb.model.Variables[v.ind].LB
}

// UB returns the upper bound of the variable.
func (v Var) UB() float64 {
	return v.mb.model.Variables[v.ind].UB
}

// Integer reports whether the variable is restricted to integral values.
func (v Var) Integer() bool {
	return v.mb.model.Variables[v.ind].Integer
}

// WithName sets the name of the variable. A name already used by another
// variable is recorded as the builder's error.
func (v Var) WithName(s string) Var {
	v.mb.renameVar(v.ind, s)
	return v
}

func (v Var) addToLinearExpr(e *LinearExpr, c float64) {
	e.terms = append(e.terms, Term{Var: v.ind, Coeff: c})
}

func (v Var) evaluateSolutionValue(values []float64) float64 {
	return values[v.ind]
}

// Constraint is a reference to a constraint in the model.
type Constraint struct {
	ind ConstrIndex
	mb  *Builder
}

// Index returns the index of the constraint.
func (c Constraint) Index() ConstrIndex {
	return c.ind
}

// Name returns the name of the constraint.
func (c Constraint) Name() string {
	return c.mb.model.Constraints[c.ind].Name
}

// WithName sets the name of the constraint.
func (c Constraint) WithName(s string) Constraint {
	c.mb.renameConstraint(c.ind, s)
	return c
}

// Builder accumulates variables and constraints of a single model. Builders are
// independent of each other; elements of one builder cannot be used in another.
type Builder struct {
	model       *Model
	varNames    map[string]VarIndex
	constrNames map[string]ConstrIndex
	// The first and only the first error is reported in Model.
	err error
}

// NewBuilder creates and returns a new model Builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		model:       &Model{Name: name},
		varNames:    make(map[string]VarIndex),
		constrNames: make(map[string]ConstrIndex),
	}
}

func (mb *Builder) setErr(err error) {
	log.Errorf("%v; use `-log_backtrace_at` flag to get the error stack", err)
	if mb.err == nil {
		mb.err = err
	}
}

// checkSameModel returns true if `mb` and `mb2` point to the same Builder.
// If false, an error is set on `mb` if `mb.err` is nil.
func (mb *Builder) checkSameModel(mb2 *Builder, what string) bool {
	if mb == mb2 {
		return true
	}
	mb.setErr(fmt.Errorf("invalid parameter %s: %w", what, ErrMixedModels))
	return false
}

// NewVar creates a new variable with bounds `[lb, ub]`. Use math.Inf for
// unbounded sides.
func (mb *Builder) NewVar(lb, ub float64, integer bool) Var {
	ind := VarIndex(len(mb.model.Variables))
	name := fmt.Sprintf("x%d", ind)
	for _, taken := mb.varNames[name]; taken; _, taken = mb.varNames[name] {
		name = "_" + name
	}
	mb.model.Variables = append(mb.model.Variables, &Variable{Name: name, LB: lb, UB: ub, Integer: integer})
	mb.varNames[name] = ind
	return Var{ind: ind, mb: mb}
}

// NewContinuousVar creates a new continuous variable with bounds `[lb, ub]`.
func (mb *Builder) NewContinuousVar(lb, ub float64) Var {
	return mb.NewVar(lb, ub, false)
}

// NewIntVar creates a new integer variable with bounds `[lb, ub]`.
func (mb *Builder) NewIntVar(lb, ub float64) Var {
	return mb.NewVar(lb, ub, true)
}

// NewBoolVar creates a new binary variable.
func (mb *Builder) NewBoolVar() Var {
	return mb.NewVar(0, 1, true)
}

// LookupVar returns the variable with the given name.
func (mb *Builder) LookupVar(name string) (Var, bool) {
	ind, ok := mb.varNames[name]
	return Var{ind: ind, mb: mb}, ok
}

// NumVariables returns the number of variables created so far.
func (mb *Builder) NumVariables() int {
	return len(mb.model.Variables)
}

// NumConstraints returns the number of constraints created so far.
func (mb *Builder) NumConstraints() int {
	return len(mb.model.Constraints)
}

func (mb *Builder) renameVar(ind VarIndex, name string) {
	old := mb.model.Variables[ind].Name
	if name == old {
		return
	}
	if _, taken := mb.varNames[name]; taken {
		mb.setErr(fmt.Errorf("variable %q: %w", name, ErrDuplicateName))
		return
	}
	delete(mb.varNames, old)
	mb.varNames[name] = ind
	mb.model.Variables[ind].Name = name
}

func (mb *Builder) renameConstraint(ind ConstrIndex, name string) {
	old := mb.model.Constraints[ind].Name
	if name == old {
		return
	}
	if _, taken := mb.constrNames[name]; taken {
		mb.setErr(fmt.Errorf("constraint %q: %w", name, ErrDuplicateName))
		return
	}
	delete(mb.constrNames, old)
	mb.constrNames[name] = ind
	mb.model.Constraints[ind].Name = name
}

func (mb *Builder) checkArgument(la LinearArgument) {
	switch a := la.(type) {
	case Var:
		mb.checkSameModel(a.mb, fmt.Sprintf("var %v", a.ind))
	case *LinearExpr:
		for _, t := range a.terms {
			if int(t.Var) >= len(mb.model.Variables) || t.Var < 0 {
				mb.setErr(fmt.Errorf("invalid parameter var %v: %w", t.Var, ErrMixedModels))
				return
			}
		}
	}
}

// AddLinearConstraint adds the linear constraint `lb <= expr <= ub`. The
// constant offset of `expr` is moved into the bounds.
func (mb *Builder) AddLinearConstraint(expr LinearArgument, lb, ub float64) Constraint {
	mb.checkArgument(expr)
	le := NewLinearExpr().Add(expr)

	ind := ConstrIndex(len(mb.model.Constraints))
	name := fmt.Sprintf("c%d", ind)
	for _, taken := mb.constrNames[name]; taken; _, taken = mb.constrNames[name] {
		name = "_" + name
	}
	mb.model.Constraints = append(mb.model.Constraints, &LinearConstraint{
		Name:  name,
		Terms: le.Terms(),
		LB:    lb - le.offset,
		UB:    ub - le.offset,
	})
	mb.constrNames[name] = ind
	return Constraint{ind: ind, mb: mb}
}

// AddEquality adds the linear constraint `lhs == rhs`.
func (mb *Builder) AddEquality(lhs, rhs LinearArgument) Constraint {
	mb.checkArgument(rhs)
	return mb.AddLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), 0, 0)
}

// AddLessOrEqual adds the linear constraint `lhs <= rhs`.
func (mb *Builder) AddLessOrEqual(lhs, rhs LinearArgument) Constraint {
	mb.checkArgument(rhs)
	return mb.AddLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), math.Inf(-1), 0)
}

// AddGreaterOrEqual adds the linear constraint `lhs >= rhs`.
func (mb *Builder) AddGreaterOrEqual(lhs, rhs LinearArgument) Constraint {
	mb.checkArgument(rhs)
	return mb.AddLinearConstraint(NewLinearExpr().Add(lhs).AddTerm(rhs, -1), 0, math.Inf(1))
}

// Minimize sets a linear minimization objective.
func (mb *Builder) Minimize(obj LinearArgument) {
	mb.checkArgument(obj)
	o := NewLinearExpr().Add(obj)
	mb.model.Objective = Objective{Terms: o.Terms(), Offset: o.offset}
}

// Maximize sets a linear maximization objective.
func (mb *Builder) Maximize(obj LinearArgument) {
	mb.checkArgument(obj)
	o := NewLinearExpr().Add(obj)
	mb.model.Objective = Objective{Terms: o.Terms(), Offset: o.offset, Maximize: true}
}

// Model returns the built model. The model returned is a pointer to the model
// in Builder, and if modified, future calls to the Builder API can fail or result
// in an invalid model.
//
// Model returns an error when invalid parameters have been used during model
// building (e.g. passing variables from other builders, duplicate names).
func (mb *Builder) Model() (*Model, error) {
	if mb.err != nil {
		return nil, mb.err
	}
	return mb.model, nil
}
