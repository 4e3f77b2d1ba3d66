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
	"errors"
	"fmt"
	"math"
)

// ErrInvalidModel is returned by Validate.
var ErrInvalidModel = errors.New("invalid model")

// Model is a mixed integer linear program:
//
//	min/max  sum(obj.Coeff * x) + obj.Offset
//	s.t.     c.LB <= sum(c.Coeff * x) <= c.UB   for every constraint c
//	         v.LB <= x_v <= v.UB                for every variable v
//	         x_v integral                       if v.Integer
type Model struct {
	Name        string
	Variables   []*Variable
	Constraints []*LinearConstraint
	Objective   Objective
}

// Variable is a column of the model.
type Variable struct {
	Name    string
	LB, UB  float64
	Integer bool
}

// LinearConstraint is a ranged row of the model. Infinite bounds mark a
// one-sided row.
type LinearConstraint struct {
	Name   string
	Terms  []Term
	LB, UB float64
}

// Objective is the linear objective of the model.
type Objective struct {
	Terms    []Term
	Offset   float64
	Maximize bool
}

// NumIntegerVariables returns the number of integral variables.
func (m *Model) NumIntegerVariables() int {
	n := 0
	for _, v := range m.Variables {
		if v.Integer {
			n++
		}
	}
	return n
}

func validTerms(m *Model, terms []Term) error {
	for _, t := range terms {
		if t.Var < 0 || int(t.Var) >= len(m.Variables) {
			return fmt.Errorf("variable index %d out of range", t.Var)
		}
		if math.IsNaN(t.Coeff) || math.IsInf(t.Coeff, 0) {
			return fmt.Errorf("coefficient %v of %s is not finite", t.Coeff, m.Variables[t.Var].Name)
		}
	}
	return nil
}

// Validate checks bounds, indices and coefficients of the model.
func (m *Model) Validate() error {
	names := make(map[string]bool, len(m.Variables))
	for i, v := range m.Variables {
		if v.Name == "" || names[v.Name] {
			return fmt.Errorf("variable %d has empty or duplicate name %q: %w", i, v.Name, ErrInvalidModel)
		}
		names[v.Name] = true
		if math.IsNaN(v.LB) || math.IsNaN(v.UB) || v.LB > v.UB {
			return fmt.Errorf("variable %s has bounds [%v, %v]: %w", v.Name, v.LB, v.UB, ErrInvalidModel)
		}
	}
	names = make(map[string]bool, len(m.Constraints))
	for i, c := range m.Constraints {
		if c.Name == "" || names[c.Name] {
			return fmt.Errorf("constraint %d has empty or duplicate name %q: %w", i, c.Name, ErrInvalidModel)
		}
		names[c.Name] = true
		if math.IsNaN(c.LB) || math.IsNaN(c.UB) || c.LB > c.UB {
			return fmt.Errorf("constraint %s has bounds [%v, %v]: %w", c.Name, c.LB, c.UB, ErrInvalidModel)
		}
		if err := validTerms(m, c.Terms); err != nil {
			return fmt.Errorf("constraint %s: %v: %w", c.Name, err, ErrInvalidModel)
		}
	}
	if err := validTerms(m, m.Objective.Terms); err != nil {
		return fmt.Errorf("objective: %v: %w", err, ErrInvalidModel)
	}
	return nil
}

// Activity returns the value of the constraint's linear part under `values`.
func (c *LinearConstraint) Activity(values []float64) float64 {
	var a float64
	for _, t := range c.Terms {
		a += t.Coeff * values[t.Var]
	}
	return a
}

// ObjectiveValue evaluates the objective under `values`.
func (m *Model) ObjectiveValue(values []float64) float64 {
	v := m.Objective.Offset
	for _, t := range m.Objective.Terms {
		v += t.Coeff * values[t.Var]
	}
	return v
}

// Violations lists every bound, integrality and row violated by `values` by
// more than `tol`. An empty result means the assignment is feasible.
func (m *Model) Violations(values []float64, tol float64) []string {
	if len(values) != len(m.Variables) {
		return []string{fmt.Sprintf("got %d values for %d variables", len(values), len(m.Variables))}
	}
	var out []string
	for i, v := range m.Variables {
		x := values[i]
		if x < v.LB-tol || x > v.UB+tol {
			out = append(out, fmt.Sprintf("%s = %v outside [%v, %v]", v.Name, x, v.LB, v.UB))
		}
		if v.Integer && math.Abs(x-math.Round(x)) > tol {
			out = append(out, fmt.Sprintf("%s = %v is not integral", v.Name, x))
		}
	}
	for _, c := range m.Constraints {
		a := c.Activity(values)
		if a < c.LB-tol || a > c.UB+tol {
			out = append(out, fmt.Sprintf("%s: activity %v outside [%v, %v]", c.Name, a, c.LB, c.UB))
		}
	}
	return out
}
