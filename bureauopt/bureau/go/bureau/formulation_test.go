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
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const sharedBureaucrat = "2 2\n0 3\n0 2\n"

func mustBuild(t *testing.T, in *Instance) *Formulation {
	t.Helper()
	f, err := Build(in)
	if err != nil {
		t.Fatalf("Build() returned with unexpected error %v", err)
	}
	return f
}

func mustModel(t *testing.T, f *Formulation) *mip.Model {
	t.Helper()
	m, err := f.Model()
	if err != nil {
		t.Fatalf("Model() returned with unexpected error %v", err)
	}
	return m
}

// assignmentFromSequences returns the variable values of the earliest-start
// timetable realising `sequences`.
func assignmentFromSequences(f *Formulation, sequences [][]int) ([]float64, error) {
	sim, err := Simulate(f.inst, sequences)
	if err != nil {
		return nil, err
	}
	order, err := resolveSequences(f.inst, sequences)
	if err != nil {
		return nil, err
	}
	rank := make(map[TaskRef]int)
	for _, refs := range order {
		for k, ref := range refs {
			rank[ref] = k
		}
	}

	values := make([]float64, f.mb.NumVariables())
	values[f.fmax.Index()] = float64(sim.Makespan)
	for b, v := range f.finish {
		values[v.Index()] = float64(sim.Finish[b])
	}
	for i, row := range f.start {
		for j, v := range row {
			values[v.Index()] = float64(sim.Starts[i][j])
		}
	}
	for _, ov := range f.ordering {
		if rank[ov.First] < rank[ov.Second] {
			values[ov.Var.Index()] = 1
		}
	}
	return values, nil
}

// fakeSolver answers every solve with a fixed response.
type fakeSolver struct {
	resp  *mip.Response
	err   error
	calls int
}

func (s *fakeSolver) Solve(_ context.Context, _ *mip.Model, _ *mip.Parameters) (*mip.Response, error) {
	s.calls++
	return s.resp, s.err
}

// exhaustiveSolver tries every combination of bureaucrat sequences of a small
// formulation and answers with the shortest one.
type exhaustiveSolver struct {
	f *Formulation
}

func permutations(xs []int, visit func([]int)) {
	var rec func(k int)
	rec = func(k int) {
		if k == len(xs) {
			visit(append([]int(nil), xs...))
			return
		}
		for i := k; i < len(xs); i++ {
			xs[k], xs[i] = xs[i], xs[k]
			rec(k + 1)
			xs[k], xs[i] = xs[i], xs[k]
		}
	}
	rec(0)
}

func (s exhaustiveSolver) Solve(_ context.Context, m *mip.Model, _ *mip.Parameters) (*mip.Response, error) {
	inst := s.f.Instance()
	groups := inst.TasksByBureaucrat()
	current := make([][]int, len(groups))
	var best [][]int
	bestMakespan := int64(math.MaxInt64)

	var rec func(b int)
	rec = func(b int) {
		if b == len(groups) {
			sim, err := Simulate(inst, current)
			if err == nil && sim.Makespan < bestMakespan {
				bestMakespan = sim.Makespan
				best = append([][]int(nil), current...)
			}
			return
		}
		citizens := make([]int, len(groups[b]))
		for k, ref := range groups[b] {
			citizens[k] = ref.Citizen
		}
		permutations(citizens, func(seq []int) {
			current[b] = seq
			rec(b + 1)
		})
	}
	rec(0)

	if best == nil {
		return &mip.Response{Status: mip.Infeasible, SolverName: "exhaustive"}, nil
	}
	values, err := assignmentFromSequences(s.f, best)
	if err != nil {
		return nil, err
	}
	return &mip.Response{
		Status:         mip.Optimal,
		ObjectiveValue: m.ObjectiveValue(values),
		Values:         values,
		SolverName:     "exhaustive",
	}, nil
}

func TestNewFormulation_Structure(t *testing.T) {
	f := mustBuild(t, mustInstance(t, sharedBureaucrat))
	m := mustModel(t, f)

	wantVars := []*mip.Variable{
		{Name: "Fmax", LB: 0, UB: math.Inf(1)},
		{Name: "F_0", LB: 0, UB: math.Inf(1)},
		{Name: "F_1", LB: 0, UB: math.Inf(1)},
		{Name: "start_0_0", LB: 0, UB: math.Inf(1)},
		{Name: "start_1_0", LB: 0, UB: math.Inf(1)},
		{Name: "precedes_0_0_1", LB: 0, UB: 1, Integer: true},
	}
	if diff := cmp.Diff(wantVars, m.Variables); diff != "" {
		t.Errorf("Model().Variables returned with unexpected diff (-want+got):\n%s", diff)
	}

	var gotNames []string
	for _, c := range m.Constraints {
		gotNames = append(gotNames, c.Name)
	}
	wantNames := []string{"finish_0_0", "finish_1_0", "makespan_0", "makespan_1", "first_0_0_1", "second_0_0_1"}
	if diff := cmp.Diff(wantNames, gotNames); diff != "" {
		t.Errorf("constraint names returned with unexpected diff (-want+got):\n%s", diff)
	}

	wantObjective := mip.Objective{Terms: []mip.Term{{Var: f.Makespan().Index(), Coeff: 1}}}
	if diff := cmp.Diff(wantObjective, m.Objective); diff != "" {
		t.Errorf("Model().Objective returned with unexpected diff (-want+got):\n%s", diff)
	}
	if got, want := f.BigM(), 5.0; got != want {
		t.Errorf("BigM() = %v, want %v", got, want)
	}

	p, ok := f.Precedes(0, 0, 1)
	if !ok || p.Name() != "precedes_0_0_1" {
		t.Errorf("Precedes(0, 0, 1) = %v, %v, want precedes_0_0_1, true", p.Name(), ok)
	}
	if _, ok := f.Precedes(1, 0, 1); ok {
		t.Errorf("Precedes(1, 0, 1) found a variable for a bureaucrat nobody shares")
	}
}

func TestNewFormulation_NoObjective(t *testing.T) {
	f, err := NewFormulation(mustInstance(t, sharedBureaucrat))
	if err != nil {
		t.Fatalf("NewFormulation() returned with unexpected error %v", err)
	}
	if got := mustModel(t, f).Objective.Terms; len(got) != 0 {
		t.Errorf("NewFormulation() set objective terms %v, want none", got)
	}
	f.MinimizeMakespan()
	if got := mustModel(t, f).Objective.Terms; len(got) != 1 {
		t.Errorf("MinimizeMakespan() set objective terms %v, want Fmax only", got)
	}
}

func TestNewFormulation_Independent(t *testing.T) {
	a := mustBuild(t, mustInstance(t, sharedBureaucrat))
	b := mustBuild(t, mustInstance(t, "1 1\n0 7\n"))

	if got, want := a.Builder().NumVariables(), 6; got != want {
		t.Errorf("first formulation has %d variables, want %d", got, want)
	}
	if got, want := b.Builder().NumVariables(), 3; got != want {
		t.Errorf("second formulation has %d variables, want %d", got, want)
	}
}

func TestNewFormulation_RepeatVisits(t *testing.T) {
	// Citizen 0 sees bureaucrat 0 twice, citizen 1 once.
	f := mustBuild(t, mustInstance(t, "2 1\n0 1 0 1\n0 1\n"))

	var got []string
	for _, ov := range f.Ordering() {
		got = append(got, ov.Var.Name())
	}
	want := []string{"precedes_0_0_1", "precedes_0_0_1_1_0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Ordering() returned with unexpected diff (-want+got):\n%s", diff)
	}
	p, ok := f.Precedes(0, 0, 1)
	if !ok || p.Name() != "precedes_0_0_1" {
		t.Errorf("Precedes(0, 0, 1) = %v, %v, want the first encounter", p.Name(), ok)
	}
	if _, ok := f.Builder().LookupVar("journey_0_0"); ok {
		t.Errorf("LookupVar(journey_0_0) found a constraint name among variables")
	}

	for _, seqs := range [][][]int{{{0, 0, 1}}, {{0, 1, 0}}, {{1, 0, 0}}} {
		values, err := assignmentFromSequences(f, seqs)
		if err != nil {
			t.Fatalf("assignmentFromSequences(%v) returned with unexpected error %v", seqs, err)
		}
		if v := mustModel(t, f).Violations(values, 1e-6); len(v) != 0 {
			t.Errorf("sequences %v violate %v", seqs, v)
		}
	}
}

func TestNoOverlap_RejectsSimultaneousTasks(t *testing.T) {
	f := mustBuild(t, mustInstance(t, sharedBureaucrat))
	m := mustModel(t, f)
	p, _ := f.Precedes(0, 0, 1)

	for _, order := range []float64{0, 1} {
		values := make([]float64, len(m.Variables))
		values[f.Makespan().Index()] = 3
		values[f.Finish(0).Index()] = 3
		values[p.Index()] = order
		if v := m.Violations(values, 1e-6); len(v) == 0 {
			t.Errorf("both tasks starting at 0 with precedes = %v satisfy every constraint", order)
		}
	}

	for _, seqs := range [][][]int{{{0, 1}, {}}, {{1, 0}, {}}} {
		values, err := assignmentFromSequences(f, seqs)
		if err != nil {
			t.Fatalf("assignmentFromSequences(%v) returned with unexpected error %v", seqs, err)
		}
		if v := m.Violations(values, 1e-6); len(v) != 0 {
			t.Errorf("sequences %v violate %v", seqs, v)
		}
		if got, want := m.ObjectiveValue(values), 5.0; got != want {
			t.Errorf("ObjectiveValue() = %v for sequences %v, want %v", got, seqs, want)
		}
	}
}

func TestNoOverlap_JourneyOrder(t *testing.T) {
	f := mustBuild(t, mustInstance(t, "1 2\n0 2 1 3\n"))
	m := mustModel(t, f)

	values := make([]float64, len(m.Variables))
	values[f.Start(0, 1).Index()] = 1
	values[f.Finish(0).Index()] = 2
	values[f.Finish(1).Index()] = 4
	values[f.Makespan().Index()] = 4
	v := m.Violations(values, 1e-6)
	if len(v) != 1 || !strings.Contains(v[0], "journey_0_0") {
		t.Errorf("Violations() = %v, want journey_0_0 only", v)
	}
}

func TestExportModelAsLpFormat_Formulation(t *testing.T) {
	lp, err := mip.ExportModelAsLpFormat(mustModel(t, mustBuild(t, mustInstance(t, sharedBureaucrat))))
	if err != nil {
		t.Fatalf("ExportModelAsLpFormat() returned with unexpected error %v", err)
	}
	for _, want := range []string{"Minimize", " obj: Fmax", " first_0_0_1:", "Binaries\n precedes_0_0_1\n"} {
		if !strings.Contains(lp, want) {
			t.Errorf("ExportModelAsLpFormat() = %q, missing %q", lp, want)
		}
	}
}

// randomInstance returns an instance, about a tenth of whose tasks take no
// time, together with deadlock-free sequences for it.
func randomInstance(t *testing.T, rng *rand.Rand) (*Instance, [][]int) {
	t.Helper()
	bureaucrats := 1 + rng.Intn(3)
	journeys := make([][]Task, 1+rng.Intn(5))
	type keyed struct {
		ref      TaskRef
		priority float64
	}
	var tasks []keyed
	for i := range journeys {
		length := rng.Intn(5)
		for j := 0; j < length; j++ {
			journeys[i] = append(journeys[i], Task{Bureaucrat: rng.Intn(bureaucrats), Duration: rng.Int63n(10)})
			tasks = append(tasks, keyed{ref: TaskRef{Citizen: i, Position: len(journeys[i]) - 1}, priority: rng.Float64()})
		}
	}
	in, err := NewInstance(bureaucrats, journeys)
	if err != nil {
		t.Fatalf("NewInstance() returned with unexpected error %v", err)
	}

	// Serving tasks in position order is compatible with every journey.
	sort.Slice(tasks, func(x, y int) bool {
		if tasks[x].ref.Position != tasks[y].ref.Position {
			return tasks[x].ref.Position < tasks[y].ref.Position
		}
		return tasks[x].priority < tasks[y].priority
	})
	sequences := make([][]int, bureaucrats)
	for _, k := range tasks {
		b := in.Task(k.ref).Bureaucrat
		sequences[b] = append(sequences[b], k.ref.Citizen)
	}
	return in, sequences
}

func TestFormulation_RandomSchedules(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		in, sequences := randomInstance(t, rng)
		f := mustBuild(t, in)
		m := mustModel(t, f)

		values, err := assignmentFromSequences(f, sequences)
		if err != nil {
			t.Fatalf("instance %d: assignmentFromSequences() returned with unexpected error %v\n%v", n, err, in)
		}
		if v := m.Violations(values, 1e-6); len(v) != 0 {
			t.Errorf("instance %d: earliest-start assignment violates %v\n%v", n, v, in)
			continue
		}

		solver := &fakeSolver{resp: &mip.Response{Status: mip.Feasible, Values: values, ObjectiveValue: m.ObjectiveValue(values)}}
		res, err := f.Solve(context.Background(), solver, nil)
		if err != nil {
			t.Fatalf("instance %d: Solve() returned with unexpected error %v", n, err)
		}
		s := res.Schedule
		sim, err := Simulate(in, sequences)
		if err != nil {
			t.Fatalf("instance %d: Simulate() returned with unexpected error %v", n, err)
		}
		if s.Makespan != sim.Makespan {
			t.Errorf("instance %d: Makespan = %v, want %v", n, s.Makespan, sim.Makespan)
		}
		// Zero-duration tasks may be reordered among ties, start times may not.
		if diff := cmp.Diff(sim.Starts, s.Starts, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("instance %d: Starts returned with unexpected diff (-want+got):\n%s", n, diff)
		}
		if err := Verify(in, s); err != nil {
			t.Errorf("instance %d: Verify() returned with unexpected error %v", n, err)
		}
		checkStarts(t, in, s)
	}
}

// checkStarts checks that decoded starts keep journey order and that tasks on
// one bureaucrat do not overlap in decoded order.
func checkStarts(t *testing.T, in *Instance, s *Schedule) {
	t.Helper()
	for i := 0; i < in.CitizenCount(); i++ {
		journey := in.Journey(i)
		for j := 0; j+1 < len(journey); j++ {
			if s.Starts[i][j]+journey[j].Duration > s.Starts[i][j+1] {
				t.Errorf("citizen %d: task %d ends at %d after task %d starts at %d",
					i, j, s.Starts[i][j]+journey[j].Duration, j+1, s.Starts[i][j+1])
			}
		}
	}
	order, err := resolveSequences(in, s.Sequences)
	if err != nil {
		t.Fatalf("resolveSequences() returned with unexpected error %v", err)
	}
	for b, refs := range order {
		for k := 0; k+1 < len(refs); k++ {
			cur, next := refs[k], refs[k+1]
			end := s.Starts[cur.Citizen][cur.Position] + in.Task(cur).Duration
			if end > s.Starts[next.Citizen][next.Position] {
				t.Errorf("bureaucrat %d: %v ends at %d after %v starts at %d", b, cur, end, next, s.Starts[next.Citizen][next.Position])
			}
		}
	}
}
