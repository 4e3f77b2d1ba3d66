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

import "fmt"

// Simulation is the earliest-start timetable realising a set of sequences.
type Simulation struct {
	// Starts holds the start time of every task, per citizen and position.
	Starts [][]int64
	// Finish holds each bureaucrat's finish time; idle bureaucrats finish at 0.
	Finish   []int64
	Makespan int64
}

// resolveSequences maps each bureaucrat's citizen sequence to tasks. The k-th
// occurrence of a citizen on a bureaucrat's line is that citizen's k-th visit
// to the bureaucrat.
func resolveSequences(inst *Instance, sequences [][]int) ([][]TaskRef, error) {
	if len(sequences) != inst.BureaucratCount() {
		return nil, fmt.Errorf("got %d sequences for %d bureaucrats: %w", len(sequences), inst.BureaucratCount(), ErrInvalidSchedule)
	}
	visits := make([]map[int][]int, inst.BureaucratCount())
	for b, group := range inst.TasksByBureaucrat() {
		visits[b] = make(map[int][]int)
		for _, ref := range group {
			visits[b][ref.Citizen] = append(visits[b][ref.Citizen], ref.Position)
		}
	}

	out := make([][]TaskRef, len(sequences))
	for b, seq := range sequences {
		seen := make(map[int]int)
		for _, c := range seq {
			positions := visits[b][c]
			k := seen[c]
			if k >= len(positions) {
				return nil, fmt.Errorf("bureaucrat %d serves citizen %d more often than the journey requires: %w", b, c, ErrInvalidSchedule)
			}
			seen[c]++
			out[b] = append(out[b], TaskRef{Citizen: c, Position: positions[k]})
		}
		for c, positions := range visits[b] {
			if seen[c] != len(positions) {
				return nil, fmt.Errorf("bureaucrat %d serves citizen %d %d times, want %d: %w", b, c, seen[c], len(positions), ErrInvalidSchedule)
			}
		}
	}
	return out, nil
}

// Simulate places each bureaucrat's tasks back to back in the given order. A
// task starts as soon as both its bureaucrat and its citizen are free, so the
// result is the shortest timetable with these sequences.
func Simulate(inst *Instance, sequences [][]int) (*Simulation, error) {
	order, err := resolveSequences(inst, sequences)
	if err != nil {
		return nil, err
	}

	sim := &Simulation{
		Starts: make([][]int64, inst.CitizenCount()),
		Finish: make([]int64, inst.BureaucratCount()),
	}
	for i, journey := range inst.journeys {
		sim.Starts[i] = make([]int64, len(journey))
	}
	nextTask := make([]int, inst.BureaucratCount())
	nextPosition := make([]int, inst.CitizenCount())
	ready := make([]int64, inst.CitizenCount())
	remaining := inst.TaskCount()

	for remaining > 0 {
		progress := false
		for b, refs := range order {
			for nextTask[b] < len(refs) {
				ref := refs[nextTask[b]]
				if nextPosition[ref.Citizen] != ref.Position {
					break
				}
				start := max(sim.Finish[b], ready[ref.Citizen])
				end := start + inst.Task(ref).Duration
				sim.Starts[ref.Citizen][ref.Position] = start
				sim.Finish[b] = end
				ready[ref.Citizen] = end
				nextPosition[ref.Citizen]++
				nextTask[b]++
				remaining--
				progress = true
			}
		}
		if !progress {
			return nil, fmt.Errorf("sequences contradict journey order, %d tasks can never start: %w", remaining, ErrInvalidSchedule)
		}
	}
	for _, fb := range sim.Finish {
		sim.Makespan = max(sim.Makespan, fb)
	}
	return sim, nil
}

// Verify checks that `s` is realisable for `inst` within its reported makespan.
func Verify(inst *Instance, s *Schedule) error {
	sim, err := Simulate(inst, s.Sequences)
	if err != nil {
		return err
	}
	if sim.Makespan > s.Makespan {
		return fmt.Errorf("sequences need makespan %d, schedule reports %d: %w", sim.Makespan, s.Makespan, ErrInvalidSchedule)
	}
	return nil
}
