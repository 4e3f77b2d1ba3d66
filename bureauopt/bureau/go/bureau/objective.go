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

// MinimizeMakespan registers `minimize Fmax` as the objective.
func (f *Formulation) MinimizeMakespan() {
	f.mb.Minimize(f.fmax)
}

// MakespanLowerBound returns the larger of the busiest bureaucrat's total work
// and the longest journey. No schedule can be shorter.
func (in *Instance) MakespanLowerBound() int64 {
	var lb int64
	load := make([]int64, in.bureaucratCount)
	for _, journey := range in.journeys {
		var length int64
		for _, t := range journey {
			length += t.Duration
			load[t.Bureaucrat] += t.Duration
		}
		lb = max(lb, length)
	}
	for _, l := range load {
		lb = max(lb, l)
	}
	return lb
}
