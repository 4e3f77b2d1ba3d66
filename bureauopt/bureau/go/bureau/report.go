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
	"errors"

	"google.golang.org/protobuf/types/known/structpb"
)

// Report summarises a solve of `inst` as a protobuf Struct.
func Report(inst *Instance, res *Result) (*structpb.Struct, error) {
	if inst == nil || res == nil {
		return nil, errors.New("nil instance or result")
	}
	fields := map[string]any{
		"status":             res.Status.String(),
		"solver":             res.SolverName,
		"time_limit_reached": res.TimeLimitReached,
		"interrupted":        res.Interrupted,
		"wall_time_seconds":  res.WallTime.Seconds(),
		"num_variables":      res.NumVariables,
		"num_constraints":    res.NumConstraints,
		"num_binaries":       res.NumBinaries,
		"instance": map[string]any{
			"fingerprint":  inst.Fingerprint(),
			"citizens":     inst.CitizenCount(),
			"bureaucrats":  inst.BureaucratCount(),
			"tasks":        inst.TaskCount(),
			"lower_bound":  inst.MakespanLowerBound(),
			"total_length": inst.TotalDuration(),
		},
	}
	if s := res.Schedule; s != nil {
		fields["objective"] = res.ObjectiveValue
		fields["makespan"] = s.Makespan
		seqs := make([]any, len(s.Sequences))
		for b, seq := range s.Sequences {
			row := make([]any, len(seq))
			for k, c := range seq {
				row[k] = c
			}
			seqs[b] = row
		}
		fields["sequences"] = seqs
	}
	return structpb.NewStruct(fields)
}
