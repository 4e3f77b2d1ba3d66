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

import "errors"

var (
	// ErrMalformedInput is returned when an instance does not follow the input format.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInfeasibleModel is returned when the solver proves no schedule exists.
	ErrInfeasibleModel = errors.New("model is infeasible")
	// ErrUnsolvedModel is returned when decoding is attempted without a feasible solution.
	ErrUnsolvedModel = errors.New("model has no feasible solution to decode")
	// ErrSolverFailed is returned when the solver reports an unbounded or invalid
	// model, or fails abnormally.
	ErrSolverFailed = errors.New("solver failed")
	// ErrInvalidSchedule is returned when a schedule does not fit its instance.
	ErrInvalidSchedule = errors.New("invalid schedule")
)
