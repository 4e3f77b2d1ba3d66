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

// The shared_bureaucrat command schedules three citizens whose journeys cross
// at two bureaucrats.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cocontest/bureauopt/bureauopt/bureau/go/bureau"
	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/cbc"
	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	log "github.com/golang/glog"
)

func sharedBureaucratSample() error {
	inst, err := bureau.NewInstance(3, [][]bureau.Task{
		// Citizen 0: registry, then tax office.
		{{Bureaucrat: 0, Duration: 3}, {Bureaucrat: 1, Duration: 2}},
		// Citizen 1: tax office, then registry.
		{{Bureaucrat: 1, Duration: 4}, {Bureaucrat: 0, Duration: 1}},
		// Citizen 2: registry, archive, registry again.
		{{Bureaucrat: 0, Duration: 2}, {Bureaucrat: 2, Duration: 2}, {Bureaucrat: 0, Duration: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create the instance: %w", err)
	}

	f, err := bureau.Build(inst)
	if err != nil {
		return fmt.Errorf("failed to instantiate the model: %w", err)
	}

	params := mip.DefaultParameters()
	params.TimeLimit = 10 * time.Second
	res, err := f.Solve(context.Background(), cbc.New(""), params)
	if err != nil {
		return fmt.Errorf("failed to solve the model: %w", err)
	}
	if res.Schedule == nil {
		return fmt.Errorf("no schedule found, status %v", res.Status)
	}

	fmt.Println(res.Status)
	fmt.Println("Optimal makespan: ", res.Schedule.Makespan)
	for i, starts := range res.Schedule.Starts {
		fmt.Printf("Citizen %d starts its tasks at %v\n", i, starts)
	}
	return bureau.WriteSchedule(os.Stdout, res.Schedule)
}

func main() {
	if err := sharedBureaucratSample(); err != nil {
		log.Exitf("sharedBureaucratSample returned with error: %v", err)
	}
}
