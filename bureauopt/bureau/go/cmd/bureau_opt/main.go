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

// The bureau_opt command computes a minimum makespan schedule for a bureau
// instance with CBC.
//
// Usage:
//
//	bureau_opt [flags] <input> <output>
//
// With --check, the output file is not written but verified against the input.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cocontest/bureauopt/bureauopt/bureau/go/bureau"
	"github.com/cocontest/bureauopt/bureauopt/bureau/go/config"
	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/cbc"
	"github.com/cocontest/bureauopt/bureauopt/linear_solver/go/mip"
	log "github.com/golang/glog"
	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
)

type options struct {
	configPath  string
	cbcBinary   string
	timeLimit   time.Duration
	threads     int
	relativeGap float64
	lpFile      string
	reportFile  string
	verify      bool
	check       bool
}

func newFlagSet(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bureau_opt", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.cbcBinary, "cbc", "", "path or PATH name of the CBC binary")
	fs.DurationVar(&opts.timeLimit, "time_limit", 0, "solver time limit, 0 for none")
	fs.IntVar(&opts.threads, "threads", 0, "solver threads, 0 for the solver default")
	fs.Float64Var(&opts.relativeGap, "relative_gap", -1, "stop once the relative optimality gap is below this value")
	fs.StringVar(&opts.lpFile, "lp_file", "", "write the model in LP format to this file")
	fs.StringVar(&opts.reportFile, "report_file", "", "write a JSON solve report to this file")
	fs.BoolVar(&opts.verify, "verify", true, "simulate the schedule before writing it")
	fs.BoolVar(&opts.check, "check", false, "verify <output> against <input> instead of solving")
	fs.AddGoFlagSet(flag.CommandLine)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bureau_opt [flags] <input> <output>\n\n")
		fs.PrintDefaults()
	}
	return fs
}

// loadConfig reads the configuration file, if any, and applies the flags the
// user set explicitly.
func loadConfig(fs *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			return nil, err
		}
	}
	if fs.Changed("cbc") {
		cfg.Solver.Binary = opts.cbcBinary
	}
	if fs.Changed("time_limit") {
		cfg.Solver.TimeLimit = opts.timeLimit.String()
	}
	if fs.Changed("threads") {
		cfg.Solver.Threads = opts.threads
	}
	if fs.Changed("relative_gap") {
		cfg.Solver.RelativeGap = opts.relativeGap
	}
	if fs.Changed("lp_file") {
		cfg.Output.LPFile = opts.lpFile
	}
	if fs.Changed("report_file") {
		cfg.Output.ReportFile = opts.reportFile
	}
	if fs.Changed("verify") {
		cfg.Output.Verify = opts.verify
	}
	return cfg, cfg.Validate()
}

func writeLpFile(path string, f *bureau.Formulation) error {
	m, err := f.Model()
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := mip.WriteLpFile(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeReport(path string, inst *bureau.Instance, res *bureau.Result) error {
	st, err := bureau.Report(inst, res)
	if err != nil {
		return err
	}
	data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func check(input, output string) error {
	inst, err := bureau.ReadInstanceFile(input)
	if err != nil {
		return err
	}
	s, err := bureau.ReadScheduleFile(output, inst.BureaucratCount())
	if err != nil {
		return err
	}
	if err := bureau.Verify(inst, s); err != nil {
		return err
	}
	fmt.Printf("%s: valid schedule, makespan %d (lower bound %d)\n", output, s.Makespan, inst.MakespanLowerBound())
	return nil
}

func solve(ctx context.Context, cfg *config.Config, input, output string) error {
	params, err := cfg.Parameters()
	if err != nil {
		return err
	}
	inst, err := bureau.ReadInstanceFile(input)
	if err != nil {
		return err
	}
	log.Infof("read %s: %d citizens, %d bureaucrats, %d tasks, fingerprint %s",
		input, inst.CitizenCount(), inst.BureaucratCount(), inst.TaskCount(), inst.Fingerprint())

	f, err := bureau.Build(inst)
	if err != nil {
		return err
	}
	if cfg.Output.LPFile != "" {
		if err := writeLpFile(cfg.Output.LPFile, f); err != nil {
			return fmt.Errorf("writing LP file: %w", err)
		}
		log.Infof("wrote model to %s", cfg.Output.LPFile)
	}

	solver := cbc.New(cfg.Solver.Binary)
	if !solver.Available() {
		return fmt.Errorf("CBC binary %q not found", cfg.Solver.Binary)
	}
	res, solveErr := f.Solve(ctx, solver, params)
	if res != nil && cfg.Output.ReportFile != "" {
		if err := writeReport(cfg.Output.ReportFile, inst, res); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	if solveErr != nil {
		return solveErr
	}
	if res.Schedule == nil {
		return fmt.Errorf("solver stopped with status %v: %w", res.Status, bureau.ErrUnsolvedModel)
	}
	if cfg.Output.Verify {
		if err := bureau.Verify(inst, res.Schedule); err != nil {
			return err
		}
	}
	if err := bureau.WriteScheduleFile(output, res.Schedule); err != nil {
		return err
	}
	if res.Status != mip.Optimal {
		log.Warningf("schedule in %s is not proven optimal (status %v, time limit reached: %v, interrupted: %v)",
			output, res.Status, res.TimeLimitReached, res.Interrupted)
	}
	log.Infof("wrote schedule with makespan %d to %s (status %v)", res.Schedule.Makespan, output, res.Status)
	return nil
}

func run(args []string) error {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	// Marks glog's flags as parsed; their values were set through fs.
	flag.CommandLine.Parse(nil)

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("got %d arguments, want <input> <output>", fs.NArg())
	}
	input, output := fs.Arg(0), fs.Arg(1)
	if opts.check {
		return check(input, output)
	}

	cfg, err := loadConfig(fs, &opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return solve(ctx, cfg, input, output)
}

func main() {
	defer log.Flush()
	if err := run(os.Args[1:]); err != nil {
		log.Exitf("bureau_opt: %v", err)
	}
}
