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

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cocontest/bureauopt/bureauopt/bureau/go/bureau"
	"github.com/cocontest/bureauopt/bureauopt/bureau/go/config"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bureau.yaml", "solver:\n  threads: 2\n  time_limit: 10s\noutput:\n  lp_file: model.lp\n")

	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse([]string{"--config", cfgPath, "--time_limit", "2m", "--verify=false", "in.txt", "out.txt"}); err != nil {
		t.Fatalf("Parse() returned with unexpected error %v", err)
	}
	got, err := loadConfig(fs, &opts)
	if err != nil {
		t.Fatalf("loadConfig() returned with unexpected error %v", err)
	}
	want := &config.Config{
		Solver: config.SolverConfig{Binary: "cbc", TimeLimit: "2m0s", Threads: 2, RelativeGap: -1},
		Output: config.OutputConfig{LPFile: "model.lp"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loadConfig() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var opts options
	fs := newFlagSet(&opts)
	if err := fs.Parse([]string{"in.txt", "out.txt"}); err != nil {
		t.Fatalf("Parse() returned with unexpected error %v", err)
	}
	got, err := loadConfig(fs, &opts)
	if err != nil {
		t.Fatalf("loadConfig() returned with unexpected error %v", err)
	}
	if diff := cmp.Diff(config.Default(), got); diff != "" {
		t.Errorf("loadConfig() returned with unexpected diff (-want+got):\n%s", diff)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "2 2\n0 3\n0 2\n")
	good := writeFile(t, dir, "good.txt", "5\n1 0\n\n")
	short := writeFile(t, dir, "short.txt", "4\n1 0\n\n")
	missing := writeFile(t, dir, "missing.txt", "5\n1\n\n")

	if err := run([]string{"--check", input, good}); err != nil {
		t.Errorf("run(--check good) returned with unexpected error %v", err)
	}
	for _, out := range []string{short, missing} {
		if err := check(input, out); !errors.Is(err, bureau.ErrInvalidSchedule) {
			t.Errorf("check(%s) returned error %v, want ErrInvalidSchedule", filepath.Base(out), err)
		}
	}
}

func TestRun_Arguments(t *testing.T) {
	if err := run([]string{"only-one"}); err == nil {
		t.Errorf("run() with one argument returned no error")
	}
	if err := run([]string{"--no_such_flag", "a", "b"}); err == nil {
		t.Errorf("run() with an unknown flag returned no error")
	}
}

func TestRun_MissingCbc(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "in.txt", "1 1\n0 7\n")
	output := filepath.Join(dir, "out.txt")
	lp := filepath.Join(dir, "model.lp")

	err := run([]string{"--cbc", filepath.Join(dir, "no-such-cbc"), "--lp_file", lp, input, output})
	if err == nil {
		t.Fatalf("run() with a missing CBC binary returned no error")
	}
	if _, err := os.Stat(lp); err != nil {
		t.Errorf("run() did not write the LP file before solving: %v", err)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Errorf("run() wrote %s despite failing", output)
	}
}
