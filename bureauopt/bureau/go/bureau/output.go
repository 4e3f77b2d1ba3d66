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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WriteSchedule writes the makespan on the first line, then one line per
// bureaucrat listing the citizens it serves in order. Idle bureaucrats get an
// empty line.
func WriteSchedule(w io.Writer, s *Schedule) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", s.Makespan)
	for _, seq := range s.Sequences {
		parts := make([]string, len(seq))
		for k, c := range seq {
			parts[k] = strconv.Itoa(c)
		}
		bw.WriteString(strings.Join(parts, " "))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteScheduleFile writes `s` to `path`.
func WriteScheduleFile(path string, s *Schedule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSchedule(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseSchedule reads a schedule written by WriteSchedule for an instance with
// `bureaucratCount` bureaucrats. Missing trailing lines are idle bureaucrats.
// The returned schedule has no start times.
func ParseSchedule(r io.Reader, bureaucratCount int) (*Schedule, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("missing makespan line: %w", ErrInvalidSchedule)
	}
	makespan, err := strconv.ParseInt(strings.TrimSpace(sc.Text()), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("line 1: makespan %q: %w", sc.Text(), ErrInvalidSchedule)
	}

	s := &Schedule{Makespan: makespan, Sequences: make([][]int, bureaucratCount)}
	line := 1
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		b := line - 2
		if b >= bureaucratCount {
			if len(fields) > 0 {
				return nil, fmt.Errorf("line %d: more than %d bureaucrat lines: %w", line, bureaucratCount, ErrInvalidSchedule)
			}
			continue
		}
		seq := make([]int, len(fields))
		for k, f := range fields {
			c, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: citizen %q: %w", line, f, ErrInvalidSchedule)
			}
			seq[k] = c
		}
		s.Sequences[b] = seq
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	for b, seq := range s.Sequences {
		if seq == nil {
			s.Sequences[b] = []int{}
		}
	}
	return s, nil
}

// ReadScheduleFile parses the schedule stored at `path`.
func ReadScheduleFile(path string, bureaucratCount int) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ParseSchedule(f, bureaucratCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
