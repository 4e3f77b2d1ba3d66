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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Task is one step of a citizen's journey.
type Task struct {
	Bureaucrat int
	Duration   int64
}

// TaskRef identifies a task by its citizen and its position in the journey.
type TaskRef struct {
	Citizen  int
	Position int
}

// Instance is an immutable bureau optimization problem.
type Instance struct {
	bureaucratCount int
	journeys        [][]Task
}

func malformed(line int, format string, a ...any) error {
	return fmt.Errorf("line %d: %s: %w", line, fmt.Sprintf(format, a...), ErrMalformedInput)
}

// NewInstance validates and copies the journeys into a new Instance.
func NewInstance(bureaucratCount int, journeys [][]Task) (*Instance, error) {
	if bureaucratCount < 0 {
		return nil, fmt.Errorf("bureaucrat count %d is negative: %w", bureaucratCount, ErrMalformedInput)
	}
	in := &Instance{bureaucratCount: bureaucratCount, journeys: make([][]Task, len(journeys))}
	for i, journey := range journeys {
		for j, t := range journey {
			if t.Bureaucrat < 0 || t.Bureaucrat >= bureaucratCount {
				return nil, fmt.Errorf("citizen %d task %d: bureaucrat %d not in [0, %d): %w", i, j, t.Bureaucrat, bureaucratCount, ErrMalformedInput)
			}
			if t.Duration < 0 {
				return nil, fmt.Errorf("citizen %d task %d: negative duration %d: %w", i, j, t.Duration, ErrMalformedInput)
			}
		}
		in.journeys[i] = append([]Task(nil), journey...)
	}
	return in, nil
}

func parseInts(fields []string, line int) ([]int64, error) {
	out := make([]int64, len(fields))
	for k, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, malformed(line, "%q is not an integer", f)
		}
		out[k] = v
	}
	return out, nil
}

// ParseInstance reads an instance: a header line `citizenCount bureaucratCount`
// followed by one line per citizen of alternating bureaucrat ids and durations.
func ParseInstance(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	next := func() ([]string, bool) {
		if !sc.Scan() {
			return nil, false
		}
		line++
		return strings.Fields(sc.Text()), true
	}

	fields, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, malformed(1, "missing header")
	}
	if len(fields) != 2 {
		return nil, malformed(line, "header has %d fields, want 2", len(fields))
	}
	header, err := parseInts(fields, line)
	if err != nil {
		return nil, err
	}
	citizenCount, bureaucratCount := header[0], header[1]
	if citizenCount < 0 || bureaucratCount < 0 {
		return nil, malformed(line, "negative counts %d %d", citizenCount, bureaucratCount)
	}

	journeys := make([][]Task, 0, min(citizenCount, 1<<16))
	for i := int64(0); i < citizenCount; i++ {
		fields, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			return nil, malformed(line+1, "got %d citizen lines, want %d", i, citizenCount)
		}
		if len(fields)%2 != 0 {
			return nil, malformed(line, "citizen %d has an odd number of integers (%d)", i, len(fields))
		}
		vals, err := parseInts(fields, line)
		if err != nil {
			return nil, err
		}
		journey := make([]Task, 0, len(vals)/2)
		for k := 0; k < len(vals); k += 2 {
			b, d := vals[k], vals[k+1]
			if b < 0 || b >= bureaucratCount {
				return nil, malformed(line, "citizen %d: bureaucrat %d not in [0, %d)", i, b, bureaucratCount)
			}
			if d < 0 {
				return nil, malformed(line, "citizen %d: negative duration %d", i, d)
			}
			journey = append(journey, Task{Bureaucrat: int(b), Duration: d})
		}
		journeys = append(journeys, journey)
	}
	for {
		fields, ok := next()
		if !ok {
			break
		}
		if len(fields) > 0 {
			return nil, malformed(line, "more than %d citizen lines", citizenCount)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return &Instance{bureaucratCount: int(bureaucratCount), journeys: journeys}, nil
}

// ReadInstanceFile parses the instance stored at `path`. Files ending in .gz
// or .zst are decompressed on the fly.
func ReadInstanceFile(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}
	in, err := ParseInstance(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// CitizenCount returns the number of citizens.
func (in *Instance) CitizenCount() int {
	return len(in.journeys)
}

// BureaucratCount returns the number of bureaucrats.
func (in *Instance) BureaucratCount() int {
	return in.bureaucratCount
}

// Journey returns a copy of citizen i's ordered tasks.
func (in *Instance) Journey(i int) []Task {
	return append([]Task(nil), in.journeys[i]...)
}

// Task returns the referenced task.
func (in *Instance) Task(ref TaskRef) Task {
	return in.journeys[ref.Citizen][ref.Position]
}

// TaskCount returns the total number of tasks.
func (in *Instance) TaskCount() int {
	n := 0
	for _, j := range in.journeys {
		n += len(j)
	}
	return n
}

// TotalDuration returns the sum of all task durations. No schedule without
// needless idling is longer.
func (in *Instance) TotalDuration() int64 {
	var total int64
	for _, j := range in.journeys {
		for _, t := range j {
			total += t.Duration
		}
	}
	return total
}

// TasksByBureaucrat groups tasks by the bureaucrat serving them. Each group is
// in citizen order, then position order.
func (in *Instance) TasksByBureaucrat() [][]TaskRef {
	groups := make([][]TaskRef, in.bureaucratCount)
	for i, journey := range in.journeys {
		for j, t := range journey {
			groups[t.Bureaucrat] = append(groups[t.Bureaucrat], TaskRef{Citizen: i, Position: j})
		}
	}
	return groups
}

// WriteTo writes the instance in its input format.
func (in *Instance) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	c, _ := fmt.Fprintf(bw, "%d %d\n", len(in.journeys), in.bureaucratCount)
	n += int64(c)
	for _, journey := range in.journeys {
		parts := make([]string, 0, 2*len(journey))
		for _, t := range journey {
			parts = append(parts, strconv.Itoa(t.Bureaucrat), strconv.FormatInt(t.Duration, 10))
		}
		c, _ = fmt.Fprintln(bw, strings.Join(parts, " "))
		n += int64(c)
	}
	return n, bw.Flush()
}

func (in *Instance) String() string {
	var b strings.Builder
	in.WriteTo(&b)
	return b.String()
}

// Fingerprint returns the hex BLAKE3 digest of the canonical text form, which
// identifies an instance independently of whitespace or compression.
func (in *Instance) Fingerprint() string {
	sum := blake3.Sum256([]byte(in.String()))
	return hex.EncodeToString(sum[:])
}
