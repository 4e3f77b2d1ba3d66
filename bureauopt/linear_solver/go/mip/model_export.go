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

package mip

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// termsPerLine keeps exported rows below the line length limits of LP readers.
const termsPerLine = 8

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeTerms(b *strings.Builder, m *Model, terms []Term) {
	if len(terms) == 0 {
		// LP readers reject empty rows.
		fmt.Fprintf(b, " 0 %s", m.Variables[0].Name)
		return
	}
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			b.WriteString("\n   ")
		}
		sign := "+"
		c := t.Coeff
		if c < 0 {
			sign = "-"
			c = -c
		}
		if i == 0 && sign == "+" {
			sign = ""
		} else {
			sign = " " + sign
		}
		if c == 1 {
			fmt.Fprintf(b, "%s %s", sign, m.Variables[t.Var].Name)
		} else {
			fmt.Fprintf(b, "%s %s %s", sign, formatNumber(c), m.Variables[t.Var].Name)
		}
	}
}

func writeRow(b *strings.Builder, m *Model, name string, terms []Term, sense string, rhs float64) {
	fmt.Fprintf(b, " %s:", name)
	writeTerms(b, m, terms)
	fmt.Fprintf(b, " %s %s\n", sense, formatNumber(rhs))
}

// ExportModelAsLpFormat outputs the model as a string in CPLEX LP format.
//
// Ranged rows are split in two rows suffixed `_lo` and `_hi`; rows that are
// free on both sides are dropped.
func ExportModelAsLpFormat(m *Model) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	if len(m.Variables) == 0 {
		return "", errors.New("cannot export a model without variables as LP format")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\\ Problem name: %s\n", m.Name)
	if m.Objective.Maximize {
		b.WriteString("Maximize\n")
	} else {
		b.WriteString("Minimize\n")
	}
	b.WriteString(" obj:")
	writeTerms(&b, m, m.Objective.Terms)
	if m.Objective.Offset != 0 {
		// The offset does not change the argmin; it is kept as a comment.
		fmt.Fprintf(&b, "\n\\ objective offset: %s", formatNumber(m.Objective.Offset))
	}
	b.WriteString("\nSubject To\n")
	for _, c := range m.Constraints {
		lbInf, ubInf := math.IsInf(c.LB, -1), math.IsInf(c.UB, 1)
		switch {
		case lbInf && ubInf:
			continue
		case c.LB == c.UB:
			writeRow(&b, m, c.Name, c.Terms, "=", c.UB)
		case lbInf:
			writeRow(&b, m, c.Name, c.Terms, "<=", c.UB)
		case ubInf:
			writeRow(&b, m, c.Name, c.Terms, ">=", c.LB)
		default:
			writeRow(&b, m, c.Name+"_lo", c.Terms, ">=", c.LB)
			writeRow(&b, m, c.Name+"_hi", c.Terms, "<=", c.UB)
		}
	}

	b.WriteString("Bounds\n")
	var generals, binaries []string
	for _, v := range m.Variables {
		if v.Integer && v.LB == 0 && v.UB == 1 {
			binaries = append(binaries, v.Name)
			continue
		}
		if v.Integer {
			generals = append(generals, v.Name)
		}
		switch {
		case v.LB == v.UB:
			fmt.Fprintf(&b, " %s = %s\n", v.Name, formatNumber(v.LB))
		case math.IsInf(v.LB, -1) && math.IsInf(v.UB, 1):
			fmt.Fprintf(&b, " %s free\n", v.Name)
		default:
			fmt.Fprintf(&b, " %s <= %s <= %s\n", formatNumber(v.LB), v.Name, formatNumber(v.UB))
		}
	}
	writeSection(&b, "Generals", generals)
	writeSection(&b, "Binaries", binaries)
	b.WriteString("End\n")
	return b.String(), nil
}

func writeSection(b *strings.Builder, title string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for i := 0; i < len(names); i += termsPerLine {
		end := min(i+termsPerLine, len(names))
		b.WriteString(" " + strings.Join(names[i:end], " ") + "\n")
	}
}

// WriteLpFile writes the model in LP format to `w`.
func WriteLpFile(w io.Writer, m *Model) error {
	s, err := ExportModelAsLpFormat(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, s)
	return err
}
