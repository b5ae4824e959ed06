// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package silac describes the triplex inverse-labeling SILAC quantitation
// design and provides the log-ratio transformation and reciprocal-ratio
// consistency filtering shared by the differential expression analyses.
//
// The design covers two LC-MS runs of the same biological comparison with
// the isotope labels swapped between runs. Each run yields three ratios,
// giving six ratio columns per protein group: four measure the treatment
// against the reference (H1L0, H0L1, H1M0 and H0M1) and two measure the
// reference against itself (L0M0 and L1M1), providing the technical noise
// floor for the comparison.
package silac

import "math"

// Ratio column indices. The order is fixed and shared with the
// quantitation store queries and all result tables.
const (
	H1L0 = iota // treatment on/off, run 1
	H0L1        // treatment on/off, run 2
	H1M0        // treatment on/off, run 1
	H0M1        // treatment on/off, run 2
	L0M0        // control off/off, run 1
	L1M1        // control on/on, run 2

	NumRatios
)

// RatioNames gives the column name suffix for each ratio index.
var RatioNames = [NumRatios]string{"H1L0", "H0L1", "H1M0", "H0M1", "L0M0", "L1M1"}

// Condition labels the contrast measured by a ratio column.
type Condition int

const (
	Control Condition = iota
	Treatment
)

// Design maps each ratio column to the condition it measures and the
// LC-MS run that produced it. It is a static property of the
// inverse-labeling experiment, not of the data, and must be identical
// across all differential expression methods so that their results are
// comparable.
type Design struct {
	Condition [NumRatios]Condition
	Run       [NumRatios]int
}

// TriplexDesign returns the design of the two-run triplex inverse-labeling
// scheme.
func TriplexDesign() Design {
	return Design{
		Condition: [NumRatios]Condition{Treatment, Treatment, Treatment, Treatment, Control, Control},
		Run:       [NumRatios]int{0, 1, 0, 1, 0, 1},
	}
}

// Columns returns the ratio column indices measuring the given condition,
// in column order.
func (d Design) Columns(c Condition) []int {
	var cols []int
	for i, ci := range d.Condition {
		if ci == c {
			cols = append(cols, i)
		}
	}
	return cols
}

// RunColumns returns the ratio column indices produced by the given run,
// in column order.
func (d Design) RunColumns(run int) []int {
	var cols []int
	for i, r := range d.Run {
		if r == run {
			cols = append(cols, i)
		}
	}
	return cols
}

// NumRuns returns the number of LC-MS runs in the design.
func (d Design) NumRuns() int {
	n := 0
	for _, r := range d.Run {
		if r+1 > n {
			n = r + 1
		}
	}
	return n
}

// QuantRow is one protein group's quantitation record. Missing ratios are
// marked with NaN.
type QuantRow struct {
	GrpID  string
	Genes  string
	Ratios [NumRatios]float64
}

// LogRatioRow is a QuantRow with log2-transformed ratios. A log ratio is
// NaN when the source ratio is missing, zero or negative.
type LogRatioRow struct {
	QuantRow
	Log2 [NumRatios]float64
}

// Log2Ratios returns q with its ratios log2-transformed elementwise.
func Log2Ratios(q QuantRow) LogRatioRow {
	r := LogRatioRow{QuantRow: q}
	for i, v := range q.Ratios {
		if v > 0 {
			r.Log2[i] = math.Log2(v)
		} else {
			r.Log2[i] = math.NaN()
		}
	}
	return r
}

// Log2All applies Log2Ratios to each row of rows.
func Log2All(rows []QuantRow) []LogRatioRow {
	out := make([]LogRatioRow, len(rows))
	for i, q := range rows {
		out[i] = Log2Ratios(q)
	}
	return out
}

// Consistent reports whether the treatment effect of r dominates its
// control noise floor: both control log ratios must be strictly smaller
// in magnitude than every one of the treatment log ratios. Rows with a
// missing value in any required column are not consistent.
func Consistent(r LogRatioRow, d Design) bool {
	treat := d.Columns(Treatment)
	for _, c := range d.Columns(Control) {
		cv := math.Abs(r.Log2[c])
		if math.IsNaN(cv) {
			return false
		}
		for _, t := range treat {
			tv := math.Abs(r.Log2[t])
			if math.IsNaN(tv) || cv >= tv {
				return false
			}
		}
	}
	return true
}

// Filter returns the rows of rows that satisfy Consistent. This is the
// authoritative consistency filter and is applied by every analysis
// regardless of any pre-filtering done in the quantitation store query.
func Filter(rows []LogRatioRow, d Design) []LogRatioRow {
	var kept []LogRatioRow
	for _, r := range rows {
		if Consistent(r, d) {
			kept = append(kept, r)
		}
	}
	return kept
}
