// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"math"
	"testing"

	"github.com/kortschak/reciprot/internal/piqmie"
)

func scores(v ...float64) [numScores]float64 {
	if len(v) != numScores {
		panic("mzscore: bad test score count")
	}
	var s [numScores]float64
	copy(s[:], v)
	return s
}

var selectedTests = []struct {
	name   string
	scores [numScores]float64 // r1HL, r1HM, r1ML, r2HL, r2HM, r2ML
	cutoff float64
	want   bool
}{
	{
		name:   "forward orientation",
		scores: scores(2.0, 2.1, 0.5, -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   true,
	},
	{
		name:   "reciprocal orientation",
		scores: scores(-2.0, -2.1, 0.5, 2.2, 2.0, -0.3),
		cutoff: 1.5,
		want:   true,
	},
	{
		name:   "same sign across runs",
		scores: scores(2.0, 2.1, 0.5, 2.2, 2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
	{
		name:   "one treatment score below cutoff",
		scores: scores(2.0, 1.4, 0.5, -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
	{
		name:   "treatment score equal to cutoff excluded",
		scores: scores(1.5, 2.1, 0.5, -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
	{
		name:   "control score above cutoff",
		scores: scores(2.0, 2.1, 1.6, -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
	{
		name:   "control score equal to cutoff admitted",
		scores: scores(2.0, 2.1, 1.5, -2.2, -2.0, -1.5),
		cutoff: 1.5,
		want:   true,
	},
	{
		name:   "missing control score",
		scores: scores(2.0, 2.1, math.NaN(), -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
	{
		name:   "missing treatment score",
		scores: scores(2.0, math.NaN(), 0.5, -2.2, -2.0, 0.3),
		cutoff: 1.5,
		want:   false,
	},
}

func TestSelected(t *testing.T) {
	for _, test := range selectedTests {
		got := selected(test.scores, test.cutoff)
		if got != test.want {
			t.Errorf("unexpected selection for %q: got %t want %t", test.name, got, test.want)
		}
	}
}

// tripleRows builds one row per value, placing the value in every ratio
// column so each column holds the same population.
func tripleRows(vals ...float64) []piqmie.TripleRow {
	rows := make([]piqmie.TripleRow, len(vals))
	for i, v := range vals {
		for j := 0; j < 3; j++ {
			rows[i].Run1[j] = v
			rows[i].Run2[j] = v
		}
	}
	return rows
}

func TestStandardize(t *testing.T) {
	const tol = 1e-9

	// log2 ratios 0..4 per column: mean 2, sample sd sqrt(2.5).
	rows := tripleRows(1, 2, 4, 8, 16)
	z := standardize(rows, "z")
	want := -2 / math.Sqrt(2.5)
	for j := 0; j < numScores; j++ {
		if math.Abs(z[0][j]-want) > tol {
			t.Errorf("unexpected z score in column %d: got %v want %v", j, z[0][j], want)
		}
		if math.Abs(z[2][j]) > tol {
			t.Errorf("expected zero z score at the mean in column %d, got %v", j, z[2][j])
		}
	}

	// Reciprocal ratios about 1 give negated scores: the swap symmetry
	// the selection gate relies on.
	rows = tripleRows(0.25, 0.5, 1, 2, 4)
	mz := standardize(rows, "mz")
	for j := 0; j < numScores; j++ {
		if math.Abs(mz[0][j]+mz[4][j]) > tol {
			t.Errorf("reciprocal ratio scores do not negate in column %d: %v, %v", j, mz[0][j], mz[4][j])
		}
		if math.Abs(mz[2][j]) > tol {
			t.Errorf("expected zero score at unit ratio in column %d, got %v", j, mz[2][j])
		}
	}

	// Missing and non-positive ratios propagate as NaN without
	// contaminating the finite scores.
	rows = tripleRows(1, 2, 4, 8, 16)
	rows[1].Run1[0] = 0
	rows[3].Run2[2] = math.NaN()
	z = standardize(rows, "z")
	if !math.IsNaN(z[1][r1HL]) {
		t.Errorf("expected NaN score for zero ratio, got %v", z[1][r1HL])
	}
	if !math.IsNaN(z[3][r2ML]) {
		t.Errorf("expected NaN score for missing ratio, got %v", z[3][r2ML])
	}
	if math.IsNaN(z[0][r1HL]) || math.IsNaN(z[4][r2ML]) {
		t.Error("missing ratio contaminated finite scores")
	}
}
