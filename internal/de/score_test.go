// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"math"
	"testing"
)

func TestZScores(t *testing.T) {
	const tol = 1e-9
	z := ZScores([]float64{1, 2, 3, 4, 5})
	want := -2 / math.Sqrt(2.5)
	if math.Abs(z[0]-want) > tol {
		t.Errorf("unexpected Z-score: got %v want %v", z[0], want)
	}
	if math.Abs(z[2]) > tol {
		t.Errorf("expected zero Z-score at the mean, got %v", z[2])
	}
	if math.Abs(z[0]+z[4]) > tol {
		t.Errorf("expected symmetric extreme scores: %v, %v", z[0], z[4])
	}

	z = ZScores([]float64{1, math.NaN(), 3, 5})
	if !math.IsNaN(z[1]) {
		t.Errorf("expected NaN score for missing value, got %v", z[1])
	}
	if math.IsNaN(z[0]) || math.IsNaN(z[2]) {
		t.Error("missing value contaminated finite scores")
	}
}

func TestMZScores(t *testing.T) {
	const tol = 1e-9
	m := MZScores([]float64{1, 2, 3, 4, 5})
	// Median 3, MAD 1.
	if math.Abs(m[0]-0.6745*(1-3)) > tol {
		t.Errorf("unexpected modified Z-score: got %v want %v", m[0], 0.6745*(1-3))
	}
	if math.Abs(m[2]) > tol {
		t.Errorf("expected zero score at the median, got %v", m[2])
	}

	// An extreme outlier moves the mean but not the median.
	m = MZScores([]float64{1, 2, 3, 4, 1e6})
	if math.Abs(m[1]-0.6745*(2-3)) > tol {
		t.Errorf("outlier perturbed the modified Z-score: got %v", m[1])
	}
}

func TestNormalP(t *testing.T) {
	if got := NormalP(0); math.Abs(got-1) > 1e-12 {
		t.Errorf("NormalP(0): got %v want 1", got)
	}
	if got := NormalP(1.96); math.Abs(got-0.05) > 1e-3 {
		t.Errorf("NormalP(1.96): got %v want ~0.05", got)
	}
	if got, want := NormalP(-2.5), NormalP(2.5); got != want {
		t.Errorf("NormalP is not symmetric: %v != %v", got, want)
	}
	if !math.IsNaN(NormalP(math.NaN())) {
		t.Error("expected NaN probability for missing score")
	}
}
