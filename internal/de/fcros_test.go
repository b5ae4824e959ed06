// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"math"
	"testing"

	"github.com/kortschak/reciprot/internal/silac"
)

func TestFCROS(t *testing.T) {
	d := silac.TriplexDesign()
	rows := syntheticRows(4, 30)
	res, err := FCROS{}.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(res) != len(rows) {
		t.Fatalf("expected %d results, got %d", len(rows), len(res))
	}
	for _, r := range res {
		if r.FoldChange < 1 {
			t.Errorf("fold change below 1 in group %s: %v", r.GrpID, r.FoldChange)
		}
		if r.P < 0 || r.P > 1 || math.IsNaN(r.P) {
			t.Errorf("P-value out of range in group %s: %v", r.GrpID, r.P)
		}
		if r.Stat <= 0 || r.Stat >= 1 {
			t.Errorf("f-value out of range in group %s: %v", r.GrpID, r.Stat)
		}
	}

	// Group 1 is up-regulated in every column, so it holds the top
	// combined rank; group 2 the bottom.
	fUp, fDown := res[0].Stat, res[1].Stat
	for _, r := range res[4:] {
		if r.Stat >= fUp {
			t.Errorf("null group %s outranks the up-regulated group: %v >= %v", r.GrpID, r.Stat, fUp)
		}
		if r.Stat <= fDown {
			t.Errorf("null group %s underranks the down-regulated group: %v <= %v", r.GrpID, r.Stat, fDown)
		}
	}
	if res[0].P >= res[4].P || res[1].P >= res[4].P {
		t.Errorf("regulated groups not more significant than null group: %v, %v vs %v", res[0].P, res[1].P, res[4].P)
	}
}

func TestFCROSDegenerate(t *testing.T) {
	d := silac.TriplexDesign()
	rows := make([]silac.LogRatioRow, 5)
	for i := range rows {
		rows[i].GrpID = itoa(i)
		for c := range rows[i].Log2 {
			rows[i].Log2[c] = 1
		}
	}
	if _, err := (FCROS{}).Test(rows, d); err == nil {
		t.Error("expected error for degenerate rank distribution")
	}
	if _, err := (FCROS{}).Test(rows[:1], d); err == nil {
		t.Error("expected error for single-row input")
	}
}

func TestTrimmedMean(t *testing.T) {
	if got := trimmedMean([]float64{10, 1, 2, -50}); got != 1.5 {
		t.Errorf("unexpected trimmed mean: got %v want 1.5", got)
	}
	if got := trimmedMean([]float64{1, 3}); got != 2 {
		t.Errorf("unexpected short-input mean: got %v want 2", got)
	}
}
