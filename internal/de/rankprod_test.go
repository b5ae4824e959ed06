// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"math"
	"reflect"
	"testing"

	"github.com/kortschak/reciprot/internal/silac"
)

func TestRankProd(t *testing.T) {
	d := silac.TriplexDesign()
	rows := syntheticRows(4, 30)
	rp := RankProd{Perms: 200, Seed: 1}
	res, err := rp.Test(rows, d)
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
		if r.AdjP < 0 || r.AdjP > 1 || math.IsNaN(r.AdjP) {
			t.Errorf("pfp out of range in group %s: %v", r.GrpID, r.AdjP)
		}
	}

	// The regulated groups occupy the extreme ranks in every column, so
	// their P-values must not exceed any null group's.
	var maxEffectP, minNullP float64
	minNullP = 1
	for i, r := range res {
		if i < 4 {
			if r.P > maxEffectP {
				maxEffectP = r.P
			}
		} else if r.P < minNullP {
			minNullP = r.P
		}
	}
	if maxEffectP > minNullP {
		t.Errorf("effect groups not separated from null groups: max effect P %v, min null P %v", maxEffectP, minNullP)
	}
}

func TestRankProdSeededReproducibility(t *testing.T) {
	d := silac.TriplexDesign()
	rows := syntheticRows(3, 20)
	rp := RankProd{Perms: 50, Seed: 42}
	a, err := rp.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	b, err := rp.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("seeded permutation test is not reproducible")
	}

	c, err := RankProd{Perms: 50, Seed: 43}.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds produced identical permutation estimates")
	}
}

func TestRankProdDefaultPerms(t *testing.T) {
	d := silac.TriplexDesign()
	rows := syntheticRows(1, 5)
	def, err := RankProd{Seed: 7}.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	want, err := RankProd{Perms: 1000, Seed: 7}.Test(rows, d)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if !reflect.DeepEqual(def, want) {
		t.Error("zero permutation count does not default to 1000")
	}
}

func TestRankProdErrors(t *testing.T) {
	d := silac.TriplexDesign()
	if _, err := (RankProd{}).Test(nil, d); err == nil {
		t.Error("expected error for empty row set")
	}
	rows := syntheticRows(1, 5)
	rows[3].Log2[silac.H1L0] = math.NaN()
	if _, err := (RankProd{Perms: 10}).Test(rows, d); err == nil {
		t.Error("expected error for missing log ratio")
	}
	if _, err := (RankProd{Perms: -1}).Test(syntheticRows(1, 5), d); err == nil {
		t.Error("expected error for negative permutation count")
	}
}

func TestRankProducts(t *testing.T) {
	cols := [][]float64{
		{3, 2, 1},
		{3, 2, 1},
	}
	up := rankProducts(cols, true)
	// Row 0 is ranked first for up-regulation in both columns.
	want := []float64{1, 2, 3}
	if !reflect.DeepEqual(up, want) {
		t.Errorf("unexpected up rank products: got %v want %v", up, want)
	}
	down := rankProducts(cols, false)
	want = []float64{3, 2, 1}
	if !reflect.DeepEqual(down, want) {
		t.Errorf("unexpected down rank products: got %v want %v", down, want)
	}
}
