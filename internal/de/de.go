// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package de provides the differential expression tests applied to triplex
// SILAC log-ratio data: a moderated-t test against a fold-change threshold,
// a rank product permutation test and a rank-based outlier test. The tests
// are interchangeable behind the Method interface; all of them report
// fold changes normalized to the ≥1 ratio domain so that up- and
// down-regulation magnitudes share one scale.
package de

import (
	"math"
	"sort"

	"github.com/kortschak/reciprot/internal/silac"
)

// Result is one protein group's differential expression call.
type Result struct {
	GrpID string
	Genes string

	// FoldChange is the effect size in the ratio domain, normalized
	// to ≥1 by taking the reciprocal when the natural value is <1.
	// Log2FC retains the sign of the effect.
	FoldChange float64
	Log2FC     float64

	// Stat is the method's test statistic: a moderated t, a rank
	// product or an f-value.
	Stat float64

	// P is the method's raw P-value and AdjP its multiple-testing
	// adjusted form. Methods whose P-values need no secondary
	// adjustment report AdjP equal to P.
	P    float64
	AdjP float64
}

// Method is a differential expression test over consistency-filtered
// log-ratio rows.
type Method interface {
	// Name returns the method name used in output file naming.
	Name() string

	// Test computes per-group statistics for rows under the design.
	// Callers must have applied the consistency filter; rows with
	// missing log ratios in the columns a method uses are a
	// NumericalError.
	Test(rows []silac.LogRatioRow, design silac.Design) ([]Result, error)
}

// Apply retains the results passing both cutoffs and sorts them ascending
// by adjusted P-value. The fold-change cutoff is exclusive and the P-value
// cutoff is exclusive, so fcCutoff=1 admits every non-unity fold change
// and pCutoff=0 admits nothing. A pCutoff of 1 disables the significance
// filter entirely, admitting rows whose adjusted P-value was capped at 1.
// Ties are broken on group ID so repeated applications are bit-for-bit
// identical.
func Apply(res []Result, fcCutoff, pCutoff float64) []Result {
	var kept []Result
	for _, r := range res {
		if r.FoldChange > fcCutoff && (pCutoff == 1 || r.AdjP < pCutoff) {
			kept = append(kept, r)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].AdjP != kept[j].AdjP {
			return kept[i].AdjP < kept[j].AdjP
		}
		return kept[i].GrpID < kept[j].GrpID
	})
	return kept
}

// BHAdjust returns the Benjamini-Hochberg adjusted form of p, controlling
// the false discovery rate over the family of tests.
func BHAdjust(p []float64) []float64 {
	n := len(p)
	if n == 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return p[idx[i]] < p[idx[j]] })

	adj := make([]float64, n)
	min := 1.0
	for i := n - 1; i >= 0; i-- {
		a := p[idx[i]] * float64(n) / float64(i+1)
		if a > 1 {
			a = 1
		}
		if a < min {
			min = a
		} else {
			a = min
		}
		adj[idx[i]] = a
	}
	return adj
}

// ranks returns the ascending ranks of x, 1-based, with ties given their
// average rank.
func ranks(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return x[idx[i]] < x[idx[j]] })

	r := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && x[idx[j]] == x[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			r[idx[k]] = avg
		}
		i = j
	}
	return r
}

// foldChange converts a log2 effect to the ≥1 ratio domain.
func foldChange(log2fc float64) float64 {
	return math.Exp2(math.Abs(log2fc))
}
