// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kortschak/reciprot/internal/silac"
)

// FCROS is a rank-based outlier test adapted from fold change rank
// ordering statistics (Dembélé and Kastner 2013). Each protein group's
// position is ranked within each of the four treatment ratio columns, the
// per-group ranks are combined by a trimmed mean discarding the extreme
// pair, and the combined rank's position in its empirical distribution
// yields an f-value in (0,1). A one-sided P-value follows from the normal
// approximation of the combined rank distribution; no permutation is
// involved. The robust fold change is the trimmed mean of the group's
// treatment ratios, reciprocal-normalized to ≥1.
type FCROS struct{}

// Name returns "fcros".
func (FCROS) Name() string { return "fcros" }

// Test implements the Method interface.
func (FCROS) Test(rows []silac.LogRatioRow, design silac.Design) ([]Result, error) {
	if len(rows) < 2 {
		return nil, errors.New("de: too few rows to rank")
	}
	treat := design.Columns(silac.Treatment)
	n := len(rows)
	k := len(treat)

	colRanks := make([][]float64, k)
	for j, c := range treat {
		col := make([]float64, n)
		for i, r := range rows {
			v := r.Log2[c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("de: missing log ratio in group %s", r.GrpID)
			}
			col[i] = v
		}
		colRanks[j] = ranks(col)
	}

	ri := make([]float64, n)
	rowRanks := make([]float64, k)
	for i := range rows {
		for j := range colRanks {
			rowRanks[j] = colRanks[j][i]
		}
		ri[i] = trimmedMean(rowRanks)
	}

	mean := stat.Mean(ri, nil)
	sd := stat.StdDev(ri, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil, errors.New("de: degenerate rank distribution")
	}
	norm := distuv.Normal{Mu: 0, Sigma: 1}

	res := make([]Result, n)
	vals := make([]float64, k)
	for i, r := range rows {
		for j, c := range treat {
			vals[j] = r.Log2[c]
		}
		robust := trimmedMean(vals) // trimmed mean log ratio

		z := (ri[i] - mean) / sd
		pDown := norm.CDF(z)
		pUp := 1 - pDown
		p := pUp
		if robust < 0 {
			p = pDown
		}
		res[i] = Result{
			GrpID:      r.GrpID,
			Genes:      r.Genes,
			FoldChange: foldChange(robust),
			Log2FC:     robust,
			Stat:       ri[i] / (float64(n) + 1), // f-value
			P:          p,
		}
	}
	adj := make([]float64, n)
	for i, r := range res {
		adj[i] = r.P
	}
	for i, a := range BHAdjust(adj) {
		res[i].AdjP = a
	}
	return res, nil
}

// trimmedMean returns the mean of v after discarding its minimum and
// maximum. v is left unmodified for callers reusing the buffer.
func trimmedMean(v []float64) float64 {
	if len(v) <= 2 {
		return stat.Mean(v, nil)
	}
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	return stat.Mean(s[1:len(s)-1], nil)
}
