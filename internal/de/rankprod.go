// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/kortschak/reciprot/internal/silac"
)

// RankProd is the one-class rank product test (Breitling et al. 2004)
// over the four treatment log ratios. The label-swap design simulates a
// two-color comparison, so all four columns are treated as repeated
// measurements of one class and the test measures consistent deviation
// from zero across them; this deliberately differs from the moderated-t
// variant's explicit two-condition model. Significance is estimated by a
// fixed number of seeded rank permutations and reported as the percentage
// of false positives (pfp), an FDR-scale quantity needing no secondary
// adjustment.
type RankProd struct {
	// Perms is the number of rank permutations of each column.
	// The zero value means 1000.
	Perms int

	// Seed seeds the permutation source so repeated runs are
	// reproducible.
	Seed int64
}

// Name returns "rankprod".
func (RankProd) Name() string { return "rankprod" }

// Test implements the Method interface.
func (rp RankProd) Test(rows []silac.LogRatioRow, design silac.Design) ([]Result, error) {
	if len(rows) == 0 {
		return nil, errors.New("de: no rows to rank")
	}
	perms := rp.Perms
	if perms == 0 {
		perms = 1000
	}
	if perms < 0 {
		return nil, fmt.Errorf("de: invalid permutation count %d", perms)
	}

	treat := design.Columns(silac.Treatment)
	n := len(rows)
	k := len(treat)
	cols := make([][]float64, k)
	for j, c := range treat {
		cols[j] = make([]float64, n)
		for i, r := range rows {
			v := r.Log2[c]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("de: missing log ratio in group %s", r.GrpID)
			}
			cols[j][i] = v
		}
	}

	rpUp := rankProducts(cols, true)
	rpDown := rankProducts(cols, false)

	// Null distribution: the rank product of independently drawn
	// uniform ranks, identical for both directions.
	rng := rand.New(rand.NewSource(rp.Seed))
	null := make([]float64, 0, n*perms)
	pranks := make([][]float64, k)
	for b := 0; b < perms; b++ {
		for j := range pranks {
			perm := rng.Perm(n)
			pranks[j] = make([]float64, n)
			for i, p := range perm {
				pranks[j][i] = float64(p + 1)
			}
		}
		for i := 0; i < n; i++ {
			prod := 1.0
			for j := range pranks {
				prod *= pranks[j][i]
			}
			null = append(null, math.Pow(prod, 1/float64(k)))
		}
	}
	sort.Float64s(null)

	res := make([]Result, n)
	for i, r := range rows {
		var mean float64
		for j := range cols {
			mean += cols[j][i]
		}
		mean /= float64(k)

		stat, p, pfp := rankProdCall(rpUp, i, null, perms, n)
		statD, pD, pfpD := rankProdCall(rpDown, i, null, perms, n)
		if pD < p {
			stat, p, pfp = statD, pD, pfpD
		}
		res[i] = Result{
			GrpID:      r.GrpID,
			Genes:      r.Genes,
			FoldChange: foldChange(mean),
			Log2FC:     mean,
			Stat:       stat,
			P:          p,
			AdjP:       pfp,
		}
	}
	return res, nil
}

// rankProducts returns the geometric mean rank of each row across the
// columns, ranking the largest values first for the up direction and the
// smallest first for the down direction.
func rankProducts(cols [][]float64, up bool) []float64 {
	n := len(cols[0])
	k := float64(len(cols))
	prod := make([]float64, n)
	for i := range prod {
		prod[i] = 1
	}
	for _, c := range cols {
		r := ranks(c)
		for i, v := range r {
			if up {
				v = float64(n) + 1 - v
			}
			prod[i] *= v
		}
	}
	for i, v := range prod {
		prod[i] = math.Pow(v, 1/k)
	}
	return prod
}

// rankProdCall converts an observed rank product into its permutation
// estimates: the expected number of null products at least as extreme
// gives the P-value, and dividing by the observed product's rank gives
// the pfp.
func rankProdCall(rp []float64, i int, null []float64, perms, n int) (stat, p, pfp float64) {
	stat = rp[i]
	c := sort.SearchFloat64s(null, math.Nextafter(stat, math.Inf(1)))
	e := float64(c) / float64(perms)
	p = e / float64(n)
	if p > 1 {
		p = 1
	}
	rank := 1
	for _, v := range rp {
		if v < stat {
			rank++
		}
	}
	pfp = e / float64(rank)
	if pfp > 1 {
		pfp = 1
	}
	return stat, p, pfp
}
