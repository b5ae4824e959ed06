// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kortschak/reciprot/internal/silac"
)

// ModTreat is a moderated-t differential expression test against a minimum
// fold-change threshold. A two-condition linear model is fitted to the six
// log ratios of each protein group by generalized least squares, using a
// consensus intra-run correlation estimated across all groups to account
// for the pairing of ratios within an LC-MS run. Residual variances are
// moderated by empirical Bayes shrinkage towards a common prior fitted by
// the method of moments on log variances (Smyth 2004), and the null
// hypothesis tested is |effect| ≤ log2(FCCutoff) rather than effect = 0
// (TREAT, McCarthy and Smyth 2009). P-values are Benjamini-Hochberg
// adjusted.
type ModTreat struct {
	// FCCutoff is the fold-change threshold folded into the null
	// hypothesis. It must be ≥1; 1 reduces TREAT to an ordinary
	// moderated t-test.
	FCCutoff float64
}

// Name returns "modt".
func (ModTreat) Name() string { return "modt" }

// ErrDegenerateFit is returned when the linear model cannot be fitted.
var ErrDegenerateFit = errors.New("de: degenerate model fit")

// Test implements the Method interface.
func (m ModTreat) Test(rows []silac.LogRatioRow, design silac.Design) ([]Result, error) {
	if len(rows) == 0 {
		return nil, errors.New("de: no rows to fit")
	}
	if m.FCCutoff < 1 {
		return nil, fmt.Errorf("de: fold-change threshold %v < 1", m.FCCutoff)
	}
	for _, r := range rows {
		for _, v := range r.Log2 {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("de: missing log ratio in group %s", r.GrpID)
			}
		}
	}

	n := silac.NumRatios
	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		if design.Condition[i] == silac.Treatment {
			x.Set(i, 1, 1)
		}
	}
	blocks := make([][]int, design.NumRuns())
	for r := range blocks {
		blocks[r] = design.RunColumns(r)
	}

	rho := consensusCorrelation(rows, x, blocks)

	// Whiten the design once; the correlation structure is shared by
	// all groups.
	wx := mat.NewDense(n, 2, nil)
	for j := 0; j < 2; j++ {
		col := mat.Col(nil, j, x)
		whiten(col, blocks, rho)
		wx.SetCol(j, col)
	}
	var xtx mat.Dense
	xtx.Mul(wx.T(), wx)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDegenerateFit, err)
	}
	var proj mat.Dense // 2×n hat projector onto the coefficients.
	proj.Mul(&xtxInv, wx.T())
	unscaled := math.Sqrt(xtxInv.At(1, 1))

	df := float64(n - 2)
	coef := make([]float64, len(rows))
	s2 := make([]float64, len(rows))
	y := make([]float64, n)
	for i, r := range rows {
		copy(y, r.Log2[:])
		whiten(y, blocks, rho)
		yv := mat.NewVecDense(n, y)
		var b mat.VecDense
		b.MulVec(&proj, yv)
		var fit mat.VecDense
		fit.MulVec(wx, &b)
		var rss float64
		for k := 0; k < n; k++ {
			e := y[k] - fit.AtVec(k)
			rss += e * e
		}
		coef[i] = b.AtVec(1)
		s2[i] = rss / df
	}

	d0, s02, err := fitFDist(s2, df)
	if err != nil {
		return nil, err
	}
	dfTotal := df + d0
	if dfTotal > 1e6 {
		dfTotal = 1e6
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: dfTotal}

	lfc := math.Log2(m.FCCutoff)
	res := make([]Result, len(rows))
	for i, r := range rows {
		s2post := s2[i]
		if !math.IsInf(d0, 1) {
			s2post = (d0*s02 + df*s2[i]) / (d0 + df)
		} else {
			s2post = s02
		}
		se := math.Sqrt(s2post) * unscaled
		if se == 0 || math.IsNaN(se) {
			return nil, fmt.Errorf("%w: zero standard error in group %s", ErrDegenerateFit, r.GrpID)
		}
		ac := math.Abs(coef[i])
		tr := (ac - lfc) / se
		tl := (ac + lfc) / se
		p := t.Survival(tr) + t.Survival(tl)
		if p > 1 {
			p = 1
		}
		res[i] = Result{
			GrpID:      r.GrpID,
			Genes:      r.Genes,
			FoldChange: foldChange(coef[i]),
			Log2FC:     coef[i],
			Stat:       math.Copysign(tr, coef[i]),
			P:          p,
		}
	}
	adj := make([]float64, len(res))
	for i, r := range res {
		adj[i] = r.P
	}
	for i, a := range BHAdjust(adj) {
		res[i].AdjP = a
	}
	return res, nil
}

// consensusCorrelation estimates the common intra-run correlation of the
// model residuals: a per-group one-way intraclass correlation over the run
// blocks, combined across groups on the Fisher z scale. The estimate is
// restricted to the valid range for the block size.
func consensusCorrelation(rows []silac.LogRatioRow, x *mat.Dense, blocks [][]int) float64 {
	n, _ := x.Dims()
	var qr mat.QR
	qr.Factorize(x)

	m := len(blocks[0])
	lo := -1/float64(m-1) + 1e-3
	const hi = 1 - 1e-3

	var zsum float64
	var nz int
	y := mat.NewVecDense(n, nil)
	for _, r := range rows {
		for i := 0; i < n; i++ {
			y.SetVec(i, r.Log2[i])
		}
		var b mat.VecDense
		if err := qr.SolveVecTo(&b, false, y); err != nil {
			continue
		}
		var fit mat.VecDense
		fit.MulVec(x, &b)

		e := make([]float64, n)
		for i := 0; i < n; i++ {
			e[i] = y.AtVec(i) - fit.AtVec(i)
		}
		rho, ok := intraclass(e, blocks)
		if !ok {
			continue
		}
		if rho < lo {
			rho = lo
		} else if rho > hi {
			rho = hi
		}
		zsum += math.Atanh(rho)
		nz++
	}
	if nz == 0 {
		return 0
	}
	return math.Tanh(zsum / float64(nz))
}

// intraclass computes the one-way intraclass correlation of e over the
// given equally sized blocks.
func intraclass(e []float64, blocks [][]int) (rho float64, ok bool) {
	k := len(blocks)
	m := len(blocks[0])
	if k < 2 || m < 2 {
		return 0, false
	}
	grand := stat.Mean(e, nil)
	var ssb, ssw float64
	for _, b := range blocks {
		var mean float64
		for _, i := range b {
			mean += e[i]
		}
		mean /= float64(m)
		ssb += (mean - grand) * (mean - grand)
		for _, i := range b {
			ssw += (e[i] - mean) * (e[i] - mean)
		}
	}
	msb := float64(m) * ssb / float64(k-1)
	msw := ssw / float64(k*(m-1))
	den := msb + float64(m-1)*msw
	if den == 0 || math.IsNaN(den) {
		return 0, false
	}
	return (msb - msw) / den, true
}

// whiten transforms v in place so that observations correlated at rho
// within each block become uncorrelated with unit relative variance. For
// an equicorrelated block the inverse square root of the correlation
// matrix has the closed form
//
//	R^{-1/2} = (I - J/m)/√(1-ρ) + (J/m)/√(1+(m-1)ρ)
//
// where J is the all-ones matrix.
func whiten(v []float64, blocks [][]int, rho float64) {
	for _, b := range blocks {
		m := float64(len(b))
		a := 1 + (m-1)*rho
		c := 1 - rho
		var mean float64
		for _, i := range b {
			mean += v[i]
		}
		mean /= m
		sa := 1 / math.Sqrt(a)
		sc := 1 / math.Sqrt(c)
		for _, i := range b {
			v[i] = sc*(v[i]-mean) + sa*mean
		}
	}
}

// fitFDist fits a scaled F-distribution to the sample variances s2 with df
// degrees of freedom each, returning the prior degrees of freedom and
// prior variance (Smyth 2004, method of moments on log variances). An
// infinite d0 means the variances are effectively equal and full shrinkage
// applies.
func fitFDist(s2 []float64, df float64) (d0, s02 float64, err error) {
	z := make([]float64, 0, len(s2))
	for _, v := range s2 {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			// Degenerate fits carry no variance information.
			continue
		}
		z = append(z, math.Log(v))
	}
	if len(z) == 0 {
		return 0, 0, fmt.Errorf("%w: no usable residual variances", ErrDegenerateFit)
	}
	for i := range z {
		z[i] += math.Log(df/2) - mathext.Digamma(df/2)
	}
	emean := stat.Mean(z, nil)
	evar := stat.Variance(z, nil) - trigamma(df/2)
	if math.IsNaN(emean) || math.IsInf(emean, 0) {
		return 0, 0, fmt.Errorf("%w: unstable variance moments", ErrDegenerateFit)
	}
	if evar > 0 {
		d0 = 2 * trigammaInverse(evar)
		s02 = math.Exp(emean + mathext.Digamma(d0/2) - math.Log(d0/2))
	} else {
		d0 = math.Inf(1)
		s02 = math.Exp(emean)
	}
	if s02 <= 0 || math.IsNaN(s02) {
		return 0, 0, fmt.Errorf("%w: unstable prior variance", ErrDegenerateFit)
	}
	return d0, s02, nil
}
