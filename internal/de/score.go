// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ZScores returns the canonical Z-score of each value of x against the
// mean and sample standard deviation of the finite values of x. Missing
// values propagate as NaN.
func ZScores(x []float64) []float64 {
	fin := finite(x)
	mean := stat.Mean(fin, nil)
	sd := stat.StdDev(fin, nil)
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = (v - mean) / sd
	}
	return z
}

// MZScores returns the modified Z-score of each value of x, standardizing
// on the median and median absolute deviation of the finite values of x.
// The modified score is robust to the heavy tails of SILAC ratio
// distributions (Iglewicz and Hoaglin 1993). Missing values propagate as
// NaN.
func MZScores(x []float64) []float64 {
	fin := finite(x)
	med := median(fin)
	dev := make([]float64, len(fin))
	for i, v := range fin {
		dev[i] = math.Abs(v - med)
	}
	mad := median(dev)
	z := make([]float64, len(x))
	for i, v := range x {
		z[i] = 0.6745 * (v - med) / mad
	}
	return z
}

// NormalP converts a standardized score to its two-tailed normal
// probability.
func NormalP(score float64) float64 {
	if math.IsNaN(score) {
		return math.NaN()
	}
	return 2 * distuv.UnitNormal.CDF(-math.Abs(score))
}

func finite(x []float64) []float64 {
	fin := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			fin = append(fin, v)
		}
	}
	return fin
}

func median(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
