// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package de

import "math"

// trigamma returns the second derivative of the log gamma function at x,
// by recurrence below 6 and the asymptotic expansion above.
func trigamma(x float64) float64 {
	if math.IsNaN(x) || x <= 0 {
		return math.NaN()
	}
	var v float64
	for x < 6 {
		v += 1 / (x * x)
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	return v + inv*(1+inv*(0.5+inv*(1.0/6-inv2*(1.0/30-inv2*(1.0/42-inv2/30)))))
}

// tetragamma returns the third derivative of the log gamma function at x.
func tetragamma(x float64) float64 {
	if math.IsNaN(x) || x <= 0 {
		return math.NaN()
	}
	var v float64
	for x < 6 {
		v -= 2 / (x * x * x)
		x++
	}
	inv := 1 / x
	inv2 := inv * inv
	return v - inv2*(1+inv*(1+inv*(0.5-inv2*(1.0/6-inv2/6))))
}

// trigammaInverse returns y such that trigamma(y) = x, by Newton iteration
// on the monotone decreasing trigamma (Smyth 2004, limma's fitFDist).
func trigammaInverse(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case x > 1e7:
		return 1 / math.Sqrt(x)
	case x < 1e-6:
		return 1 / x
	}
	y := 0.5 + 1/x
	for i := 0; i < 50; i++ {
		tri := trigamma(y)
		dif := tri * (1 - tri/x) / tetragamma(y)
		y += dif
		if -dif/y < 1e-8 {
			break
		}
	}
	return y
}
