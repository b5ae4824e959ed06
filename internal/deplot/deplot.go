// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package deplot renders volcano plots of differential expression result
// sets.
package deplot

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kortschak/reciprot/internal/de"
)

// Volcano plots the results as (log2 fold change, -log10 adjusted P) to
// path along with the fold-change and P-value cutoff thresholds.
func Volcano(path, title string, res []de.Result, fcCutoff, pCutoff float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "log2 fold change"
	p.Y.Label.Text = "-log10 adjusted P"

	pts := make(plotter.XYs, 0, len(res))
	var xMax, yMax float64
	for _, r := range res {
		y := -math.Log10(r.AdjP)
		if math.IsInf(y, 0) || math.IsNaN(y) {
			continue
		}
		pts = append(pts, plotter.XY{X: r.Log2FC, Y: y})
		if a := math.Abs(r.Log2FC); a > xMax {
			xMax = a
		}
		if y > yMax {
			yMax = y
		}
	}
	if len(pts) != 0 {
		values, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		values.Radius = vg.Points(1.5)

		lfc := math.Log2(fcCutoff)
		if lfc > xMax {
			xMax = lfc
		}
		threshP, err := plotter.NewLine(plotter.XYs{
			{X: -xMax, Y: -math.Log10(pCutoff)},
			{X: xMax, Y: -math.Log10(pCutoff)},
		})
		if err != nil {
			return err
		}
		threshP.Color = color.RGBA{B: 255, A: 255}

		p.Add(values, threshP)

		for _, x := range []float64{-lfc, lfc} {
			threshFC, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: yMax}})
			if err != nil {
				return err
			}
			threshFC.Color = color.RGBA{R: 255, A: 255}
			p.Add(threshFC)
		}
	}
	return p.Save(15*vg.Centimeter, 12*vg.Centimeter, path)
}
