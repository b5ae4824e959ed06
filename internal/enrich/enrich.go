// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package enrich performs hypergeometric set-enrichment of differential
// expression hit lists against pathway gene-set collections.
package enrich

import (
	"errors"
	"math"
	"sort"

	"github.com/kortschak/reciprot/internal/de"
)

// Result is the enrichment call for one gene set.
type Result struct {
	ID   string
	Name string

	// SetSize is the number of set members present in the population
	// and Overlap the number also present in the study set. Expected
	// is the overlap expected under random sampling.
	SetSize  int
	Overlap  int
	Expected float64

	P    float64
	AdjP float64

	// Hits is the sorted overlap membership.
	Hits []string
}

// Test computes the hypergeometric upper-tail enrichment of the study
// identifiers within each set, against the given population. Identifiers
// absent from the population are ignored, and sets with no member in the
// population are not tested. P-values are Benjamini-Hochberg adjusted
// across the tested sets and results are sorted ascending by adjusted
// P-value.
func Test(study, population []string, sets []GeneSet) ([]Result, error) {
	pop := make(map[string]bool, len(population))
	for _, id := range population {
		pop[id] = true
	}
	if len(pop) == 0 {
		return nil, errors.New("enrich: empty population")
	}
	stud := make(map[string]bool, len(study))
	for _, id := range study {
		if pop[id] {
			stud[id] = true
		}
	}
	if len(stud) == 0 {
		return nil, errors.New("enrich: no study identifiers in population")
	}

	bigN := len(pop)
	n := len(stud)

	var res []Result
	for _, s := range sets {
		var k int
		var hits []string
		seen := make(map[string]bool, len(s.Genes))
		for _, g := range s.Genes {
			if seen[g] || !pop[g] {
				continue
			}
			seen[g] = true
			k++
			if stud[g] {
				hits = append(hits, g)
			}
		}
		if k == 0 {
			continue
		}
		sort.Strings(hits)
		res = append(res, Result{
			ID:       s.ID,
			Name:     s.Name,
			SetSize:  k,
			Overlap:  len(hits),
			Expected: float64(n) * float64(k) / float64(bigN),
			P:        hyperUpperTail(len(hits), n, k, bigN),
			Hits:     hits,
		})
	}
	if len(res) == 0 {
		return nil, errors.New("enrich: no sets overlap the population")
	}

	p := make([]float64, len(res))
	for i, r := range res {
		p[i] = r.P
	}
	for i, a := range de.BHAdjust(p) {
		res[i].AdjP = a
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].AdjP != res[j].AdjP {
			return res[i].AdjP < res[j].AdjP
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

// hyperUpperTail returns P(X ≥ k) for X hypergeometric with population
// size N, K marked members and n draws: the probability of an overlap at
// least as large as observed.
func hyperUpperTail(k, n, bigK, bigN int) float64 {
	hi := n
	if bigK < hi {
		hi = bigK
	}
	var p float64
	for i := k; i <= hi; i++ {
		p += math.Exp(lchoose(bigK, i) + lchoose(bigN-bigK, n-i) - lchoose(bigN, n))
	}
	if p > 1 {
		p = 1
	}
	return p
}

// lchoose returns log of the binomial coefficient n over k.
func lchoose(n, k int) float64 {
	if k < 0 || k > n {
		return math.Inf(-1)
	}
	ln, _ := math.Lgamma(float64(n + 1))
	lk, _ := math.Lgamma(float64(k + 1))
	lnk, _ := math.Lgamma(float64(n - k + 1))
	return ln - lk - lnk
}
