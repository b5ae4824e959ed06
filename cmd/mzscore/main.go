// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// mzscore standardizes the log SILAC ratios of a dataset and selects
// protein groups whose standardized treatment ratios exceed a score
// cutoff consistently across both inverse-labeled runs.
//
// The per-run H/L, H/M and M/L ratio triples of the selected dataset
// are read from a PIQMIe SQLite database, log2 transformed and
// standardized per column, either classically (z: mean and standard
// deviation) or robustly (mz: median and median absolute deviation).
// A protein group is selected when its four treatment scores all
// exceed the cutoff in the direction expected from the labeling swap,
// in either orientation, and both of its control M/L scores lie
// within the cutoff. Two-sided normal P-values are reported
// for each treatment score.
//
// Selected groups are written to a tab-delimited table named
// {dataset}_mzscore_{stype}_{cutoff}.tab next to the database, or to
// the file named with -o. Nothing is written when no group is
// selected.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kortschak/reciprot/internal/de"
	"github.com/kortschak/reciprot/internal/piqmie"
	"github.com/kortschak/reciprot/internal/tabio"
)

func main() {
	var (
		dts    = flag.String("d", "", fmt.Sprintf("specify the cell line dataset %v (required)", piqmie.Datasets))
		kind   = flag.String("k", "norm", fmt.Sprintf("specify the ratio kind %v", piqmie.RatioKinds))
		stype  = flag.String("s", "mz", "specify the score type: z (mean/sd) or mz (median/MAD)")
		cutoff = flag.Float64("c", 1.5, "score magnitude cutoff (>0)")
		out    = flag.String("o", "", "specify the output file (default {dbdir}/{dataset}_mzscore_{stype}_{cutoff}.tab)")
		help   = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s standardizes the log SILAC ratios of a PIQMIe dataset per ratio
column, classically or robustly, and selects the protein groups whose
four treatment scores all exceed the cutoff in the direction expected
from the inverse labeling while both control scores stay within it.

The result table is tab-delimited; no file is written when no protein
group is selected.

Copyright ©2021 Dan Kortschak. All rights reserved.

`, filepath.Base(os.Args[0]))
		os.Exit(0)
	}

	if flag.NArg() != 1 || *dts == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !piqmie.ValidDataset(*dts) {
		fmt.Fprintf(os.Stderr, "unknown dataset %q: must be one of %v\n", *dts, piqmie.Datasets)
		os.Exit(2)
	}
	if *stype != "z" && *stype != "mz" {
		fmt.Fprintf(os.Stderr, "unknown score type %q: must be z or mz\n", *stype)
		os.Exit(2)
	}
	if *cutoff <= 0 {
		fmt.Fprintln(os.Stderr, "score cutoff must be positive")
		os.Exit(2)
	}
	dbfile := flag.Arg(0)
	if *out == "" {
		name := fmt.Sprintf("%s_mzscore_%s_%.2f.tab", *dts, *stype, *cutoff)
		*out = filepath.Join(filepath.Dir(dbfile), name)
	}

	log.Println("[querying quantitation store]")
	db, err := piqmie.Open(dbfile)
	if err != nil {
		log.Fatalf("failed to open quantitation store: %v", err)
	}
	defer db.Close()

	rows, err := piqmie.RatioTriples(db, *dts, *kind)
	if errors.Is(err, piqmie.ErrNoRows) {
		log.Println("no quantified protein groups: nothing to write")
		return
	}
	if err != nil {
		log.Fatalf("failed to read quantitation: %v", err)
	}
	log.Printf("read %d quantified protein groups", len(rows))

	log.Printf("[standardizing %s log ratios per column]", *kind)
	scores := standardize(rows, *stype)

	t := &tabio.Table{Header: scoreHeader()}
	for i, r := range rows {
		if !selected(scores[i], *cutoff) {
			continue
		}
		rec := []string{r.GrpID, r.Genes}
		for _, s := range scores[i] {
			rec = append(rec, tabio.Format(s))
		}
		for _, c := range treatCols {
			rec = append(rec, tabio.Format(de.NormalP(scores[i][c])))
		}
		t.Rows = append(t.Rows, rec)
	}
	if len(t.Rows) == 0 {
		log.Println("nothing to write onto outfile")
		return
	}
	err = tabio.Write(*out, t)
	if err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	log.Printf("Ndiff = %d", len(t.Rows))
}

// Score column indices: the run 1 triple followed by the run 2 triple,
// both in piqmie.TripleDirs order.
const (
	r1HL = iota
	r1HM
	r1ML
	r2HL
	r2HM
	r2ML

	numScores
)

// treatCols are the score columns measuring the treatment contrast.
var treatCols = [4]int{r1HL, r1HM, r2HL, r2HM}

func scoreHeader() []string {
	h := []string{"grp_id", "genes"}
	for run := 1; run <= 2; run++ {
		for _, d := range piqmie.TripleDirs {
			h = append(h, fmt.Sprintf("score_run%d_%s", run, d))
		}
	}
	// The P columns follow treatCols order.
	for run := 1; run <= 2; run++ {
		h = append(h, fmt.Sprintf("p_run%d_HL", run), fmt.Sprintf("p_run%d_HM", run))
	}
	return h
}

// standardize returns the per-column standardized log2 ratios of rows.
func standardize(rows []piqmie.TripleRow, stype string) [][numScores]float64 {
	cols := make([][]float64, numScores)
	for i := range cols {
		cols[i] = make([]float64, len(rows))
	}
	for i, r := range rows {
		for j := 0; j < 3; j++ {
			cols[j][i] = log2(r.Run1[j])
			cols[3+j][i] = log2(r.Run2[j])
		}
	}

	scores := make([][numScores]float64, len(rows))
	for j, c := range cols {
		var s []float64
		if stype == "z" {
			s = de.ZScores(c)
		} else {
			s = de.MZScores(c)
		}
		for i, v := range s {
			scores[i][j] = v
		}
	}
	return scores
}

// selected reports whether the four treatment scores of s exceed the
// cutoff in the direction expected from the labeling swap, in either
// orientation, with both control scores within the cutoff. A missing
// control score fails the gate.
func selected(s [numScores]float64, c float64) bool {
	for _, i := range [2]int{r1ML, r2ML} {
		if !(math.Abs(s[i]) <= c) {
			return false
		}
	}
	forward := s[r1HL] > c && s[r1HM] > c && s[r2HL] < -c && s[r2HM] < -c
	reciprocal := s[r1HL] < -c && s[r1HM] < -c && s[r2HL] > c && s[r2HM] > c
	return forward || reciprocal
}

func log2(v float64) float64 {
	if v > 0 {
		return math.Log2(v)
	}
	return math.NaN()
}
