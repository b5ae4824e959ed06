// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fcsigb selects differentially expressed protein groups of triplex
// inverse-labeling SILAC quantitation by fold change combined with the
// peak-intensity significance B estimates stored alongside the ratios,
// and merges the resulting table with the output of the statistical
// analyses.
//
// In its default mode fcsigb queries a PIQMIe SQLite database for the
// protein groups of the selected dataset whose four treatment ratios
// exceed the fold-change cutoff in a consistent direction across both
// runs, requiring all four treatment significance B estimates below
// the -b cutoff and both control estimates at or above it. With the
// default -b of 1 the significance requirement is replaced by ratio
// dominance: the smaller of each reciprocal treatment ratio pair must
// exceed every control ratio. Results are written to a tab-delimited
// table named {dataset}_fcsigB.tab next to the database, or to the
// file named with -o.
//
// With -merge the two positional arguments name existing tab-delimited
// tables; the second is left-joined onto the first by the grp_id
// column and the merged table is written to the -o file, which is then
// required. Rows of the first table without a counterpart receive NA
// in the appended columns.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kortschak/reciprot/internal/piqmie"
	"github.com/kortschak/reciprot/internal/silac"
	"github.com/kortschak/reciprot/internal/tabio"
)

func main() {
	var (
		dts   = flag.String("d", "", fmt.Sprintf("specify the cell line dataset %v (required unless -merge)", piqmie.Datasets))
		fc    = flag.Float64("f", 1.5, "minimum fold change required of differentially expressed protein groups (≥1)")
		sigB  = flag.Float64("b", 1, "significance B cutoff; 1 selects by ratio dominance instead")
		out   = flag.String("o", "", "specify the output file (default {dbdir}/{dataset}_fcsigB.tab; required with -merge)")
		merge = flag.Bool("merge", false, "merge two result tables by grp_id instead of querying a store")
		help  = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s selects differentially expressed protein groups of triplex
inverse-labeling SILAC quantitation held in a PIQMIe SQLite database
by fold change combined with peak-intensity significance B estimates,
or with -merge joins two tab-delimited result tables by the grp_id
column so that the fold-change selection can be compared with the
statistical analyses.

Copyright ©2021 Dan Kortschak. All rights reserved.

`, filepath.Base(os.Args[0]))
		os.Exit(0)
	}

	if *merge {
		mergeTables(flag.Args(), *out)
		return
	}

	if flag.NArg() != 1 || *dts == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !piqmie.ValidDataset(*dts) {
		fmt.Fprintf(os.Stderr, "unknown dataset %q: must be one of %v\n", *dts, piqmie.Datasets)
		os.Exit(2)
	}
	if *fc < 1 {
		fmt.Fprintln(os.Stderr, "fold-change cutoff cannot be smaller than 1")
		os.Exit(2)
	}
	if *sigB <= 0 || *sigB > 1 {
		fmt.Fprintln(os.Stderr, "significance B cutoff must be in (0,1]")
		os.Exit(2)
	}
	dbfile := flag.Arg(0)
	if *out == "" {
		*out = filepath.Join(filepath.Dir(dbfile), *dts+"_fcsigB.tab")
	}

	log.Println("[querying quantitation store]")
	db, err := piqmie.Open(dbfile)
	if err != nil {
		log.Fatalf("failed to open quantitation store: %v", err)
	}
	defer db.Close()

	rows, err := piqmie.SigB(db, *dts, *fc, *sigB)
	if errors.Is(err, piqmie.ErrNoRows) {
		log.Println("nothing to write onto outfile")
		return
	}
	if err != nil {
		log.Fatalf("failed to read quantitation: %v", err)
	}

	err = tabio.Write(*out, sigBTable(rows))
	if err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	log.Printf("Ndiff = %d", len(rows))
}

func sigBTable(rows []piqmie.SigBRow) *tabio.Table {
	header := []string{"grp_id", "genes"}
	for _, n := range silac.RatioNames {
		header = append(header, "ratio_"+n)
	}
	for _, n := range silac.RatioNames {
		header = append(header, "log2.ratio_"+n)
	}
	for _, n := range silac.RatioNames {
		header = append(header, "sigB_"+n)
	}

	t := &tabio.Table{Header: header}
	for _, r := range rows {
		lr := silac.Log2Ratios(r.QuantRow)
		rec := []string{r.GrpID, r.Genes}
		for _, v := range r.Ratios {
			rec = append(rec, tabio.Format(v))
		}
		for _, v := range lr.Log2 {
			rec = append(rec, tabio.Format(v))
		}
		for _, v := range r.SigB {
			rec = append(rec, tabio.Format(v))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func mergeTables(paths []string, out string) {
	if len(paths) != 2 || out == "" {
		flag.Usage()
		os.Exit(2)
	}
	base, err := tabio.Read(paths[0])
	if err != nil {
		log.Fatalf("failed to read %s: %v", paths[0], err)
	}
	extra, err := tabio.Read(paths[1])
	if err != nil {
		log.Fatalf("failed to read %s: %v", paths[1], err)
	}
	merged, err := tabio.MergeLeft(base, extra, "grp_id", "log2.")
	if err != nil {
		log.Fatalf("failed to merge tables: %v", err)
	}
	err = tabio.Write(out, merged)
	if err != nil {
		log.Fatalf("failed to write merged table: %v", err)
	}
	log.Printf("merged %d rows", len(merged.Rows))
}
