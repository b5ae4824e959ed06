// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// modtreat performs differential protein expression analysis of triplex
// inverse-labeling SILAC quantitation using a moderated-t test against a
// minimum fold-change threshold.
//
// The input is a PIQMIe SQLite database holding normalized SILAC protein
// group ratios for one or more cell line datasets. The six reciprocal
// ratios of the selected dataset are log2-transformed, protein groups
// whose control ratios are not dominated by all four treatment ratios
// are discarded, and a two-condition linear model with empirical Bayes
// variance moderation is fitted to the remainder. The null hypothesis
// tested is |log2 fold change| ≤ log2(fc), so the fold-change cutoff is
// enforced inside the test; P-values are Benjamini-Hochberg adjusted.
//
// Protein groups passing the cutoffs are written sorted by adjusted
// P-value to a tab-delimited table named {dataset}_modt.tab next to the
// database, or to the file named with -o. A volcano plot of the tested
// groups is written alongside the table. Nothing is written when no
// group passes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/kortschak/reciprot/internal/de"
	"github.com/kortschak/reciprot/internal/deplot"
	"github.com/kortschak/reciprot/internal/piqmie"
	"github.com/kortschak/reciprot/internal/silac"
	"github.com/kortschak/reciprot/internal/tabio"
)

func main() {
	var (
		dts    = flag.String("d", "", fmt.Sprintf("specify the cell line dataset %v (required)", piqmie.Datasets))
		fc     = flag.Float64("f", 1, "minimum fold change required of differentially expressed protein groups (≥1)")
		pval   = flag.Float64("p", 0.05, "adjusted P-value cutoff in [0,1]")
		out    = flag.String("o", "", "specify the output file (default {dbdir}/{dataset}_modt.tab)")
		noplot = flag.Bool("noplot", false, "suppress the volcano plot")
		help   = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s performs differential protein expression analysis of triplex
inverse-labeling SILAC quantitation held in a PIQMIe SQLite database,
using a moderated-t test of the null hypothesis that the absolute
log2 fold change does not exceed log2 of the fold-change cutoff.
P-values are adjusted for multiple testing by the Benjamini-Hochberg
procedure. Protein groups whose control ratios are not strictly
dominated in magnitude by all four treatment ratios are discarded
before testing.

The result table is tab-delimited and sorted by adjusted P-value; no
file is written when no protein group passes the cutoffs.

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
	if *fc < 1 {
		fmt.Fprintln(os.Stderr, "fold-change cutoff cannot be smaller than 1")
		os.Exit(2)
	}
	if *pval < 0 || *pval > 1 {
		fmt.Fprintln(os.Stderr, "P-value cutoff must be between 0 and 1")
		os.Exit(2)
	}
	dbfile := flag.Arg(0)
	if *out == "" {
		*out = filepath.Join(filepath.Dir(dbfile), *dts+"_modt.tab")
	}

	log.Println("[querying quantitation store]")
	db, err := piqmie.Open(dbfile)
	if err != nil {
		log.Fatalf("failed to open quantitation store: %v", err)
	}
	defer db.Close()

	rows, err := piqmie.Ratios(db, *dts)
	if errors.Is(err, piqmie.ErrNoRows) {
		log.Println("no quantified protein groups: nothing to write")
		return
	}
	if err != nil {
		log.Fatalf("failed to read quantitation: %v", err)
	}
	log.Printf("read %d quantified protein groups", len(rows))

	design := silac.TriplexDesign()
	kept := silac.Filter(silac.Log2All(rows), design)
	log.Printf("consistency filter kept %d of %d protein groups", len(kept), len(rows))
	if len(kept) == 0 {
		log.Println("no consistent protein groups: nothing to write")
		return
	}

	log.Println("[fitting moderated model]")
	method := de.ModTreat{FCCutoff: *fc}
	res, err := method.Test(kept, design)
	if err != nil {
		log.Fatalf("failed to fit model: %v", err)
	}

	if !*noplot {
		plotPath := *out + ".png"
		err = deplot.Volcano(plotPath, *dts+" "+method.Name(), res, *fc, *pval)
		if err != nil {
			log.Printf("failed to write volcano plot: %v", err)
		}
	}

	hits := de.Apply(res, *fc, *pval)
	if len(hits) == 0 {
		log.Println("nothing to write onto outfile")
		return
	}
	err = tabio.Write(*out, resultTable(hits))
	if err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	log.Printf("Ndiff = %d", len(hits))
}

func resultTable(res []de.Result) *tabio.Table {
	t := &tabio.Table{
		Header: []string{"grp_id", "genes", "fold_change", "log2FC", "t", "p_value", "adj_p_value"},
	}
	for _, r := range res {
		t.Rows = append(t.Rows, []string{
			r.GrpID,
			r.Genes,
			tabio.Format(r.FoldChange),
			tabio.Format(r.Log2FC),
			tabio.Format(r.Stat),
			tabio.Format(r.P),
			tabio.Format(r.AdjP),
		})
	}
	return t
}
