// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// rankprod performs differential protein expression analysis of triplex
// inverse-labeling SILAC quantitation using a one-class rank product
// permutation test.
//
// The six reciprocal ratios of the selected dataset are read from a
// PIQMIe SQLite database, restricted in SQL to protein groups whose
// four treatment ratios agree in direction across both runs, log2
// transformed and filtered for reciprocal consistency. The geometric
// mean rank of each protein group across the four treatment ratio
// columns is compared to a permutation null built by shuffling each
// column independently; up- and down-regulation are tested separately
// and the smaller P-value direction is reported. The proportion of
// false positives (pfp) plays the role of the adjusted P-value.
//
// Protein groups passing the cutoffs are written sorted by pfp to a
// tab-delimited table named {dataset}_rankprod.tab next to the
// database, or to the file named with -o, and one summary record of
// the invocation is appended to {dataset}_rankprod_summary.tab in the
// same directory. Nothing is written when no group passes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

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
		pval   = flag.Float64("p", 0.05, "pfp cutoff in [0,1]")
		perms  = flag.Int("n", 1000, "number of rank permutations per ratio column")
		seed   = flag.Int64("seed", 1, "permutation random number seed")
		out    = flag.String("o", "", "specify the output file (default {dbdir}/{dataset}_rankprod.tab)")
		noplot = flag.Bool("noplot", false, "suppress the volcano plot")
		help   = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s performs differential protein expression analysis of triplex
inverse-labeling SILAC quantitation held in a PIQMIe SQLite database,
using a one-class rank product permutation test of the four treatment
ratio columns. Up- and down-regulation are tested separately and the
direction with the smaller P-value is reported; the permutation
proportion of false positives (pfp) is used as the adjusted P-value.
Protein groups whose control ratios are not strictly dominated in
magnitude by all four treatment ratios are discarded before testing.

The result table is tab-delimited and sorted by pfp, and a summary
record of each invocation is appended to an accumulating summary
table; no result file is written when no protein group passes.

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
		fmt.Fprintln(os.Stderr, "pfp cutoff must be between 0 and 1")
		os.Exit(2)
	}
	if *perms < 1 {
		fmt.Fprintln(os.Stderr, "permutation count must be positive")
		os.Exit(2)
	}
	dbfile := flag.Arg(0)
	dir := filepath.Dir(dbfile)
	if *out == "" {
		*out = filepath.Join(dir, *dts+"_rankprod.tab")
	}

	log.Println("[querying quantitation store]")
	db, err := piqmie.Open(dbfile)
	if err != nil {
		log.Fatalf("failed to open quantitation store: %v", err)
	}
	defer db.Close()

	rows, err := piqmie.ConsistentRatios(db, *dts)
	if errors.Is(err, piqmie.ErrNoRows) {
		log.Println("no direction-consistent protein groups: nothing to write")
		return
	}
	if err != nil {
		log.Fatalf("failed to read quantitation: %v", err)
	}
	log.Printf("read %d direction-consistent protein groups", len(rows))

	design := silac.TriplexDesign()
	kept := silac.Filter(silac.Log2All(rows), design)
	log.Printf("consistency filter kept %d of %d protein groups", len(kept), len(rows))
	if len(kept) == 0 {
		log.Println("no consistent protein groups: nothing to write")
		return
	}

	log.Printf("[computing rank products over %d permutations]", *perms)
	method := de.RankProd{Perms: *perms, Seed: *seed}
	res, err := method.Test(kept, design)
	if err != nil {
		log.Fatalf("failed to compute rank products: %v", err)
	}

	if !*noplot {
		plotPath := *out + ".png"
		err = deplot.Volcano(plotPath, *dts+" "+method.Name(), res, *fc, *pval)
		if err != nil {
			log.Printf("failed to write volcano plot: %v", err)
		}
	}

	hits := de.Apply(res, *fc, *pval)

	summary := filepath.Join(dir, *dts+"_rankprod_summary.tab")
	err = tabio.AppendRecord(summary,
		[]string{"dataset", "n_tested", "n_diff", "fc_cutoff", "pfp_cutoff", "perms", "seed"},
		[]string{
			*dts,
			strconv.Itoa(len(kept)),
			strconv.Itoa(len(hits)),
			tabio.Format(*fc),
			tabio.Format(*pval),
			strconv.Itoa(*perms),
			strconv.FormatInt(*seed, 10),
		})
	if err != nil {
		log.Printf("failed to append summary record: %v", err)
	}

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
		Header: []string{"grp_id", "genes", "fold_change", "log2FC", "rank_product", "p_value", "pfp"},
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
