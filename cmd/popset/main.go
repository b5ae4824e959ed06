// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// popset extracts the population protein set of a dataset from a PIQMIe
// SQLite database for use in set-enrichment analysis.
//
// The population is the set of distinct lead protein accessions of the
// protein groups quantified in all six ratios of the selected dataset.
// Accessions are written one per line to {dataset}_pset.txt next to
// the database, or to the file named with -o.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kortschak/reciprot/internal/piqmie"
)

func main() {
	var (
		dts  = flag.String("d", "", fmt.Sprintf("specify the cell line dataset %v (required)", piqmie.Datasets))
		out  = flag.String("o", "", "specify the output file (default {dbdir}/{dataset}_pset.txt)")
		help = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s extracts the population protein set of a PIQMIe dataset: the
distinct lead protein accessions of the protein groups quantified in
all six SILAC ratios, written one per line for use as the enrichment
analysis background.

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
	dbfile := flag.Arg(0)
	if *out == "" {
		*out = filepath.Join(filepath.Dir(dbfile), *dts+"_pset.txt")
	}

	db, err := piqmie.Open(dbfile)
	if err != nil {
		log.Fatalf("failed to open quantitation store: %v", err)
	}
	defer db.Close()

	accs, err := piqmie.PopulationSet(db, *dts)
	if errors.Is(err, piqmie.ErrNoRows) {
		log.Println("no fully quantified protein groups: nothing to write")
		return
	}
	if err != nil {
		log.Fatalf("failed to read population set: %v", err)
	}

	err = os.WriteFile(*out, []byte(strings.Join(accs, "\n")+"\n"), 0o644)
	if err != nil {
		log.Fatalf("failed to write population set: %v", err)
	}
	log.Printf("wrote %d accessions", len(accs))
}
