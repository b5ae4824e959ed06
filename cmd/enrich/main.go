// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// enrich performs hypergeometric set-enrichment analysis of a
// differential expression result table against a pathway gene-set
// collection.
//
// The three positional arguments name a differential expression result
// table whose genes column holds the study identifiers, a population
// file with one identifier per line as produced by popset, and a GMT
// format gene-set collection. Each gene set is tested for
// over-representation of the study identifiers within the population
// by the hypergeometric upper tail; P-values are Benjamini-Hochberg
// adjusted across the tested sets.
//
// Sets passing the adjusted P-value cutoff are written sorted by
// adjusted P-value to the -o file, or to {study}_enrich.tab derived
// from the study table name. Nothing is written when no set passes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kortschak/reciprot/internal/enrich"
	"github.com/kortschak/reciprot/internal/tabio"
)

func main() {
	var (
		pval = flag.Float64("p", 0.05, "adjusted P-value cutoff in [0,1]")
		out  = flag.String("o", "", "specify the output file (default {study}_enrich.tab)")
		help = flag.Bool("help", false, "print help text")
	)
	flag.Parse()

	if *help {
		flag.Usage()
		fmt.Fprintf(os.Stderr, `
%s tests pathway gene sets for over-representation of the genes in a
differential expression result table, against a population background,
by the hypergeometric upper tail. P-values are adjusted for multiple
testing by the Benjamini-Hochberg procedure.

usage: %s [flags] study.tab population.txt sets.gmt

Copyright ©2021 Dan Kortschak. All rights reserved.

`, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		os.Exit(0)
	}

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}
	if *pval < 0 || *pval > 1 {
		fmt.Fprintln(os.Stderr, "P-value cutoff must be between 0 and 1")
		os.Exit(2)
	}
	studyPath := flag.Arg(0)
	if *out == "" {
		*out = strings.TrimSuffix(studyPath, filepath.Ext(studyPath)) + "_enrich.tab"
	}

	study, err := studyGenes(studyPath)
	if err != nil {
		log.Fatalf("failed to read study table: %v", err)
	}
	population, err := readLines(flag.Arg(1))
	if err != nil {
		log.Fatalf("failed to read population set: %v", err)
	}
	sets, err := enrich.ReadGMT(flag.Arg(2))
	if err != nil {
		log.Fatalf("failed to read gene sets: %v", err)
	}
	log.Printf("testing %d gene sets against %d study and %d population identifiers",
		len(sets), len(study), len(population))

	res, err := enrich.Test(study, population, sets)
	if err != nil {
		log.Fatalf("failed to test enrichment: %v", err)
	}

	t := &tabio.Table{
		Header: []string{"set_id", "name", "set_size", "overlap", "expected", "p_value", "adj_p_value", "hits"},
	}
	for _, r := range res {
		if r.AdjP >= *pval {
			continue
		}
		t.Rows = append(t.Rows, []string{
			r.ID,
			r.Name,
			strconv.Itoa(r.SetSize),
			strconv.Itoa(r.Overlap),
			tabio.Format(r.Expected),
			tabio.Format(r.P),
			tabio.Format(r.AdjP),
			strings.Join(r.Hits, ","),
		})
	}
	if len(t.Rows) == 0 {
		log.Println("nothing to write onto outfile")
		return
	}
	err = tabio.Write(*out, t)
	if err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	log.Printf("Nenriched = %d", len(t.Rows))
}

// studyGenes returns the distinct gene identifiers in the genes column
// of the result table at path. Concatenated gene annotations are split
// and the '-' placeholder for unannotated groups is dropped.
func studyGenes(path string) ([]string, error) {
	t, err := tabio.Read(path)
	if err != nil {
		return nil, err
	}
	gc, err := t.Column("genes")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var genes []string
	for _, r := range t.Rows {
		for _, g := range strings.Split(r[gc], ",") {
			g = strings.TrimSpace(g)
			if g == "" || g == "-" || seen[g] {
				continue
			}
			seen[g] = true
			genes = append(genes, g)
		}
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("no gene annotations in %s", path)
	}
	return genes, nil
}

// readLines returns the non-empty lines of the file at path.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
