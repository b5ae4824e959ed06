// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package piqmie

import (
	"database/sql"
	"fmt"
	"strconv"
)

// RatioKinds enumerates the ratio transformations stored per run.
var RatioKinds = []string{"raw", "norm"}

// Directions of the per-run ratio triple, in storage order.
var TripleDirs = [3]string{"HL", "HM", "ML"}

// TripleRow is a protein group's per-run triple of H/L, H/M and M/L
// ratios for one ratio kind. Missing ratios are NaN.
type TripleRow struct {
	GrpID string
	Genes string
	Run1  [3]float64
	Run2  [3]float64
}

// RatioTriples returns the raw or normalized ratio triples of both runs
// for every protein group in the dataset. Rows missing every ratio are
// still returned; standardization needs the full per-column population.
func RatioTriples(db *sql.DB, dts, kind string) ([]TripleRow, error) {
	if !ValidDataset(dts) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dts)
	}
	valid := false
	for _, k := range RatioKinds {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("piqmie: unknown ratio kind %q", kind)
	}

	q := fmt.Sprintf(`SELECT
	A.grp_id,
	IFNULL(GROUP_CONCAT(DISTINCT gene), '-') AS genes,
	%s, %s, %s,
	%s, %s, %s
FROM
	VVV_PGROUP_QUANT A, PROT2GRP B, V_PROTEIN C
WHERE
	A.grp_id = B.grp_id
	AND B.prot_acc = C.acc
GROUP BY A.grp_id`,
		col(dts, run1, kind, "HL"), col(dts, run1, kind, "HM"), col(dts, run1, kind, "ML"),
		col(dts, run2, kind, "HL"), col(dts, run2, kind, "HM"), col(dts, run2, kind, "ML"))

	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("piqmie: ratio triple query failed: %w", err)
	}
	defer rows.Close()

	var set []TripleRow
	for rows.Next() {
		var (
			grpID int64
			genes string
			vals  [6]sql.NullFloat64
		)
		err := rows.Scan(&grpID, &genes, &vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5])
		if err != nil {
			return nil, fmt.Errorf("piqmie: ratio triple scan failed: %w", err)
		}
		r := TripleRow{GrpID: strconv.FormatInt(grpID, 10), Genes: genes}
		for i := 0; i < 3; i++ {
			r.Run1[i] = nullFloat(vals[i])
			r.Run2[i] = nullFloat(vals[3+i])
		}
		set = append(set, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("piqmie: ratio triple query failed: %w", err)
	}
	if len(set) == 0 {
		return nil, ErrNoRows
	}
	return set, nil
}

// PopulationSet returns the distinct lead protein accessions of the
// groups quantified in all six ratios of the dataset, for use as the
// population in set-enrichment analyses.
func PopulationSet(db *sql.DB, dts string) ([]string, error) {
	if !ValidDataset(dts) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dts)
	}
	q := fmt.Sprintf(`SELECT
	DISTINCT(prot_acc) AS prot_acc
FROM
	VVV_PGROUP_QUANT INNER JOIN PROT2GRP USING(grp_id) INNER JOIN PEP2PROT USING(prot_acc)
WHERE
	%s IS NOT NULL AND
	%s IS NOT NULL AND
	%s IS NOT NULL AND
	%s IS NOT NULL AND
	%s IS NOT NULL AND
	%s IS NOT NULL AND
	lead_prot != 0`,
		col(dts, run1, "norm", "HL"), col(dts, run1, "norm", "HM"), col(dts, run1, "norm", "ML"),
		col(dts, run2, "norm", "HL"), col(dts, run2, "norm", "HM"), col(dts, run2, "norm", "ML"))

	rows, err := db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("piqmie: population set query failed: %w", err)
	}
	defer rows.Close()

	var accs []string
	for rows.Next() {
		var acc string
		if err := rows.Scan(&acc); err != nil {
			return nil, fmt.Errorf("piqmie: population set scan failed: %w", err)
		}
		accs = append(accs, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("piqmie: population set query failed: %w", err)
	}
	if len(accs) == 0 {
		return nil, ErrNoRows
	}
	return accs, nil
}
