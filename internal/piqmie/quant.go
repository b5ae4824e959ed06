// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package piqmie

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kortschak/reciprot/internal/silac"
)

// ratioCols returns the six wide-table columns holding the given ratio
// kind, ordered to match the silac ratio column indices: the four
// treatment directions followed by the two controls. In run 2 the labels
// are swapped, so the on/off directions there are the L/H and M/H ratios.
func ratioCols(dts, kind string) [silac.NumRatios]string {
	return [silac.NumRatios]string{
		silac.H1L0: col(dts, run1, kind, "HL"),
		silac.H0L1: col(dts, run2, kind, "LH"),
		silac.H1M0: col(dts, run1, kind, "HM"),
		silac.H0M1: col(dts, run2, kind, "MH"),
		silac.L0M0: col(dts, run1, kind, "LM"),
		silac.L1M1: col(dts, run2, kind, "LM"),
	}
}

// selectRatios is the shared shape of the quantitation queries: one row
// per protein group with its gene annotations aggregated.
func selectRatios(cols [silac.NumRatios]string, where string) string {
	var b strings.Builder
	b.WriteString("SELECT\n\tA.grp_id,\n\tIFNULL(GROUP_CONCAT(DISTINCT gene), '-') AS genes")
	for i, c := range cols {
		fmt.Fprintf(&b, ",\n\t%s AS ratio_%s", c, silac.RatioNames[i])
	}
	b.WriteString("\nFROM\n\tVVV_PGROUP_QUANT A, PROT2GRP B, V_PROTEIN C\nWHERE\n\tA.grp_id = B.grp_id\n\tAND B.prot_acc = C.acc")
	if where != "" {
		b.WriteString("\n\tAND ")
		b.WriteString(where)
	}
	b.WriteString("\nGROUP BY A.grp_id")
	return b.String()
}

// notNull returns a conjunction requiring all six ratio columns to be
// present. A protein group is only eligible for analysis when every ratio
// needed by both label directions was quantified.
func notNull(cols [silac.NumRatios]string) string {
	terms := make([]string, len(cols))
	for i, c := range cols {
		terms[i] = c + " IS NOT NULL"
	}
	return strings.Join(terms, "\n\tAND ")
}

// directionConsistent returns the predicate requiring the four treatment
// ratios to agree in direction across both runs: either all four exceed
// the cutoff in the forward direction or all four exceed it in the
// reciprocal direction. Value comparisons are bound parameters; the
// cutoff must be bound eight times.
func directionConsistent(dts, kind string) string {
	return fmt.Sprintf(`((%s > ?
	AND %s > ?
	AND %s > ?
	AND %s > ?)
	OR (%s > ?
	AND %s > ?
	AND %s > ?
	AND %s > ?))`,
		col(dts, run1, kind, "HL"), col(dts, run1, kind, "HM"),
		col(dts, run2, kind, "LH"), col(dts, run2, kind, "MH"),
		col(dts, run1, kind, "LH"), col(dts, run1, kind, "MH"),
		col(dts, run2, kind, "HL"), col(dts, run2, kind, "HM"))
}

// Ratios returns the normalized SILAC ratios of every fully quantified
// protein group in the dataset. No consistency predicate is applied; this
// is the moderated-t analysis input.
func Ratios(db *sql.DB, dts string) ([]silac.QuantRow, error) {
	if !ValidDataset(dts) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dts)
	}
	cols := ratioCols(dts, "norm")
	return queryQuantRows(db, selectRatios(cols, notNull(cols)))
}

// ConsistentRatios returns the normalized SILAC ratios of the protein
// groups whose treatment ratios agree in direction across both runs. This
// pre-filter reduces the row volume fed to the rank-based analyses; the
// authoritative magnitude filter is still applied post hoc.
func ConsistentRatios(db *sql.DB, dts string) ([]silac.QuantRow, error) {
	if !ValidDataset(dts) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dts)
	}
	cols := ratioCols(dts, "norm")
	where := notNull(cols) + "\n\tAND " + directionConsistent(dts, "norm")
	q := selectRatios(cols, where)
	return queryQuantRows(db, q, 1, 1, 1, 1, 1, 1, 1, 1)
}

func queryQuantRows(db *sql.DB, query string, args ...interface{}) ([]silac.QuantRow, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("piqmie: quantitation query failed: %w", err)
	}
	defer rows.Close()

	var set []silac.QuantRow
	for rows.Next() {
		var (
			grpID int64
			genes string
			vals  [silac.NumRatios]sql.NullFloat64
		)
		err := rows.Scan(&grpID, &genes, &vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5])
		if err != nil {
			return nil, fmt.Errorf("piqmie: quantitation scan failed: %w", err)
		}
		q := silac.QuantRow{GrpID: strconv.FormatInt(grpID, 10), Genes: genes}
		for i, v := range vals {
			q.Ratios[i] = nullFloat(v)
		}
		set = append(set, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("piqmie: quantitation query failed: %w", err)
	}
	if len(set) == 0 {
		return nil, ErrNoRows
	}
	return set, nil
}

func nullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
