// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package piqmie

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/kortschak/reciprot/internal/silac"
)

// SigBRow is a protein group's normalized ratios together with the
// peak-intensity significance B estimates computed for them by the
// external tool. A missing significance estimate is NaN.
type SigBRow struct {
	silac.QuantRow
	SigB [silac.NumRatios]float64
}

// SigB returns the protein groups whose four treatment ratios agree in
// direction across both runs at the given fold-change cutoff, with their
// significance B estimates. When sigBCutoff is not 1, rows are further
// required to have all four treatment estimates below the cutoff and both
// control estimates at or above it; otherwise the treatment ratios must
// exceed every control ratio, whichever direction is measured, matching
// the fold-change-only analysis.
func SigB(db *sql.DB, dts string, fcCutoff, sigBCutoff float64) ([]SigBRow, error) {
	if !ValidDataset(dts) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dts)
	}
	norm := ratioCols(dts, "norm")
	sig := ratioCols(dts, "sig")

	where := directionConsistent(dts, "norm")
	args := []interface{}{
		fcCutoff, fcCutoff, fcCutoff, fcCutoff,
		fcCutoff, fcCutoff, fcCutoff, fcCutoff,
	}
	if sigBCutoff != 1 {
		where += fmt.Sprintf(`
	AND %s < ?
	AND %s < ?
	AND %s < ?
	AND %s < ?
	AND %s >= ?
	AND %s >= ?`,
			sig[silac.H1L0], sig[silac.H1M0], sig[silac.H0L1], sig[silac.H0M1],
			sig[silac.L0M0], sig[silac.L1M1])
		args = append(args, sigBCutoff, sigBCutoff, sigBCutoff, sigBCutoff, sigBCutoff, sigBCutoff)
	} else {
		where += fmt.Sprintf(`
	AND MIN(MAX(%s, %s),
	    MAX(%s, %s),
	    MAX(%s, %s),
	    MAX(%s, %s)) >
	    MAX(%s, %s, %s, %s)`,
			col(dts, run1, "norm", "HL"), col(dts, run1, "norm", "LH"),
			col(dts, run1, "norm", "HM"), col(dts, run1, "norm", "MH"),
			col(dts, run2, "norm", "LH"), col(dts, run2, "norm", "HL"),
			col(dts, run2, "norm", "MH"), col(dts, run2, "norm", "HM"),
			col(dts, run1, "norm", "LM"), col(dts, run1, "norm", "ML"),
			col(dts, run2, "norm", "LM"), col(dts, run2, "norm", "ML"))
	}

	q := fmt.Sprintf(`SELECT
	A.grp_id,
	IFNULL(GROUP_CONCAT(DISTINCT gene), '-') AS genes,
	%s AS ratio_H1L0,
	%s AS ratio_H0L1,
	%s AS ratio_H1M0,
	%s AS ratio_H0M1,
	%s AS ratio_L0M0,
	%s AS ratio_L1M1,
	%s AS sigB_H1L0,
	%s AS sigB_H0L1,
	%s AS sigB_H1M0,
	%s AS sigB_H0M1,
	%s AS sigB_L0M0,
	%s AS sigB_L1M1
FROM
	VVV_PGROUP_QUANT A, PROT2GRP B, V_PROTEIN C
WHERE
	A.grp_id = B.grp_id
	AND B.prot_acc = C.acc
	AND %s
GROUP BY A.grp_id`,
		norm[0], norm[1], norm[2], norm[3], norm[4], norm[5],
		sig[0], sig[1], sig[2], sig[3], sig[4], sig[5],
		where)

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("piqmie: significance B query failed: %w", err)
	}
	defer rows.Close()

	var set []SigBRow
	for rows.Next() {
		var (
			grpID int64
			genes string
			vals  [2 * silac.NumRatios]sql.NullFloat64
		)
		err := rows.Scan(&grpID, &genes,
			&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5],
			&vals[6], &vals[7], &vals[8], &vals[9], &vals[10], &vals[11])
		if err != nil {
			return nil, fmt.Errorf("piqmie: significance B scan failed: %w", err)
		}
		r := SigBRow{QuantRow: silac.QuantRow{GrpID: strconv.FormatInt(grpID, 10), Genes: genes}}
		for i := 0; i < silac.NumRatios; i++ {
			r.Ratios[i] = nullFloat(vals[i])
			r.SigB[i] = nullFloat(vals[silac.NumRatios+i])
		}
		set = append(set, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("piqmie: significance B query failed: %w", err)
	}
	if len(set) == 0 {
		return nil, ErrNoRows
	}
	return set, nil
}
