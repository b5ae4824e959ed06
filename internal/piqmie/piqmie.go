// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package piqmie reads SILAC protein group quantitation from the SQLite
// databases produced by the PIQMIe service. One database holds one
// biological dataset group; the dataset (cell line) selects the wide-table
// column prefix to read.
//
// Dataset identifiers are validated against a fixed enumeration before any
// SQL referring to them is constructed. SQLite cannot bind column names as
// query parameters, so the queries are templates keyed by the validated
// identifier; all value comparisons are bound parameters.
package piqmie

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
)

// Datasets enumerates the cell line datasets known to the quantitation
// store.
var Datasets = []string{"IB10", "U2OS", "VH10"}

var (
	// ErrUnknownDataset is returned for a dataset identifier outside the
	// Datasets enumeration.
	ErrUnknownDataset = errors.New("piqmie: unknown dataset")

	// ErrNoRows is returned when a syntactically valid query matches no
	// protein groups. It is a warning condition, not a failure.
	ErrNoRows = errors.New("piqmie: no protein groups")
)

// ValidDataset reports whether dts is one of the known datasets.
func ValidDataset(dts string) bool {
	for _, d := range Datasets {
		if d == dts {
			return true
		}
	}
	return false
}

// sqlOpen is a hook for tests to substitute the database driver.
var sqlOpen = sql.Open

// Open opens the PIQMIe SQLite database at path. The returned handle must
// be closed by the caller; it is read-only for all queries in this
// package.
func Open(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("piqmie: cannot open store: %w", err)
	}
	return sqlOpen("sqlite", path)
}

// Labeling prefixes of the two LC-MS runs of the inverse design. Run 1
// labels the treated sample heavy, run 2 swaps the labels.
const (
	run1 = "L0_M0_H1"
	run2 = "L1_M1_H0"
)

// col returns the wide-table column name for the given dataset, run
// labeling, ratio kind (norm, raw or sig) and ratio direction.
func col(dts, run, kind, dir string) string {
	return dts + "_" + run + "_" + kind + "_ratio_" + dir
}
