// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package piqmie

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// stubConn is a database/sql/driver test double serving canned rows and
// recording the queries and bound arguments it receives.
type stubConn struct {
	cols    []string
	rows    [][]driver.Value
	prepErr error

	queries []string
	args    [][]driver.Value
}

type stubConnector struct{ conn *stubConn }

func (c stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c stubConnector) Driver() driver.Driver                        { return nil }

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	if c.prepErr != nil {
		return nil, c.prepErr
	}
	c.queries = append(c.queries, query)
	return &stubStmt{conn: c}, nil
}
func (c *stubConn) Close() error              { return nil }
func (c *stubConn) Begin() (driver.Tx, error) { return nil, errors.New("piqmie_test: not implemented") }

type stubStmt struct{ conn *stubConn }

func (s *stubStmt) Close() error  { return nil }
func (s *stubStmt) NumInput() int { return -1 }
func (s *stubStmt) Exec([]driver.Value) (driver.Result, error) {
	return nil, errors.New("piqmie_test: not implemented")
}
func (s *stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.conn.args = append(s.conn.args, append([]driver.Value(nil), args...))
	return &stubRows{cols: s.conn.cols, rows: s.conn.rows}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	i    int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.i >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.i])
	r.i++
	return nil
}

func stubDB(conn *stubConn) *sql.DB { return sql.OpenDB(stubConnector{conn: conn}) }

var quantCols = []string{"grp_id", "genes", "ratio_H1L0", "ratio_H0L1", "ratio_H1M0", "ratio_H0M1", "ratio_L0M0", "ratio_L1M1"}

func TestRatios(t *testing.T) {
	conn := &stubConn{
		cols: quantCols,
		rows: [][]driver.Value{
			{int64(42), "BRCA1,BRCA2", 4.2, 0.25, 3.9, 0.22, 1.01, 0.98},
			{int64(43), "-", 1.5, nil, 1.4, 0.6, 1.0, 1.1},
		},
	}
	db := stubDB(conn)
	defer db.Close()

	rows, err := Ratios(db, "VH10")
	if err != nil {
		t.Fatalf("Ratios: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].GrpID != "42" || rows[0].Genes != "BRCA1,BRCA2" {
		t.Errorf("unexpected first row identity: %+v", rows[0])
	}
	if rows[0].Ratios[0] != 4.2 || rows[0].Ratios[5] != 0.98 {
		t.Errorf("unexpected first row ratios: %v", rows[0].Ratios)
	}
	if !math.IsNaN(rows[1].Ratios[1]) {
		t.Errorf("expected NaN for NULL ratio, got %v", rows[1].Ratios[1])
	}

	if len(conn.queries) != 1 {
		t.Fatalf("expected 1 query, got %d", len(conn.queries))
	}
	q := conn.queries[0]
	for _, want := range []string{
		"VH10_L0_M0_H1_norm_ratio_HL AS ratio_H1L0",
		"VH10_L1_M1_H0_norm_ratio_LH AS ratio_H0L1",
		"VH10_L1_M1_H0_norm_ratio_LM AS ratio_L1M1",
		"IS NOT NULL",
		"GROUP BY A.grp_id",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if strings.Contains(q, "?") {
		t.Errorf("unexpected bound parameter in unfiltered query:\n%s", q)
	}
}

func TestConsistentRatiosBindsDirectionCutoffs(t *testing.T) {
	conn := &stubConn{
		cols: quantCols,
		rows: [][]driver.Value{{int64(1), "-", 2.0, 0.5, 2.0, 0.5, 1.0, 1.0}},
	}
	db := stubDB(conn)
	defer db.Close()

	_, err := ConsistentRatios(db, "U2OS")
	if err != nil {
		t.Fatalf("ConsistentRatios: %v", err)
	}
	if len(conn.args) != 1 || len(conn.args[0]) != 8 {
		t.Fatalf("expected 8 bound cutoffs, got %v", conn.args)
	}
	for _, v := range conn.args[0] {
		if v != float64(1) && v != int64(1) {
			t.Errorf("unexpected bound cutoff value: %v", v)
		}
	}
	q := conn.queries[0]
	if !strings.Contains(q, "U2OS_L0_M0_H1_norm_ratio_LH > ?") {
		t.Errorf("query missing reciprocal direction predicate:\n%s", q)
	}
}

func TestSigBFilters(t *testing.T) {
	sigRow := []driver.Value{
		int64(7), "TP53",
		2.0, 0.5, 2.1, 0.48, 1.0, 1.05,
		0.001, 0.002, 0.003, 0.004, 0.9, nil,
	}

	conn := &stubConn{cols: make([]string, 14), rows: [][]driver.Value{sigRow}}
	db := stubDB(conn)
	rows, err := SigB(db, "IB10", 1.5, 0.01)
	if err != nil {
		t.Fatalf("SigB: %v", err)
	}
	db.Close()
	if len(conn.args[0]) != 14 {
		t.Errorf("expected 8 fold-change and 6 sigB bindings, got %d", len(conn.args[0]))
	}
	if !strings.Contains(conn.queries[0], "sig_ratio") {
		t.Errorf("query missing significance columns:\n%s", conn.queries[0])
	}
	if !math.IsNaN(rows[0].SigB[5]) {
		t.Errorf("expected NaN for NULL significance, got %v", rows[0].SigB[5])
	}

	// The default sigB cutoff of 1 switches to the ratio dominance filter.
	conn = &stubConn{cols: make([]string, 14), rows: [][]driver.Value{sigRow}}
	db = stubDB(conn)
	defer db.Close()
	_, err = SigB(db, "IB10", 1.5, 1)
	if err != nil {
		t.Fatalf("SigB: %v", err)
	}
	if len(conn.args[0]) != 8 {
		t.Errorf("expected 8 fold-change bindings, got %d", len(conn.args[0]))
	}
	if !strings.Contains(conn.queries[0], "MIN(MAX(") {
		t.Errorf("query missing ratio dominance filter:\n%s", conn.queries[0])
	}
}

func TestUnknownDataset(t *testing.T) {
	db := stubDB(&stubConn{})
	defer db.Close()
	if _, err := Ratios(db, "HELA"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("Ratios: expected ErrUnknownDataset, got %v", err)
	}
	if _, err := ConsistentRatios(db, ""); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("ConsistentRatios: expected ErrUnknownDataset, got %v", err)
	}
	if _, err := SigB(db, "vh10", 1, 1); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("SigB: expected ErrUnknownDataset, got %v", err)
	}
	if _, err := RatioTriples(db, "HELA", "norm"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("RatioTriples: expected ErrUnknownDataset, got %v", err)
	}
	if _, err := PopulationSet(db, "HELA"); !errors.Is(err, ErrUnknownDataset) {
		t.Errorf("PopulationSet: expected ErrUnknownDataset, got %v", err)
	}
}

func TestRatioTriplesKind(t *testing.T) {
	conn := &stubConn{
		cols: make([]string, 8),
		rows: [][]driver.Value{{int64(3), "-", 1.0, 2.0, nil, 0.5, 1.5, 0.9}},
	}
	db := stubDB(conn)
	defer db.Close()

	if _, err := RatioTriples(db, "VH10", "median"); err == nil {
		t.Error("expected error for unknown ratio kind")
	}
	rows, err := RatioTriples(db, "VH10", "raw")
	if err != nil {
		t.Fatalf("RatioTriples: %v", err)
	}
	if !strings.Contains(conn.queries[0], "VH10_L0_M0_H1_raw_ratio_HL") {
		t.Errorf("query missing raw ratio column:\n%s", conn.queries[0])
	}
	if !math.IsNaN(rows[0].Run1[2]) || rows[0].Run2[0] != 0.5 {
		t.Errorf("unexpected triple values: %+v", rows[0])
	}
}

func TestEmptyResult(t *testing.T) {
	db := stubDB(&stubConn{cols: quantCols})
	defer db.Close()
	if _, err := Ratios(db, "VH10"); !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestQueryError(t *testing.T) {
	opErr := errors.New("no such column: VH10_L0_M0_H1_norm_ratio_HL")
	db := stubDB(&stubConn{prepErr: opErr})
	defer db.Close()
	if _, err := Ratios(db, "VH10"); !errors.Is(err, opErr) {
		t.Errorf("expected wrapped driver error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.sqlite")); err == nil {
		t.Error("expected error for missing database file")
	}

	path := filepath.Join(t.TempDir(), "present.sqlite")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	defer func(orig func(string, string) (*sql.DB, error)) { sqlOpen = orig }(sqlOpen)
	var gotDriver, gotPath string
	sqlOpen = func(driverName, dataSource string) (*sql.DB, error) {
		gotDriver = driverName
		gotPath = dataSource
		return stubDB(&stubConn{}), nil
	}
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Close()
	if gotDriver != "sqlite" || gotPath != path {
		t.Errorf("unexpected open parameters: driver %q path %q", gotDriver, gotPath)
	}
}
