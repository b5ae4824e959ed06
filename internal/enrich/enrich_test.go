// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package enrich

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestHyperUpperTail(t *testing.T) {
	const tol = 1e-12
	// Drawing 5 from 50 with 10 marked: P(X ≥ 0) is certain.
	if got := hyperUpperTail(0, 5, 10, 50); math.Abs(got-1) > tol {
		t.Errorf("P(X>=0): got %v want 1", got)
	}
	// P(X ≥ 5) = C(10,5)/C(50,5) for a fully marked draw.
	want := 252.0 / 2118760.0
	if got := hyperUpperTail(5, 5, 10, 50); math.Abs(got-want) > tol {
		t.Errorf("P(X>=5): got %v want %v", got, want)
	}
	// Complement identity: P(X ≥ 1) = 1 - C(40,5)/C(50,5).
	want = 1 - 658008.0/2118760.0
	if got := hyperUpperTail(1, 5, 10, 50); math.Abs(got-want) > tol {
		t.Errorf("P(X>=1): got %v want %v", got, want)
	}
}

func TestTest(t *testing.T) {
	population := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J"}
	study := []string{"A", "B", "C", "Z"} // Z is outside the population.
	sets := []GeneSet{
		{ID: "S1", Name: "all hits", Genes: []string{"A", "B", "C"}},
		{ID: "S2", Name: "no hits", Genes: []string{"H", "I", "J"}},
		{ID: "S3", Name: "mixed", Genes: []string{"A", "H", "X"}},
		{ID: "S4", Name: "outside population", Genes: []string{"X", "Y"}},
	}
	res, err := Test(study, population, sets)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 tested sets, got %d", len(res))
	}
	if res[0].ID != "S1" {
		t.Errorf("expected S1 most enriched, got %s", res[0].ID)
	}
	for _, r := range res {
		switch r.ID {
		case "S1":
			if r.Overlap != 3 || r.SetSize != 3 {
				t.Errorf("unexpected S1 counts: %+v", r)
			}
			// P = C(3,3)C(7,0)/C(10,3) = 1/120.
			if math.Abs(r.P-1.0/120.0) > 1e-12 {
				t.Errorf("unexpected S1 P-value: %v", r.P)
			}
			if !reflect.DeepEqual(r.Hits, []string{"A", "B", "C"}) {
				t.Errorf("unexpected S1 hits: %v", r.Hits)
			}
		case "S2":
			if r.Overlap != 0 || math.Abs(r.P-1) > 1e-12 {
				t.Errorf("unexpected S2 result: %+v", r)
			}
		case "S3":
			// X is outside the population, so the tested set size is 2.
			if r.SetSize != 2 || r.Overlap != 1 {
				t.Errorf("unexpected S3 counts: %+v", r)
			}
		case "S4":
			t.Errorf("set with no population members was tested: %+v", r)
		}
		if r.AdjP < r.P-1e-12 {
			t.Errorf("adjusted P below raw P for %s", r.ID)
		}
	}
}

func TestTestErrors(t *testing.T) {
	if _, err := Test([]string{"A"}, nil, nil); err == nil {
		t.Error("expected error for empty population")
	}
	if _, err := Test([]string{"Z"}, []string{"A"}, nil); err == nil {
		t.Error("expected error for disjoint study set")
	}
	if _, err := Test([]string{"A"}, []string{"A"}, []GeneSet{{ID: "S", Genes: []string{"X"}}}); err == nil {
		t.Error("expected error when no set overlaps the population")
	}
}

func TestReadGMT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets.gmt")
	const text = "# pathway export\n" +
		"S1\tfirst set\tA\tB\tC\n" +
		"S2\tsecond set\tD\t\tE\n"
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	sets, err := ReadGMT(path)
	if err != nil {
		t.Fatalf("ReadGMT: %v", err)
	}
	want := []GeneSet{
		{ID: "S1", Name: "first set", Genes: []string{"A", "B", "C"}},
		{ID: "S2", Name: "second set", Genes: []string{"D", "E"}},
	}
	if !reflect.DeepEqual(sets, want) {
		t.Errorf("unexpected gene sets:\ngot:  %+v\nwant: %+v", sets, want)
	}
}

func TestReadGMTMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gmt")
	if err := os.WriteFile(path, []byte("S1\tonly two fields\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadGMT(path); err == nil {
		t.Error("expected error for malformed gene set line")
	}
}
