// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tabio reads and writes the tab-delimited tables exchanged
// between the analysis commands and the external tools. Tables carry a
// header row; missing values are rendered as the literal marker NA,
// distinct from the empty string.
package tabio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// NA is the missing value marker.
const NA = "NA"

// Table is an in-memory delimited table.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read returns the table held in the file at path.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := csv.NewReader(f)
	c.Comma = '\t'
	c.Comment = '#'

	header, err := c.Read()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	var rows [][]string
	for {
		rec, err := c.Read()
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			break
		}
		rows = append(rows, append([]string(nil), rec...))
	}
	return &Table{Header: header, Rows: rows}, nil
}

// Write writes t to the file at path, overwriting any previous content.
func Write(path string, t *Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()

	_, err = f.WriteString(strings.Join(t.Header, "\t"))
	if err != nil {
		return err
	}
	_, err = f.Write([]byte{'\n'})
	if err != nil {
		return err
	}
	for _, r := range t.Rows {
		if len(r) != len(t.Header) {
			return fmt.Errorf("tabio: ragged row: %d fields, header has %d", len(r), len(t.Header))
		}
		_, err = f.WriteString(strings.Join(r, "\t"))
		if err != nil {
			return err
		}
		_, err = f.Write([]byte{'\n'})
		if err != nil {
			return err
		}
	}
	return nil
}

// AppendRecord appends one record to the delimited file at path, creating
// the file with the given header when it does not yet exist. This is the
// accumulating summary used by repeated rank product invocations; callers
// relying on idempotent re-runs must not use it.
func AppendRecord(path string, header, record []string) (err error) {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()
	if os.IsNotExist(statErr) {
		_, err = fmt.Fprintf(f, "%s\n", strings.Join(header, "\t"))
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(f, "%s\n", strings.Join(record, "\t"))
	return err
}

// Format renders v rounded to 4 decimal digits, or NA when v is not
// finite.
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NA
	}
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'g', -1, 64)
}

// Column returns the index of name in t's header, or an error when the
// column is absent.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("tabio: no column %q", name)
}
