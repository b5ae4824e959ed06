// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tabio

import (
	"fmt"
	"strings"
)

// MergeLeft joins extra onto base by the named key column, keeping every
// base row in order. The non-key columns of extra are appended to the
// header with prefix trimmed from their names; base rows without a match
// in extra receive NA in the appended columns. Duplicate keys in extra
// are an error since the join would no longer be a function of the base
// row.
func MergeLeft(base, extra *Table, key, prefix string) (*Table, error) {
	bk, err := base.Column(key)
	if err != nil {
		return nil, err
	}
	ek, err := extra.Column(key)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string][]string, len(extra.Rows))
	for _, r := range extra.Rows {
		if _, dup := byKey[r[ek]]; dup {
			return nil, fmt.Errorf("tabio: duplicate key %q in merged table", r[ek])
		}
		byKey[r[ek]] = r
	}

	header := append([]string(nil), base.Header...)
	for i, h := range extra.Header {
		if i == ek {
			continue
		}
		header = append(header, strings.TrimPrefix(h, prefix))
	}

	merged := &Table{Header: header, Rows: make([][]string, 0, len(base.Rows))}
	for _, r := range base.Rows {
		row := append([]string(nil), r...)
		if e, ok := byKey[r[bk]]; ok {
			for i, v := range e {
				if i == ek {
					continue
				}
				row = append(row, v)
			}
		} else {
			for i := range extra.Header {
				if i == ek {
					continue
				}
				row = append(row, NA)
			}
		}
		merged.Rows = append(merged.Rows, row)
	}
	return merged, nil
}
