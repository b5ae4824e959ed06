// Copyright ©2021 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package enrich

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// GeneSet is one named pathway gene set.
type GeneSet struct {
	ID    string
	Name  string
	Genes []string
}

// ReadGMT returns the gene sets held in the GMT format file at path: one
// set per line, tab separated, the first field the set identifier, the
// second a free-text description and the remainder the member
// identifiers.
func ReadGMT(path string) ([]GeneSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sets []GeneSet
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("enrich: malformed gene set at %s:%d", path, line)
		}
		var genes []string
		for _, g := range fields[2:] {
			if g != "" {
				genes = append(genes, g)
			}
		}
		if len(genes) == 0 {
			return nil, fmt.Errorf("enrich: empty gene set %q at %s:%d", fields[0], path, line)
		}
		sets = append(sets, GeneSet{ID: fields[0], Name: fields[1], Genes: genes})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("enrich: no gene sets in %s", path)
	}
	return sets, nil
}
