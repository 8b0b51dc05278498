// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package manifest implements the input manifest parser: reading a
// tab-delimited file that groups input DNA files into targets.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fenwick-bio/ibfbuild/model"
)

// Totals accumulates manifest-level statistics.
type Totals struct {
	Files        uint64
	InvalidFiles uint64
}

// InputFileMap is one queue item: a target and the files that belong
// to it. Hash extraction workers pop these off a bounded queue.
type InputFileMap struct {
	Target string
	Files  []string
}

// Parse reads the manifest at path, returning the ordered input map
// (target -> files), the hash count map pre-populated with a zero
// entry for every known target, and file-level totals. A line with one
// field is `file_path`, with the target defaulted to the file's
// basename; two fields are `file_path\ttarget`. A legacy third field
// (historically a per-sequence id list) is accepted and ignored. Rows
// whose file does not exist or is empty are counted as invalid and
// warned about unless quiet is true.
//
// An unreadable manifest is fatal; callers should abort the whole
// build on a non-nil error.
func Parse(path string, quiet bool) ([]InputFileMap, model.HashesCount, Totals, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, nil, Totals{}, fmt.Errorf("manifest: %w", err)
	}
	defer fid.Close()

	hashesCount := make(model.HashesCount)
	seenValidFiles := make(map[string]bool)
	order := make([]string, 0)
	byTarget := make(map[string][]string)
	var totals Totals

	scanner := bufio.NewScanner(fid)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		file := fields[0]

		info, statErr := os.Stat(file)
		if statErr != nil || info.Size() == 0 {
			if !quiet {
				fmt.Fprintf(os.Stderr, "WARNING: input file not found/empty: %s\n", file)
			}
			totals.InvalidFiles++
			continue
		}
		seenValidFiles[file] = true

		var target string
		switch {
		case len(fields) == 1:
			target = filepath.Base(file)
		default:
			// Two or more fields: the second is the target; any
			// further fields (a legacy per-sequence id list) are
			// silently ignored.
			target = fields[1]
		}

		if _, ok := byTarget[target]; !ok {
			order = append(order, target)
		}
		byTarget[target] = append(byTarget[target], file)
		hashesCount[target] = 0
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, Totals{}, fmt.Errorf("manifest: %w", err)
	}

	totals.Files = uint64(len(seenValidFiles))

	queue := make([]InputFileMap, 0, len(order))
	for _, t := range order {
		queue = append(queue, InputFileMap{Target: t, Files: byTarget[t]})
	}

	return queue, hashesCount, totals, nil
}
