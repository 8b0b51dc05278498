// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package scratch implements the scratch hash store: append-only,
// per-target files of raw little-endian uint64 hash values, written
// during hash extraction and consumed during IBF population, then
// deleted before the build returns.
package scratch

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fenwick-bio/ibfbuild/model"
)

// path returns the on-disk path for a target's hash file.
func path(dir, target string) string {
	return filepath.Join(dir, target+".min")
}

// Store appends hashes to the scratch file for target, creating it if
// necessary. Each target is handled by exactly one extraction worker,
// so a target's file has a single writer and no locking is required.
func Store(dir, target string, hashes map[uint64]struct{}) error {
	fid, err := os.OpenFile(path(dir, target), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("scratch: store %s: %w", target, err)
	}
	defer fid.Close()

	w := bufio.NewWriter(fid)
	for h := range hashes {
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return fmt.Errorf("scratch: store %s: %w", target, err)
		}
	}
	return w.Flush()
}

// Load reads the full scratch file for target back into memory, in
// whatever order it was written.
func Load(dir, target string) ([]uint64, error) {
	fid, err := os.Open(path(dir, target))
	if err != nil {
		return nil, fmt.Errorf("scratch: load %s: %w", target, err)
	}
	defer fid.Close()

	info, err := fid.Stat()
	if err != nil {
		return nil, fmt.Errorf("scratch: load %s: %w", target, err)
	}
	n := info.Size() / 8
	hashes := make([]uint64, 0, n)

	r := bufio.NewReader(fid)
	for {
		var h uint64
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			break
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// Delete removes the scratch file for every target in hashesCount,
// ignoring targets whose file does not exist.
func Delete(dir string, hashesCount model.HashesCount) error {
	for target := range hashesCount {
		p := path(dir, target)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("scratch: delete %s: %w", target, err)
		}
	}
	return nil
}
