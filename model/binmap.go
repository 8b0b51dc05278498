// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

package model

// BinEntry is one row of the bin map: the target assigned to bin
// BinIndex, and the inclusive range [HashStart, HashEnd] of positions
// into that target's scratch-file hash sequence that were placed in
// this bin.
type BinEntry struct {
	BinIndex  uint64
	Target    string
	HashStart uint64
	HashEnd   uint64
}

// BinMapHash is the full bin assignment: bin_index (0..n_bins) to the
// (target, start, end) triple occupying it.
type BinMapHash []BinEntry
