// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package minimiser computes a deterministic stream of canonical
// minimiser hashes from a DNA sequence, using two independently seeded
// buzhash32 rolling hashes combined into one 64-bit k-mer hash, with
// sliding-window minimiser selection over the resulting hash stream.
package minimiser

import (
	"math/rand"

	"github.com/chmduquesne/rollinghash"
	"github.com/chmduquesne/rollinghash/buzhash32"
)

// MinimiserHasher produces a deterministic stream of canonical k-mer
// hashes from a sequence.
type MinimiserHasher interface {
	Stream(seq []byte) []uint64
}

// RollingHasher is the concrete MinimiserHasher: canonical (strand
// independent) k-mer hashing via two buzhash32 tables, with a
// monotonic-deque minimiser selection over a sliding window of
// consecutive k-mers.
type RollingHasher struct {
	kmerSize   int
	windowSize uint32
	tableHi    [256]uint32
	tableLo    [256]uint32
}

// NewRollingHasher builds a hasher for kmerSize-wide k-mers with
// minimiser selection over windowSize consecutive k-mers. Callers whose
// window is denominated in bases pass window - k + 1. seed
// deterministically perturbs the two buzhash32 tables: the same
// (kmerSize, windowSize, seed) always yields the same hash stream for
// the same sequence.
func NewRollingHasher(kmerSize int, windowSize uint32, seed uint64) *RollingHasher {
	return &RollingHasher{
		kmerSize:   kmerSize,
		windowSize: windowSize,
		tableHi:    genTable(seed),
		tableLo:    genTable(seed ^ 0x9e3779b97f4a7c15),
	}
}

// genTable builds one of buzhash32's 256-entry substitution tables from
// a deterministic seed. Entries must be distinct or the rolling hash
// degenerates.
func genTable(seed uint64) [256]uint32 {
	rng := rand.New(rand.NewSource(int64(seed)))
	seen := make(map[uint32]bool, 256)
	var table [256]uint32
	for i := 0; i < 256; i++ {
		for {
			x := uint32(rng.Int63())
			if !seen[x] {
				table[i] = x
				seen[x] = true
				break
			}
		}
	}
	return table
}

func combine(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

func containsAmbiguous(kmer []byte) bool {
	for _, b := range kmer {
		if b == 'X' {
			return true
		}
	}
	return false
}

// revcomp reverse-complements seq. Any byte outside {A,T,G,C} (always
// 'X' by the time seqio has substituted it) maps to 'X'.
func revcomp(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i, b := range seq {
		var c byte
		switch b {
		case 'A':
			c = 'T'
		case 'T':
			c = 'A'
		case 'G':
			c = 'C'
		case 'C':
			c = 'G'
		default:
			c = 'X'
		}
		out[n-1-i] = c
	}
	return out
}

// candidate is one position's canonical k-mer hash, tracked in the
// minimiser selection deque.
type candidate struct {
	pos  int
	hash uint64
}

// Stream computes every k-mer's canonical hash (the smaller of the
// forward and reverse-complement buzhash32 combination) and selects
// the minimiser over each windowSize-wide run of consecutive k-mers.
// Ties keep the leftmost position, and a new window minimum is emitted
// only when its hash differs from the previously emitted one, so a run
// of equal minimisers (a flat run) is emitted once. K-mers containing a substituted non-ACGT
// base are excluded from consideration, breaking the current window's
// continuity, so a minimiser is never chosen across an ambiguous
// stretch of sequence.
func (h *RollingHasher) Stream(seq []byte) []uint64 {
	k := h.kmerSize
	if len(seq) < k {
		return nil
	}

	var fwdHi, fwdLo rollinghash.Hash32
	needWrite := true
	var deque []candidate
	var out []uint64
	lastEmitted := -1
	var lastHash uint64
	windowStart := 0

	resetWindow := func() {
		deque = deque[:0]
		lastEmitted = -1
		needWrite = true
	}

	for i := 0; i <= len(seq)-k; i++ {
		kmer := seq[i : i+k]

		if containsAmbiguous(kmer) {
			resetWindow()
			windowStart = i + 1
			continue
		}

		if needWrite {
			fwdHi = buzhash32.NewFromUint32Array(h.tableHi)
			fwdLo = buzhash32.NewFromUint32Array(h.tableLo)
			fwdHi.Write(kmer)
			fwdLo.Write(kmer)
			needWrite = false
		} else {
			fwdHi.Roll(seq[i+k-1])
			fwdLo.Roll(seq[i+k-1])
		}
		fwd := combine(fwdHi.Sum32(), fwdLo.Sum32())

		// buzhash32 only rolls forward, so the reverse-complement
		// hash is recomputed per k-mer rather than rolled.
		rc := revcomp(kmer)
		revHi := buzhash32.NewFromUint32Array(h.tableHi)
		revLo := buzhash32.NewFromUint32Array(h.tableLo)
		revHi.Write(rc)
		revLo.Write(rc)
		rev := combine(revHi.Sum32(), revLo.Sum32())

		canon := fwd
		if rev < canon {
			canon = rev
		}

		for len(deque) > 0 && deque[len(deque)-1].hash > canon {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, candidate{pos: i, hash: canon})
		for len(deque) > 0 && deque[0].pos <= i-int(h.windowSize) {
			deque = deque[1:]
		}

		if uint32(i-windowStart+1) >= h.windowSize {
			front := deque[0]
			if front.pos != lastEmitted {
				// A new minimum position with the same hash as the
				// last emitted value is not emitted again.
				if lastEmitted < 0 || front.hash != lastHash {
					out = append(out, front.hash)
				}
				lastEmitted = front.pos
				lastHash = front.hash
			}
		}
	}

	return out
}
