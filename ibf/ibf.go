// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package ibf implements the interleaved Bloom filter bit-matrix
// primitive: b parallel Bloom filters ("technical bins") stored so
// that the i-th bit of 64 consecutive bins shares one machine word,
// backed by github.com/golang-collections/go-datastructures/bitarray.
package ibf

import (
	"github.com/golang-collections/go-datastructures/bitarray"

	"github.com/fenwick-bio/ibfbuild/model"
)

// IBF is the interleaved Bloom filter contract used by the builder.
type IBF interface {
	Insert(hash uint64, binIndex uint64)
	Contains(hash uint64, binIndex uint64) bool
}

// binsPerGroup is the number of bins whose bits interleave within one
// machine word. The parallel builder hands out batches of exactly this
// many contiguous bins, so a batch maps to exactly one group and each
// group's backing array has a single writer for the whole build.
const binsPerGroup = 64

// BitMatrixIBF is the concrete IBF: one bitarray.BitArray per group of
// 64 consecutive bins, each of 64*binSizeBits bits, addressed within
// the group as pos*64 + binIndex%64. Bit pos of all 64 bins in a group
// therefore occupies one 64-bit word, and no word is ever shared
// between groups, which is the layout the lock-free 64-bin batch
// insertion depends on.
type BitMatrixIBF struct {
	groups        []bitarray.BitArray
	physicalBins  uint64
	binSizeBits   uint64
	hashFunctions uint8
}

// New allocates an empty IBF sized for binCount logical bins (rounded
// up to the next multiple of 64), binSizeBits bits per bin, and
// hashFunctions hash functions per inserted element.
func New(binCount uint64, binSizeBits uint64, hashFunctions uint8) *BitMatrixIBF {
	physicalBins := model.OptimalBins(binCount)
	groups := make([]bitarray.BitArray, physicalBins/binsPerGroup)
	for i := range groups {
		groups[i] = bitarray.NewBitArray(binsPerGroup * binSizeBits)
	}
	return &BitMatrixIBF{
		groups:        groups,
		physicalBins:  physicalBins,
		binSizeBits:   binSizeBits,
		hashFunctions: hashFunctions,
	}
}

// positions derives hashFunctions independent within-bin bit offsets
// from hash via Kirsch-Mitzenmacher double hashing, the same technique
// willf/bloom uses internally for its own baseHashes.
func (f *BitMatrixIBF) positions(hash uint64) []uint64 {
	h1 := hash >> 32
	h2 := hash & 0xffffffff
	pos := make([]uint64, f.hashFunctions)
	for i := uint8(0); i < f.hashFunctions; i++ {
		pos[i] = (h1 + uint64(i)*h2) % f.binSizeBits
	}
	return pos
}

func (f *BitMatrixIBF) bitIndex(pos uint64, binIndex uint64) uint64 {
	return pos*binsPerGroup + binIndex%binsPerGroup
}

// Insert sets hashFunctions bits for hash within binIndex. Concurrent
// calls are safe as long as no two goroutines insert into the same
// 64-bin group, which the builder's batch discipline guarantees.
func (f *BitMatrixIBF) Insert(hash uint64, binIndex uint64) {
	group := f.groups[binIndex/binsPerGroup]
	for _, pos := range f.positions(hash) {
		if err := group.SetBit(f.bitIndex(pos, binIndex)); err != nil {
			panic(err)
		}
	}
}

// Contains reports whether every one of hash's hashFunctions bits is
// set within binIndex.
func (f *BitMatrixIBF) Contains(hash uint64, binIndex uint64) bool {
	group := f.groups[binIndex/binsPerGroup]
	for _, pos := range f.positions(hash) {
		ok, err := group.GetBit(f.bitIndex(pos, binIndex))
		if err != nil {
			panic(err)
		}
		if !ok {
			return false
		}
	}
	return true
}

// Groups returns the backing bit arrays, one per 64 consecutive bins,
// for serialisation.
func (f *BitMatrixIBF) Groups() []bitarray.BitArray {
	return f.groups
}

// PhysicalBins returns the rounded-up (multiple of 64) bin count the
// filter was allocated with.
func (f *BitMatrixIBF) PhysicalBins() uint64 {
	return f.physicalBins
}

// BinSizeBits returns the per-bin bit width.
func (f *BitMatrixIBF) BinSizeBits() uint64 {
	return f.binSizeBits
}
