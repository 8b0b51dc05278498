// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

package model

// IBFConfig is the computed IBF geometry, sufficient on its own to
// reconstruct an empty IBF of the right shape.
type IBFConfig struct {
	KmerSize      uint8
	WindowSize    uint32
	MaxHashesBin  uint64
	NBins         uint64
	BinSizeBits   uint64
	HashFunctions uint8
	MaxFP         float64
	TrueMaxFP     float64
	TrueAvgFP     float64
}

// OptimalBins rounds n up to the next multiple of 64, the physical
// bin count the IBF's interleaved bit matrix must allocate.
func OptimalBins(n uint64) uint64 {
	return ((n + 63) / 64) * 64
}
