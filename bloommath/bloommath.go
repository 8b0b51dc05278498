// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package bloommath implements the closed-form Bloom filter sizing
// kernel used by the geometry optimiser. Everything here is a small pure function over the standard
// Bloom filter formulas, independently testable with no shared state.
package bloommath

import "math"

// BinSize returns the number of bits a single bin needs to hold
// nHashes elements at false-positive rate maxFP, assuming an optimal
// number of hash functions.
func BinSize(maxFP float64, nHashes uint64) uint64 {
	v := float64(nHashes) * math.Log(maxFP) / math.Log(1.0/math.Pow(2, math.Ln2))
	return uint64(math.Ceil(v))
}

// BinSizeK returns the number of bits a single bin needs to hold
// nHashes elements at false-positive rate maxFP using exactly
// hashFunctions hash functions.
func BinSizeK(maxFP float64, nHashes uint64, hashFunctions uint8) uint64 {
	v := float64(nHashes) * (-float64(hashFunctions) / math.Log(1-math.Exp(math.Log(maxFP)/float64(hashFunctions))))
	return uint64(math.Ceil(v))
}

// HashFunctionsFromRatio derives the number of hash functions that
// minimizes the false-positive rate for a bin of binSizeBits bits
// holding nHashes elements. The result truncates toward zero; small
// bin-size/hash-count ratios yield 0, which OptimalHashFunctions
// resolves to the clamp value.
func HashFunctionsFromRatio(binSizeBits uint64, nHashes uint64) uint8 {
	return uint8(math.Ln2 * (float64(binSizeBits) / float64(nHashes)))
}

// OptimalHashFunctions resolves the hash function count to actually
// use: hashFunctions if nonzero, else the ratio-derived value for
// (binSizeBits, nHashes); either way 0 or anything above
// maxHashFunctions resolves to maxHashFunctions.
func OptimalHashFunctions(binSizeBits uint64, nHashes uint64, hashFunctions uint8, maxHashFunctions uint8) uint8 {
	optimal := hashFunctions
	if optimal == 0 {
		optimal = HashFunctionsFromRatio(binSizeBits, nHashes)
	}
	if optimal > maxHashFunctions || optimal == 0 {
		optimal = maxHashFunctions
	}
	return optimal
}

// FalsePositive returns the theoretical false-positive rate of a
// single bin of binSizeBits bits, hashFunctions hash functions, and
// nHashes inserted elements.
func FalsePositive(binSizeBits uint64, hashFunctions uint8, nHashes uint64) float64 {
	ratio := float64(binSizeBits) / float64(nHashes)
	return math.Pow(1-math.Exp(-float64(hashFunctions)/ratio), float64(hashFunctions))
}

// CorrectionRate returns the factor by which a bin's size must grow to
// keep the per-target false-positive rate at maxFP once a target has
// been split across maxSplitBins bins: none of maxSplitBins
// independent tests may false-positive, which requires a tighter
// per-bin rate than maxFP itself.
func CorrectionRate(maxSplitBins uint64, maxFP float64, hashFunctions uint8, nHashes uint64) float64 {
	targetFPR := 1.0 - math.Exp(math.Log(1.0-maxFP)/float64(maxSplitBins))
	newBinSize := BinSizeK(targetFPR, nHashes, hashFunctions)
	originalBinSize := BinSizeK(maxFP, nHashes, hashFunctions)
	return float64(newBinSize) / float64(originalBinSize)
}

// NumberOfBins returns the total number of bins (including bins a
// single target is split across) needed to hold hashesCount at
// nHashes hashes per bin.
func NumberOfBins(hashesCount map[string]uint64, nHashes uint64) uint64 {
	var nBins uint64
	for _, count := range hashesCount {
		nBins += uint64(math.Ceil(float64(count) / float64(nHashes)))
	}
	return nBins
}

// TrueFalsePositive returns the highest and average per-target
// false-positive rate across hashesCount, accounting for each target
// being split across ceil(count/maxHashesBin) bins.
func TrueFalsePositive(hashesCount map[string]uint64, maxHashesBin uint64, binSizeBits uint64, hashFunctions uint8) (highestFP float64, averageFP float64) {
	for _, count := range hashesCount {
		nBinsTarget := uint64(math.Ceil(float64(count) / float64(maxHashesBin)))
		nHashesBin := uint64(math.Ceil(float64(count) / float64(nBinsTarget)))

		realFP := 1.0 - math.Pow(1.0-FalsePositive(binSizeBits, hashFunctions, nHashesBin), float64(nBinsTarget))

		if realFP > highestFP {
			highestFP = realFP
		}
		averageFP += realFP
	}
	if len(hashesCount) > 0 {
		averageFP /= float64(len(hashesCount))
	}
	return highestFP, averageFP
}

// MaxHashes returns the largest per-target hash count in hashesCount.
func MaxHashes(hashesCount map[string]uint64) uint64 {
	var max uint64
	for _, count := range hashesCount {
		if count > max {
			max = count
		}
	}
	return max
}
