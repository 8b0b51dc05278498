// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package geometry implements the geometry optimiser: a sweep over
// candidate per-bin hash capacities that chooses the IBF shape (bin
// size, hash function count, bin count) either to hit a target
// false-positive rate at minimal filter size, or to hit a target
// filter size at minimal false-positive rate, subject to a
// mode-weighted harmonic-mean tradeoff against the resulting bin
// count.
package geometry

import (
	"math"

	"github.com/fenwick-bio/ibfbuild/bloommath"
	"github.com/fenwick-bio/ibfbuild/model"
)

// bitsPerMiB is 1 MiB expressed in bits (8 * 1024 * 1024), the unit
// the filter_size configuration option is given in.
const bitsPerMiB = 8388608

// simParam is one candidate point on the sweep.
type simParam struct {
	nHashes        uint64
	nBins          uint64
	filterSizeBits uint64
	fp             float64
}

// Sweep runs the geometry search and returns the chosen IBFConfig.
// Exactly one of maxFP (a target false-positive rate in (0,1)) or
// filterSize (a target size in MiB) must be meaningful; the caller
// signals which by passing 0 for the other. hashFunctions is 0 for
// "derive automatically," else a fixed hash function count.
func Sweep(maxFP float64, filterSize float64, hashesCount model.HashesCount, hashFunctions uint8, maxHashFunctions uint8, mode string) model.IBFConfig {
	var ibfConfig model.IBFConfig

	maxHashes := bloommath.MaxHashes(hashesCount)
	if maxHashes == 0 {
		// Every target produced zero hashes; NBins stays 0 and the
		// orchestrator treats that as fatal.
		return ibfConfig
	}

	var minFilterSize uint64
	var minBins uint64
	minFP := 1.0

	var simulations []simParam

	iter := uint64(100)
	if maxHashes < iter {
		iter = maxHashes
	}

	for n := maxHashes + 1; n > iter; n -= iter {
		nHashes := n - 1

		nBins := bloommath.NumberOfBins(hashesCount, nHashes)

		var binSizeBits int64
		var optimalHashFunctions uint8
		if filterSize != 0 {
			binSizeBits = int64((filterSize / float64(model.OptimalBins(nBins))) * bitsPerMiB)
			optimalHashFunctions = bloommath.OptimalHashFunctions(uint64(binSizeBits), nHashes, hashFunctions, maxHashFunctions)
		} else {
			if hashFunctions == 0 {
				binSizeBits = int64(bloommath.BinSize(maxFP, nHashes))
				optimalHashFunctions = bloommath.OptimalHashFunctions(uint64(binSizeBits), nHashes, hashFunctions, maxHashFunctions)
			} else {
				// binSizeBits is still zero here, which is
				// harmless: a nonzero hashFunctions bypasses
				// the ratio derivation entirely, so the
				// requested count passes straight through.
				optimalHashFunctions = bloommath.OptimalHashFunctions(uint64(binSizeBits), nHashes, hashFunctions, maxHashFunctions)
				binSizeBits = int64(bloommath.BinSizeK(maxFP, nHashes, optimalHashFunctions))
			}
		}

		maxSplitBins := uint64(math.Ceil(float64(maxHashes) / float64(nHashes)))

		var fp float64
		var filterSizeBits uint64
		if filterSize != 0 {
			fp = 1 - math.Pow(1.0-bloommath.FalsePositive(uint64(binSizeBits), optimalHashFunctions, nHashes), float64(maxSplitBins))
			if fp < minFP {
				minFP = fp
			}
		} else {
			avgNHashes := uint64(math.Ceil(float64(maxHashes) / float64(maxSplitBins)))
			approxFP := bloommath.FalsePositive(uint64(binSizeBits), optimalHashFunctions, avgNHashes)
			if approxFP > maxFP {
				approxFP = maxFP
			}

			crate := bloommath.CorrectionRate(maxSplitBins, approxFP, optimalHashFunctions, nHashes)
			binSizeBits = int64(float64(binSizeBits) * crate)
			filterSizeBits = uint64(binSizeBits) * model.OptimalBins(nBins)

			if filterSizeBits == 0 || math.IsInf(crate, 0) {
				break
			}

			if filterSizeBits < minFilterSize || minFilterSize == 0 {
				minFilterSize = filterSizeBits
			}
		}

		simulations = append(simulations, simParam{
			nHashes:        nHashes,
			nBins:          nBins,
			filterSizeBits: filterSizeBits,
			fp:             fp,
		})

		if nBins < minBins || minBins == 0 {
			minBins = nBins
		}
	}

	modeVal := 1.0
	switch mode {
	case "smaller", "faster":
		modeVal = 0.5
	case "smallest", "fastest":
		modeVal = 0
	}

	varVal := 1.0
	binsVal := 1.0
	switch mode {
	case "smaller", "smallest":
		varVal = modeVal
	case "faster", "fastest":
		binsVal = modeVal
	}

	minAvg := 0.0
	for _, params := range simulations {
		var varRatio float64
		if filterSize != 0 {
			varRatio = params.fp / minFP
		} else {
			varRatio = float64(params.filterSizeBits) / float64(minFilterSize)
		}

		binsRatio := float64(params.nBins) / float64(minBins)
		avg := (1 + modeVal*modeVal) * ((varRatio * binsRatio) / (varVal*varRatio + binsVal*binsRatio))

		if avg < minAvg || minAvg == 0 {
			minAvg = avg

			if filterSize != 0 {
				ibfConfig.BinSizeBits = uint64((filterSize / float64(model.OptimalBins(params.nBins))) * bitsPerMiB)
				ibfConfig.MaxFP = params.fp
			} else {
				ibfConfig.BinSizeBits = params.filterSizeBits / model.OptimalBins(params.nBins)
				ibfConfig.MaxFP = maxFP
			}

			ibfConfig.MaxHashesBin = params.nHashes
			ibfConfig.NBins = params.nBins
			ibfConfig.HashFunctions = bloommath.OptimalHashFunctions(ibfConfig.BinSizeBits, params.nHashes, hashFunctions, maxHashFunctions)
		}
	}

	ibfConfig.TrueMaxFP, ibfConfig.TrueAvgFP = bloommath.TrueFalsePositive(hashesCount, ibfConfig.MaxHashesBin, ibfConfig.BinSizeBits, ibfConfig.HashFunctions)

	return ibfConfig
}
