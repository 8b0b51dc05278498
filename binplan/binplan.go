// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package binplan implements the bin partition planner: given a
// chosen IBF geometry and the per-target hash counts, it assigns every
// target's hash range to one or more contiguous bins, splitting any
// target whose count exceeds the per-bin capacity.
package binplan

import (
	"fmt"
	"math"

	"github.com/fenwick-bio/ibfbuild/model"
)

// Plan produces the bin map for ibfConfig and hashesCount. Bin
// numbering follows targetOrder; callers that want reproducible bin
// numbers across runs pass a fixed order (the manifest's first-seen
// order) rather than Go's randomized map iteration order.
func Plan(ibfConfig model.IBFConfig, hashesCount model.HashesCount, targetOrder []string) (model.BinMapHash, error) {
	var binMap model.BinMapHash
	var binno uint64

	for _, target := range targetOrder {
		count, ok := hashesCount[target]
		if !ok || count == 0 {
			continue
		}

		nBinsTarget := uint64(math.Ceil(float64(count) / float64(ibfConfig.MaxHashesBin)))
		nHashesBin := uint64(math.Ceil(float64(count) / float64(nBinsTarget)))
		if nHashesBin > ibfConfig.MaxHashesBin {
			nHashesBin = ibfConfig.MaxHashesBin
		}

		for i := uint64(0); i < nBinsTarget; i++ {
			start := i * nHashesBin
			if start >= count {
				break
			}
			end := start + nHashesBin - 1
			if end >= count {
				end = count - 1
			}
			binMap = append(binMap, model.BinEntry{
				BinIndex:  binno,
				Target:    target,
				HashStart: start,
				HashEnd:   end,
			})
			binno++
		}
	}

	if uint64(len(binMap)) != ibfConfig.NBins {
		return nil, fmt.Errorf("binplan: produced %d bins, expected %d", len(binMap), ibfConfig.NBins)
	}
	return binMap, nil
}
