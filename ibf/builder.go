// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

package ibf

import (
	"sync"
	"sync/atomic"

	"github.com/fenwick-bio/ibfbuild/model"
	"github.com/fenwick-bio/ibfbuild/scratch"
)

// batchSize is the number of contiguous bin indices handed to a single
// goroutine at a time. It matches the bit matrix's 64-bin group width,
// so a batch maps to exactly one backing bit array and two goroutines
// working different batches never touch the same word.
const batchSize = binsPerGroup

// Build populates filter from binMap using nWorkers goroutines, each
// claiming batches of batchSize contiguous bin indices from a shared
// atomic counter until the map is exhausted. scratchDir is the
// directory holding the per-target ".min" hash files written during
// hash extraction. Within a batch, each distinct target's hash file is
// loaded once and cached; the cache is dropped between batches so a
// worker never holds more than one batch's worth of targets in
// memory.
func Build(filter IBF, binMap model.BinMapHash, scratchDir string, nWorkers int) error {
	if len(binMap) == 0 {
		return nil
	}
	if nWorkers < 1 {
		nWorkers = 1
	}

	maxBatch := (uint64(len(binMap)) + batchSize - 1) / batchSize
	var nextBatch uint64
	errs := make([]error, nWorkers)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			errs[worker] = buildWorker(filter, binMap, scratchDir, &nextBatch, maxBatch)
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func buildWorker(filter IBF, binMap model.BinMapHash, scratchDir string, nextBatch *uint64, maxBatch uint64) error {
	for {
		batch := atomic.AddUint64(nextBatch, 1) - 1
		if batch >= maxBatch {
			return nil
		}

		// Per-batch cache: a target spanning several bins in this
		// batch is read from disk once, and the memory is released
		// before the next batch is claimed.
		targetHashes := make(map[string][]uint64)

		start := batch * batchSize
		end := start + batchSize - 1
		if end > uint64(len(binMap))-1 {
			end = uint64(len(binMap)) - 1
		}

		for i := start; i <= end; i++ {
			entry := binMap[i]
			hashes, ok := targetHashes[entry.Target]
			if !ok {
				var err error
				hashes, err = scratch.Load(scratchDir, entry.Target)
				if err != nil {
					return err
				}
				targetHashes[entry.Target] = hashes
			}
			for pos := entry.HashStart; pos <= entry.HashEnd; pos++ {
				filter.Insert(hashes[pos], entry.BinIndex)
			}
		}
	}
}
