// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package hashextract implements the hash extraction pipeline: a
// bounded producer/consumer queue of (target, files) work items popped
// by N worker goroutines, each accumulating a per-target minimiser
// hash set and spilling it to the scratch store.
package hashextract

import (
	"fmt"
	"os"
	"sync"

	"github.com/fenwick-bio/ibfbuild/manifest"
	"github.com/fenwick-bio/ibfbuild/minimiser"
	"github.com/fenwick-bio/ibfbuild/model"
	"github.com/fenwick-bio/ibfbuild/scratch"
	"github.com/fenwick-bio/ibfbuild/seqio"
)

// MaxHashesPerTarget is the hard per-target cap on the in-memory hash
// set size: once reached, the current sequence and all remaining files
// for that target are abandoned.
const MaxHashesPerTarget = 2_000_000

// Stats accumulates per-worker statistics over the course of a run.
// Each worker owns exactly one Stats slot (indexed by worker id), so
// no synchronization is required while workers run; Run sums the
// slots together after every worker has joined.
type Stats struct {
	Sequences        uint64
	SkippedSequences uint64
	LengthBP         uint64
}

func (s *Stats) add(o Stats) {
	s.Sequences += o.Sequences
	s.SkippedSequences += o.SkippedSequences
	s.LengthBP += o.LengthBP
}

// Run drains items through nWorkers goroutines, mutating hashesCount
// in place (distinct targets are visited by distinct workers, so
// per-key writes are race-free) and writing each target's surviving
// hash set to scratchDir via the scratch store.
// quiet suppresses per-file warnings. A scratch-store write failure is
// the only fatal error this stage returns; individual file read/parse
// failures are logged to stderr and that file is skipped.
func Run(items []manifest.InputFileMap, hashesCount model.HashesCount, hasher minimiser.MinimiserHasher, minLength int, scratchDir string, nWorkers int, quiet bool) (Stats, error) {
	if nWorkers < 1 {
		nWorkers = 1
	}

	queue := make(chan manifest.InputFileMap, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	workerStats := make([]Stats, nWorkers)
	workerErrs := make([]error, nWorkers)

	var wg sync.WaitGroup
	for w := 0; w < nWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			workerErrs[worker] = runWorker(queue, hashesCount, hasher, minLength, scratchDir, quiet, &workerStats[worker])
		}(w)
	}
	wg.Wait()

	var total Stats
	for i := range workerStats {
		total.add(workerStats[i])
		if workerErrs[i] != nil {
			return total, workerErrs[i]
		}
	}
	return total, nil
}

func runWorker(queue <-chan manifest.InputFileMap, hashesCount model.HashesCount, hasher minimiser.MinimiserHasher, minLength int, scratchDir string, quiet bool, stats *Stats) error {
	for item := range queue {
		hashes := make(map[uint64]struct{})

	files:
		for _, file := range item.Files {
			reader, err := seqio.NewSequenceReader(file)
			if err != nil {
				if !quiet {
					fmt.Fprintf(os.Stderr, "WARNING: %s: %v\n", file, err)
				}
				continue
			}

			for reader.Next() {
				seq := reader.Seq()
				if len(seq) < minLength {
					stats.SkippedSequences++
					continue
				}
				stats.Sequences++
				stats.LengthBP += uint64(len(seq))

				for _, h := range hasher.Stream(seq) {
					hashes[h] = struct{}{}
					if len(hashes) >= MaxHashesPerTarget {
						break
					}
				}
				if len(hashes) >= MaxHashesPerTarget {
					break
				}
			}
			if err := reader.Err(); err != nil && !quiet {
				fmt.Fprintf(os.Stderr, "WARNING: %s: %v\n", file, err)
			}
			reader.Close()

			if len(hashes) >= MaxHashesPerTarget {
				break files
			}
		}

		hashesCount[item.Target] += uint64(len(hashes))
		if err := scratch.Store(scratchDir, item.Target, hashes); err != nil {
			return err
		}
	}
	return nil
}
