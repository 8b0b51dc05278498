// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package model holds the data types shared by every stage of the IBF
// build pipeline: the per-target hash counts produced by hash
// extraction, the geometry chosen by the optimiser, and the bin map
// produced by the partition planner.
package model

// HashesCount maps a target name to the cardinality of its minimiser
// hash set, after the 2,000,000 per-target cap has been applied. It is
// built by the manifest parser with a zero entry per target, mutated once per key by the hash
// extraction workers (one worker per target, so no lock is needed), and
// read-only afterward.
type HashesCount map[string]uint64
