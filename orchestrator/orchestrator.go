// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package orchestrator sequences the whole build: manifest parsing,
// scratch directory preparation, parallel hash extraction, geometry
// selection, bin planning, parallel IBF population, scratch cleanup,
// and serialisation. Each run is tagged with a google/uuid id whose
// first eight characters prefix every log line, and per-stage timings are logged when
// verbose.
package orchestrator

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/fenwick-bio/ibfbuild/binplan"
	"github.com/fenwick-bio/ibfbuild/config"
	"github.com/fenwick-bio/ibfbuild/geometry"
	"github.com/fenwick-bio/ibfbuild/hashextract"
	"github.com/fenwick-bio/ibfbuild/ibf"
	"github.com/fenwick-bio/ibfbuild/manifest"
	"github.com/fenwick-bio/ibfbuild/minimiser"
	"github.com/fenwick-bio/ibfbuild/model"
	"github.com/fenwick-bio/ibfbuild/scratch"
	"github.com/fenwick-bio/ibfbuild/serialize"
)

// Stats accumulates the whole run's totals: manifest-level counts
// folded together with the per-worker partials hash extraction merges
// at its join barrier.
type Stats struct {
	Files            uint64
	InvalidFiles     uint64
	Sequences        uint64
	SkippedSequences uint64
	LengthBP         uint64
}

// Result bundles everything a completed run produced, for a caller
// that wants to report on it.
type Result struct {
	RunID  string
	Stats  Stats
	Config model.IBFConfig
}

// minimiserSeed derives the RollingHasher seed from kmerSize alone,
// so identical configuration always yields an identical hash stream.
func minimiserSeed(kmerSize uint8) uint64 {
	return uint64(kmerSize)
}

// Run sequences manifest parsing -> scratch prep -> hash extraction
// -> geometry selection -> bin planning -> IBF population -> scratch
// deletion -> serialisation. cfg must already have passed Validate().
// A non-nil error means the build failed; no partial output file is
// produced in that case, though scratch files may remain and are the
// caller's responsibility.
func Run(cfg *config.Config) (*Result, error) {
	runID := uuid.NewString()
	logger := newLogger(cfg, runID)

	logger.Printf("starting build run %s", runID)

	items, hashesCount, totals, err := stageManifest(cfg, logger)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("No valid input files")
	}

	scratchDir, err := prepareScratchDir(cfg, hashesCount)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: scratch: %w", err)
	}

	hStats, err := stageHashExtraction(cfg, items, hashesCount, scratchDir, logger)
	if err != nil {
		return nil, err
	}

	ibfConfig := stageGeometry(cfg, hashesCount, logger)
	if ibfConfig.NBins == 0 {
		return nil, fmt.Errorf("orchestrator: geometry sweep produced zero bins")
	}

	targetOrder := make([]string, 0, len(items))
	for _, item := range items {
		targetOrder = append(targetOrder, item.Target)
	}

	binMap, err := binplan.Plan(ibfConfig, hashesCount, targetOrder)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	logger.Printf("bin partition plan: %d bins", len(binMap))

	filter := ibf.New(ibfConfig.NBins, ibfConfig.BinSizeBits, ibfConfig.HashFunctions)

	start := time.Now()
	if err := ibf.Build(filter, binMap, scratchDir, cfg.Threads); err != nil {
		return nil, fmt.Errorf("orchestrator: ibf build: %w", err)
	}
	if cfg.Verbose {
		logger.Printf("ibf build done in %s", time.Since(start))
	}

	if err := scratch.Delete(scratchDir, hashesCount); err != nil {
		return nil, fmt.Errorf("orchestrator: scratch cleanup: %w", err)
	}

	if err := serialize.Save(cfg.OutputFile, ibfConfig, hashesCount, binMap, filter); err != nil {
		os.Remove(cfg.OutputFile)
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	logger.Printf("all done: %s", cfg.OutputFile)

	return &Result{
		RunID: runID,
		Stats: Stats{
			Files:            totals.Files,
			InvalidFiles:     totals.InvalidFiles,
			Sequences:        hStats.Sequences,
			SkippedSequences: hStats.SkippedSequences,
			LengthBP:         hStats.LengthBP,
		},
		Config: ibfConfig,
	}, nil
}

func newLogger(cfg *config.Config, runID string) *log.Logger {
	if cfg.LogDir == "" {
		return log.New(os.Stderr, "["+runID[:8]+"] ", log.Ltime)
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return log.New(os.Stderr, "["+runID[:8]+"] ", log.Ltime)
	}
	path := filepath.Join(cfg.LogDir, "ibfbuild.log")
	fid, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(os.Stderr, "["+runID[:8]+"] ", log.Ltime)
	}
	return log.New(fid, "["+runID[:8]+"] ", log.Ltime)
}

func stageManifest(cfg *config.Config, logger *log.Logger) ([]manifest.InputFileMap, model.HashesCount, manifest.Totals, error) {
	start := time.Now()
	items, hashesCount, totals, err := manifest.Parse(cfg.InputFile, cfg.Quiet)
	if err != nil {
		return nil, nil, manifest.Totals{}, fmt.Errorf("orchestrator: %w", err)
	}
	if cfg.Verbose {
		logger.Printf("manifest parsed in %s: %d files, %d invalid, %d targets",
			time.Since(start), totals.Files, totals.InvalidFiles, len(items))
	}
	return items, hashesCount, totals, nil
}

// prepareScratchDir creates the scratch directory if it is missing and
// deletes any pre-existing ".min" files for targets already known from
// the manifest, so re-running the builder into a dirty scratch
// directory still succeeds.
func prepareScratchDir(cfg *config.Config, hashesCount model.HashesCount) (string, error) {
	dir := cfg.TmpOutputFolder
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := scratch.Delete(dir, hashesCount); err != nil {
		return "", err
	}
	return dir, nil
}

func stageHashExtraction(cfg *config.Config, items []manifest.InputFileMap, hashesCount model.HashesCount, scratchDir string, logger *log.Logger) (hashextract.Stats, error) {
	// WindowSize is configured in bases; the hasher wants the number
	// of consecutive k-mers per window.
	windowKmers := cfg.WindowSize - uint32(cfg.KmerSize) + 1
	hasher := minimiser.NewRollingHasher(int(cfg.KmerSize), windowKmers, minimiserSeed(cfg.KmerSize))

	start := time.Now()
	stats, err := hashextract.Run(items, hashesCount, hasher, cfg.MinLength, scratchDir, cfg.Threads, cfg.Quiet)
	if err != nil {
		return stats, fmt.Errorf("orchestrator: hash extraction: %w", err)
	}
	if cfg.Verbose {
		logger.Printf("hash extraction done in %s: %d sequences, %d skipped, %d bp",
			time.Since(start), stats.Sequences, stats.SkippedSequences, stats.LengthBP)
	}
	return stats, nil
}

func stageGeometry(cfg *config.Config, hashesCount model.HashesCount, logger *log.Logger) model.IBFConfig {
	start := time.Now()
	ibfConfig := geometry.Sweep(cfg.MaxFP, cfg.FilterSize, hashesCount, cfg.HashFunctions, cfg.MaxHashFunctions, string(cfg.Mode))
	ibfConfig.KmerSize = cfg.KmerSize
	ibfConfig.WindowSize = cfg.WindowSize
	if cfg.Verbose {
		logger.Printf("geometry chosen in %s: n_bins=%d bin_size_bits=%d hash_functions=%d true_max_fp=%.6f true_avg_fp=%.6f",
			time.Since(start), ibfConfig.NBins, ibfConfig.BinSizeBits, ibfConfig.HashFunctions, ibfConfig.TrueMaxFP, ibfConfig.TrueAvgFP)
	}
	return ibfConfig
}
