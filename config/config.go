// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package config reads and validates the build configuration: a flat
// JSON-decodable struct, with defaulting and validation kept as an
// explicit separate step rather than baked into the decode.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Mode selects the geometry optimiser's objective weighting.
type Mode string

const (
	ModeAvg      Mode = "avg"
	ModeSmaller  Mode = "smaller"
	ModeSmallest Mode = "smallest"
	ModeFaster   Mode = "faster"
	ModeFastest  Mode = "fastest"
)

func (m Mode) valid() bool {
	switch m {
	case ModeAvg, ModeSmaller, ModeSmallest, ModeFaster, ModeFastest:
		return true
	}
	return false
}

// Config holds every recognised build option.
type Config struct {
	// InputFile is the path to the manifest TSV.
	InputFile string

	// OutputFile is the path the serialised filter is written to.
	OutputFile string

	// TmpOutputFolder is the scratch directory. Empty means the
	// current directory.
	TmpOutputFolder string

	// KmerSize and WindowSize parameterize the minimiser hasher.
	KmerSize   uint8
	WindowSize uint32

	// MinLength is the minimum sequence length considered.
	MinLength int

	// Exactly one of MaxFP (a probability in (0,1)) or FilterSize
	// (in MiB) must be set; it controls which branch of the
	// geometry sweep runs.
	MaxFP      float64
	FilterSize float64

	// HashFunctions is 0 for auto, else a fixed hash function count.
	HashFunctions uint8

	// MaxHashFunctions upper-bounds the auto-derived hash function
	// count, typically 5.
	MaxHashFunctions uint8

	// Mode selects the geometry optimiser's objective.
	Mode Mode

	// Threads controls hash-extraction and IBF-build parallelism.
	Threads int

	// Quiet suppresses warnings; Verbose adds per-stage timing.
	Quiet   bool
	Verbose bool

	// LogDir is where log files are written; empty means stderr.
	LogDir string

	// CPUProfile enables a pprof CPU profile of the whole run.
	CPUProfile bool
}

// ReadConfig reads a JSON-encoded Config from filename, panicking on
// failure. This is a startup helper, not a recoverable runtime path.
func ReadConfig(filename string) *Config {
	fid, err := os.Open(filename)
	if err != nil {
		panic(err)
	}
	defer fid.Close()

	dec := json.NewDecoder(fid)
	c := new(Config)
	if err := dec.Decode(c); err != nil {
		panic(err)
	}
	return c
}

// Validate reports whether c is internally consistent, applying
// defaults for fields the caller left at their zero value. It must be
// called, and must return true, before any build work begins.
func (c *Config) Validate() bool {
	haveFP := c.MaxFP != 0
	haveSize := c.FilterSize != 0
	if haveFP == haveSize {
		// Neither or both are set; exactly one must control
		// geometry.
		return false
	}
	if haveFP && (c.MaxFP <= 0 || c.MaxFP >= 1) {
		return false
	}
	if haveSize && c.FilterSize <= 0 {
		return false
	}
	if c.KmerSize == 0 {
		return false
	}
	if c.WindowSize < uint32(c.KmerSize) {
		return false
	}
	if c.Mode == "" {
		c.Mode = ModeAvg
	}
	if !c.Mode.valid() {
		return false
	}
	if c.Threads == 0 {
		c.Threads = runtime.NumCPU()
	}
	if c.Threads < 1 {
		return false
	}
	if c.MaxHashFunctions == 0 {
		c.MaxHashFunctions = 5
	}
	if c.MaxHashFunctions < 1 || c.MaxHashFunctions > 5 {
		return false
	}
	if c.InputFile == "" || c.OutputFile == "" {
		return false
	}
	return true
}

// String renders the configuration for verbose-mode logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"input=%s output=%s tmp=%q kmer=%d window=%d min_length=%d max_fp=%v filter_size=%v "+
			"hash_functions=%d max_hash_functions=%d mode=%s threads=%d quiet=%v verbose=%v",
		c.InputFile, c.OutputFile, c.TmpOutputFolder, c.KmerSize, c.WindowSize, c.MinLength,
		c.MaxFP, c.FilterSize, c.HashFunctions, c.MaxHashFunctions, c.Mode, c.Threads, c.Quiet, c.Verbose)
}
