// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Command ibfbuild constructs an Interleaved Bloom Filter over a
// collection of DNA reference targets, described by a tab-delimited
// manifest.
//
// ibfbuild can be invoked either with a JSON configuration file or
// with command-line flags; flags always override values loaded from
// the configuration file:
//
//	ibfbuild --config=build.json
//	ibfbuild --input=manifest.tsv --output=filter.ibf --kmer=19 --window=31 --max-fp=0.05
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/profile"

	"github.com/fenwick-bio/ibfbuild/config"
	"github.com/fenwick-bio/ibfbuild/orchestrator"
)

func handleArgs() *config.Config {
	configFile := flag.String("config", "", "JSON file containing configuration parameters")
	inputFile := flag.String("input", "", "Path to the tab-delimited input manifest")
	outputFile := flag.String("output", "", "Path for the serialised filter")
	tmpOutputFolder := flag.String("tmp", "", "Scratch directory for intermediate hash files")
	kmerSize := flag.Uint("kmer", 0, "K-mer size")
	windowSize := flag.Uint("window", 0, "Minimiser window size")
	minLength := flag.Int("min-length", 0, "Minimum sequence length considered")
	maxFP := flag.Float64("max-fp", 0, "Target maximum false-positive rate (mutually exclusive with -filter-size)")
	filterSize := flag.Float64("filter-size", 0, "Target filter size in MiB (mutually exclusive with -max-fp)")
	hashFunctions := flag.Uint("hash-functions", 0, "Fixed hash function count (0 = derive automatically)")
	maxHashFunctions := flag.Uint("max-hash-functions", 0, "Upper bound on the derived hash function count")
	mode := flag.String("mode", "", "Geometry objective: avg, smaller, smallest, faster, fastest")
	threads := flag.Int("threads", 0, "Parallelism for hash extraction and IBF population")
	quiet := flag.Bool("quiet", false, "Suppress warnings")
	verbose := flag.Bool("verbose", false, "Emit per-stage timing to stderr")
	logDir := flag.String("log-dir", "", "Directory for the run log (default: stderr)")
	cpuProfile := flag.Bool("cpuprofile", false, "Capture a CPU profile of the run")

	flag.Parse()

	var cfg *config.Config
	if *configFile != "" {
		cfg = config.ReadConfig(*configFile)
	} else {
		cfg = new(config.Config)
	}

	if *inputFile != "" {
		cfg.InputFile = *inputFile
	}
	if *outputFile != "" {
		cfg.OutputFile = *outputFile
	}
	if *tmpOutputFolder != "" {
		cfg.TmpOutputFolder = *tmpOutputFolder
	}
	if *kmerSize != 0 {
		cfg.KmerSize = uint8(*kmerSize)
	}
	if *windowSize != 0 {
		cfg.WindowSize = uint32(*windowSize)
	}
	if *minLength != 0 {
		cfg.MinLength = *minLength
	}
	if *maxFP != 0 {
		cfg.MaxFP = *maxFP
	}
	if *filterSize != 0 {
		cfg.FilterSize = *filterSize
	}
	if *hashFunctions != 0 {
		cfg.HashFunctions = uint8(*hashFunctions)
	}
	if *maxHashFunctions != 0 {
		cfg.MaxHashFunctions = uint8(*maxHashFunctions)
	}
	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
	}
	if *threads != 0 {
		cfg.Threads = *threads
	}
	if *quiet {
		cfg.Quiet = true
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *logDir != "" {
		cfg.LogDir = *logDir
	}
	if *cpuProfile {
		cfg.CPUProfile = true
	}

	return cfg
}

func main() {
	cfg := handleArgs()

	if !cfg.Validate() {
		fmt.Fprintln(os.Stderr, "ERROR: invalid configuration")
		os.Exit(1)
	}

	if cfg.CPUProfile {
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."))
		defer p.Stop()
	}

	result, err := orchestrator.Run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "run %s complete\n", result.RunID)
	fmt.Fprintf(os.Stderr, "files=%d invalid_files=%d sequences=%d skipped_sequences=%d length_bp=%d\n",
		result.Stats.Files, result.Stats.InvalidFiles, result.Stats.Sequences,
		result.Stats.SkippedSequences, result.Stats.LengthBP)
	fmt.Fprintf(os.Stderr, "n_bins=%d bin_size_bits=%d hash_functions=%d true_max_fp=%.6f true_avg_fp=%.6f\n",
		result.Config.NBins, result.Config.BinSizeBits, result.Config.HashFunctions,
		result.Config.TrueMaxFP, result.Config.TrueAvgFP)
}
