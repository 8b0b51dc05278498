// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package serialize implements the filter serialiser: a single stable
// binary stream holding the version triple, the IBF geometry, the
// per-target hash counts, the bin map, and the interleaved Bloom
// filter bit matrix itself. Fixed-width fields and length-prefixed
// strings go through encoding/binary; the bit matrix payload is
// snappy-compressed.
package serialize

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/golang/snappy"

	"github.com/fenwick-bio/ibfbuild/ibf"
	"github.com/fenwick-bio/ibfbuild/model"
)

// VersionMajor, VersionMinor, and VersionPatch identify the on-disk
// format, written as the first three values of every filter file.
const (
	VersionMajor uint32 = 1
	VersionMinor uint32 = 0
	VersionPatch uint32 = 0
)

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeConfig(w io.Writer, cfg model.IBFConfig) error {
	fields := []interface{}{
		cfg.KmerSize, cfg.WindowSize, cfg.MaxHashesBin, cfg.NBins,
		cfg.BinSizeBits, cfg.HashFunctions, cfg.MaxFP, cfg.TrueMaxFP, cfg.TrueAvgFP,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readConfig(r io.Reader) (model.IBFConfig, error) {
	var cfg model.IBFConfig
	fields := []interface{}{
		&cfg.KmerSize, &cfg.WindowSize, &cfg.MaxHashesBin, &cfg.NBins,
		&cfg.BinSizeBits, &cfg.HashFunctions, &cfg.MaxFP, &cfg.TrueMaxFP, &cfg.TrueAvgFP,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return model.IBFConfig{}, err
		}
	}
	return cfg, nil
}

// Save writes, in order: the version triple; the IBFConfig block;
// hashes_count as (target, count) pairs sorted by target name for
// reproducible output; the bin map reduced to (bin_index, target)
// pairs (construction-time start/end positions are dropped); and the
// IBF bit matrix's shape followed by its bits, packed one 64-bin group
// at a time.
func Save(path string, cfg model.IBFConfig, hashesCount model.HashesCount, binMap model.BinMapHash, filter *ibf.BitMatrixIBF) error {
	fid, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("serialize: save: %w", err)
	}
	defer fid.Close()

	w := bufio.NewWriter(fid)

	if err := binary.Write(w, binary.LittleEndian, [3]uint32{VersionMajor, VersionMinor, VersionPatch}); err != nil {
		return fmt.Errorf("serialize: save version: %w", err)
	}
	if err := writeConfig(w, cfg); err != nil {
		return fmt.Errorf("serialize: save config: %w", err)
	}

	targets := make([]string, 0, len(hashesCount))
	for t := range hashesCount {
		targets = append(targets, t)
	}
	sort.Strings(targets)

	if err := binary.Write(w, binary.LittleEndian, uint64(len(targets))); err != nil {
		return fmt.Errorf("serialize: save hashes_count len: %w", err)
	}
	for _, t := range targets {
		if err := writeString(w, t); err != nil {
			return fmt.Errorf("serialize: save hashes_count: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, hashesCount[t]); err != nil {
			return fmt.Errorf("serialize: save hashes_count: %w", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(binMap))); err != nil {
		return fmt.Errorf("serialize: save bin_map len: %w", err)
	}
	for _, entry := range binMap {
		if err := binary.Write(w, binary.LittleEndian, entry.BinIndex); err != nil {
			return fmt.Errorf("serialize: save bin_map: %w", err)
		}
		if err := writeString(w, entry.Target); err != nil {
			return fmt.Errorf("serialize: save bin_map: %w", err)
		}
	}

	if err := saveBitMatrix(w, filter); err != nil {
		return fmt.Errorf("serialize: save bitmatrix: %w", err)
	}

	return w.Flush()
}

// saveBitMatrix writes the bit matrix's shape followed by its packed
// bits, routed through a snappy.NewBufferedWriter: the bit matrix is
// typically the dominant share of output size and is mostly zero-run
// data that compresses well.
func saveBitMatrix(w io.Writer, filter *ibf.BitMatrixIBF) error {
	physicalBins := filter.PhysicalBins()
	binSizeBits := filter.BinSizeBits()
	if err := binary.Write(w, binary.LittleEndian, physicalBins); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, binSizeBits); err != nil {
		return err
	}

	sw := snappy.NewBufferedWriter(w)

	// One 64-bin group at a time, in group order; each group holds
	// 64*binSizeBits bits, a multiple of 8, so groups pack cleanly
	// into whole bytes.
	groupBits := 64 * binSizeBits
	for _, g := range filter.Groups() {
		buf := make([]byte, groupBits/8)
		for i := uint64(0); i < groupBits; i++ {
			set, err := g.GetBit(i)
			if err != nil {
				return err
			}
			if set {
				buf[i/8] |= 1 << (i % 8)
			}
		}
		if _, err := sw.Write(buf); err != nil {
			return err
		}
	}
	return sw.Close()
}

// Loaded bundles everything a deserialised filter file holds.
type Loaded struct {
	VersionMajor, VersionMinor, VersionPatch uint32
	Config                                   model.IBFConfig
	HashesCount                              model.HashesCount
	BinMap                                   model.BinMapHash
	Filter                                   *ibf.BitMatrixIBF
}

// Load reads back a file written by Save.
func Load(path string) (*Loaded, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("serialize: load: %w", err)
	}
	defer fid.Close()

	r := bufio.NewReader(fid)
	var out Loaded

	var version [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("serialize: load version: %w", err)
	}
	out.VersionMajor, out.VersionMinor, out.VersionPatch = version[0], version[1], version[2]

	out.Config, err = readConfig(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: load config: %w", err)
	}

	var nTargets uint64
	if err := binary.Read(r, binary.LittleEndian, &nTargets); err != nil {
		return nil, fmt.Errorf("serialize: load hashes_count len: %w", err)
	}
	out.HashesCount = make(model.HashesCount, nTargets)
	for i := uint64(0); i < nTargets; i++ {
		target, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("serialize: load hashes_count: %w", err)
		}
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("serialize: load hashes_count: %w", err)
		}
		out.HashesCount[target] = count
	}

	var nBinEntries uint64
	if err := binary.Read(r, binary.LittleEndian, &nBinEntries); err != nil {
		return nil, fmt.Errorf("serialize: load bin_map len: %w", err)
	}
	out.BinMap = make(model.BinMapHash, nBinEntries)
	for i := uint64(0); i < nBinEntries; i++ {
		var binIndex uint64
		if err := binary.Read(r, binary.LittleEndian, &binIndex); err != nil {
			return nil, fmt.Errorf("serialize: load bin_map: %w", err)
		}
		target, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("serialize: load bin_map: %w", err)
		}
		out.BinMap[i] = model.BinEntry{BinIndex: binIndex, Target: target}
	}

	out.Filter, err = loadBitMatrix(r, out.Config.HashFunctions)
	if err != nil {
		return nil, fmt.Errorf("serialize: load bitmatrix: %w", err)
	}

	return &out, nil
}

func loadBitMatrix(r io.Reader, hashFunctions uint8) (*ibf.BitMatrixIBF, error) {
	var physicalBins, binSizeBits uint64
	if err := binary.Read(r, binary.LittleEndian, &physicalBins); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &binSizeBits); err != nil {
		return nil, err
	}

	filter := ibf.New(physicalBins, binSizeBits, hashFunctions)

	sr := snappy.NewReader(r)

	groupBits := 64 * binSizeBits
	for _, g := range filter.Groups() {
		buf := make([]byte, groupBits/8)
		if _, err := io.ReadFull(sr, buf); err != nil {
			return nil, err
		}
		for i := uint64(0); i < groupBits; i++ {
			if buf[i/8]&(1<<(i%8)) != 0 {
				if err := g.SetBit(i); err != nil {
					return nil, err
				}
			}
		}
	}

	return filter, nil
}
