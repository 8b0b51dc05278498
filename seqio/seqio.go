// Copyright 2017, Kerby Shedden and the Muscato contributors.
// Copyright 2026, the ibfbuild contributors.

// Package seqio reads DNA sequences out of FASTA and FASTQ files,
// transparently decompressing gzip (".gz") and snappy (".sz")
// payloads and substituting any non-ACGT byte with X.
package seqio

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
)

// SequenceReader streams (id, sequence) records out of a file one at a
// time. Call Next until it returns false, then check Err to
// distinguish end-of-file from a read error.
type SequenceReader interface {
	Next() bool
	ID() string
	Seq() []byte
	Err() error
	Close() error
}

const maxLine = 1024 * 1024

// subx replaces any byte outside {A,T,G,C} with X in place.
func subx(seq []byte) {
	for i, c := range seq {
		switch c {
		case 'A', 'T', 'C', 'G':
		default:
			seq[i] = 'X'
		}
	}
}

// openDecompressed opens path and transparently strips trailing .gz
// or .sz layers (possibly stacked), returning the decompressed stream
// and the file extension remaining once compression suffixes are
// peeled off.
func openDecompressed(path string) (io.ReadCloser, string, error) {
	fid, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("seqio: %w", err)
	}

	var rdr io.Reader = fid
	name := path
	closers := []io.Closer{fid}

	for {
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".gz":
			gz, err := gzip.NewReader(rdr)
			if err != nil {
				fid.Close()
				return nil, "", fmt.Errorf("seqio: gzip %s: %w", path, err)
			}
			rdr = gz
			closers = append(closers, gz)
			name = strings.TrimSuffix(name, ext)
		case ".sz":
			rdr = snappy.NewReader(rdr)
			name = strings.TrimSuffix(name, ext)
		default:
			return &multiCloseReader{Reader: rdr, closers: closers}, ext, nil
		}
	}
}

// multiCloseReader closes every wrapped closer in reverse-open order.
type multiCloseReader struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloseReader) Close() error {
	var firstErr error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewSequenceReader opens path and dispatches to a FastqReader or
// FastaReader based on the file extension once compression suffixes
// are stripped.
func NewSequenceReader(path string) (SequenceReader, error) {
	rc, ext, err := openDecompressed(path)
	if err != nil {
		return nil, err
	}

	switch ext {
	case ".fastq", ".fq":
		return newFastqReader(rc), nil
	default:
		return newFastaReader(rc), nil
	}
}
