package seqio

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/snappy"
)

func TestFastaReaderMultiRecordAndMultiLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta")
	content := ">seq1 description\nACGT\nACGT\n>seq2\nTTTTNNNNacgt\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewSequenceReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !r.Next() {
		t.Fatalf("expected first record, err=%v", r.Err())
	}
	if r.ID() != "seq1 description" {
		t.Errorf("ID = %q", r.ID())
	}
	if string(r.Seq()) != "ACGTACGT" {
		t.Errorf("Seq = %q", r.Seq())
	}

	if !r.Next() {
		t.Fatalf("expected second record, err=%v", r.Err())
	}
	if r.ID() != "seq2" {
		t.Errorf("ID = %q", r.ID())
	}
	// lowercase bases and N are substituted with X, matching subx's
	// uppercase-only ACGT recognition.
	if string(r.Seq()) != "TTTTXXXXXXXX" {
		t.Errorf("Seq = %q", r.Seq())
	}

	if r.Next() {
		t.Fatal("expected no third record")
	}
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
}

func TestFastqReaderFourLineCycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fastq")
	content := "@read1\nACGT\n+\nIIII\n@read2\nNNNN\n+\nIIII\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewSequenceReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var ids []string
	var seqs []string
	for r.Next() {
		ids = append(ids, r.ID())
		seqs = append(seqs, string(r.Seq()))
	}
	if r.Err() != nil {
		t.Fatal(r.Err())
	}

	if len(ids) != 2 || ids[0] != "@read1" || ids[1] != "@read2" {
		t.Errorf("unexpected ids: %v", ids)
	}
	if len(seqs) != 2 || seqs[0] != "ACGT" || seqs[1] != "XXXX" {
		t.Errorf("unexpected seqs: %v", seqs)
	}
}

func TestNewSequenceReaderGzipTransparent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(">only\nACGT\n"))
	gz.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewSequenceReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !r.Next() {
		t.Fatalf("expected a record, err=%v", r.Err())
	}
	if string(r.Seq()) != "ACGT" {
		t.Errorf("Seq = %q", r.Seq())
	}
}

func TestNewSequenceReaderSnappyTransparent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta.sz")

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	w.Write([]byte(">only\nACGT\n"))
	w.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewSequenceReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if !r.Next() {
		t.Fatalf("expected a record, err=%v", r.Err())
	}
	if string(r.Seq()) != "ACGT" {
		t.Errorf("Seq = %q", r.Seq())
	}
}

func TestNewSequenceReaderMissingFile(t *testing.T) {
	if _, err := NewSequenceReader("/nonexistent/path.fasta"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
