package hashextract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fenwick-bio/ibfbuild/manifest"
	"github.com/fenwick-bio/ibfbuild/minimiser"
	"github.com/fenwick-bio/ibfbuild/model"
	"github.com/fenwick-bio/ibfbuild/scratch"
)

func writeFasta(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPopulatesHashesCountAndScratch(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()

	f := writeFasta(t, dir, "a.fasta", ">seq1\nACGTACGTACGTACGTACGTACGTACGTACGT\n")

	items := []manifest.InputFileMap{
		{Target: "A", Files: []string{f}},
	}
	hashesCount := model.HashesCount{"A": 0}
	hasher := minimiser.NewRollingHasher(8, 4, 1)

	stats, err := Run(items, hashesCount, hasher, 0, scratchDir, 2, true)
	if err != nil {
		t.Fatal(err)
	}

	if stats.LengthBP != 32 {
		t.Errorf("LengthBP = %d, want 32", stats.LengthBP)
	}
	if hashesCount["A"] == 0 {
		t.Error("expected a non-zero hash count for target A")
	}

	loaded, err := scratch.Load(scratchDir, "A")
	if err != nil {
		t.Fatal(err)
	}
	if uint64(len(loaded)) != hashesCount["A"] {
		t.Errorf("scratch file has %d hashes, hashesCount recorded %d", len(loaded), hashesCount["A"])
	}
}

func TestRunSkipsSequencesShorterThanMinLength(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()

	f := writeFasta(t, dir, "a.fasta", ">short\nACGT\n>long\nACGTACGTACGTACGTACGTACGT\n")

	items := []manifest.InputFileMap{{Target: "A", Files: []string{f}}}
	hashesCount := model.HashesCount{"A": 0}
	hasher := minimiser.NewRollingHasher(8, 4, 1)

	stats, err := Run(items, hashesCount, hasher, 10, scratchDir, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SkippedSequences != 1 {
		t.Errorf("SkippedSequences = %d, want 1", stats.SkippedSequences)
	}
}

func TestRunSkipsUnreadableFileWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()

	good := writeFasta(t, dir, "good.fasta", ">seq1\nACGTACGTACGTACGTACGTACGT\n")

	items := []manifest.InputFileMap{
		{Target: "A", Files: []string{filepath.Join(dir, "missing.fasta"), good}},
	}
	hashesCount := model.HashesCount{"A": 0}
	hasher := minimiser.NewRollingHasher(8, 4, 1)

	stats, err := Run(items, hashesCount, hasher, 0, scratchDir, 1, true)
	if err != nil {
		t.Fatal(err)
	}
	if stats.LengthBP != 24 {
		t.Errorf("LengthBP = %d, want 24 (the unreadable file should be skipped, not fatal)", stats.LengthBP)
	}
}

// floodHasher emits a fixed number of distinct hashes per sequence,
// regardless of content, to exercise the per-target cap without
// generating megabases of input.
type floodHasher struct {
	perSeq int
	next   uint64
}

func (f *floodHasher) Stream(seq []byte) []uint64 {
	out := make([]uint64, f.perSeq)
	for i := range out {
		out[i] = f.next
		f.next++
	}
	return out
}

func TestRunCapsHashesPerTarget(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()

	a := writeFasta(t, dir, "a.fasta", ">seq1\nACGTACGT\n")
	b := writeFasta(t, dir, "b.fasta", ">seq1\nACGTACGT\n")

	items := []manifest.InputFileMap{
		{Target: "A", Files: []string{a, b}},
	}
	hashesCount := model.HashesCount{"A": 0}
	// One sequence already overshoots the cap, so the second file must
	// never be reached.
	hasher := &floodHasher{perSeq: MaxHashesPerTarget + 500_000}

	_, err := Run(items, hashesCount, hasher, 0, scratchDir, 1, true)
	if err != nil {
		t.Fatal(err)
	}

	if hashesCount["A"] != MaxHashesPerTarget {
		t.Errorf("hashesCount[A] = %d, want exactly %d", hashesCount["A"], MaxHashesPerTarget)
	}
	loaded, err := scratch.Load(scratchDir, "A")
	if err != nil {
		t.Fatal(err)
	}
	if uint64(len(loaded)) != MaxHashesPerTarget {
		t.Errorf("scratch file holds %d hashes, want %d", len(loaded), MaxHashesPerTarget)
	}
}

func TestRunMultipleTargetsEachGetOwnScratchFile(t *testing.T) {
	dir := t.TempDir()
	scratchDir := t.TempDir()

	a := writeFasta(t, dir, "a.fasta", ">seq1\nACGTACGTACGTACGTACGTACGT\n")
	b := writeFasta(t, dir, "b.fasta", ">seq1\nTTTTGGGGCCCCAAAATTTTGGGG\n")

	items := []manifest.InputFileMap{
		{Target: "A", Files: []string{a}},
		{Target: "B", Files: []string{b}},
	}
	hashesCount := model.HashesCount{"A": 0, "B": 0}
	hasher := minimiser.NewRollingHasher(8, 4, 1)

	_, err := Run(items, hashesCount, hasher, 0, scratchDir, 4, true)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := scratch.Load(scratchDir, "A"); err != nil {
		t.Errorf("target A scratch file missing: %v", err)
	}
	if _, err := scratch.Load(scratchDir, "B"); err != nil {
		t.Errorf("target B scratch file missing: %v", err)
	}
}
