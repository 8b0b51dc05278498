package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fenwick-bio/ibfbuild/model"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	hashes := map[uint64]struct{}{1: {}, 2: {}, 18446744073709551615: {}, 0: {}}

	if err := Store(dir, "targetA", hashes); err != nil {
		t.Fatal(err)
	}

	got, err := Load(dir, "targetA")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(hashes) {
		t.Fatalf("expected %d hashes, got %d", len(hashes), len(got))
	}
	seen := make(map[uint64]bool)
	for _, h := range got {
		seen[h] = true
	}
	for h := range hashes {
		if !seen[h] {
			t.Errorf("hash %d missing from load result", h)
		}
	}
}

func TestStoreAppendsAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	if err := Store(dir, "t", map[uint64]struct{}{1: {}}); err != nil {
		t.Fatal(err)
	}
	if err := Store(dir, "t", map[uint64]struct{}{2: {}}); err != nil {
		t.Fatal(err)
	}
	got, err := Load(dir, "t")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 hashes after two appends, got %d", len(got))
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir, "nope"); err == nil {
		t.Fatal("expected error loading nonexistent scratch file")
	}
}

func TestDeleteRemovesKnownTargetsOnly(t *testing.T) {
	dir := t.TempDir()
	if err := Store(dir, "a", map[uint64]struct{}{1: {}}); err != nil {
		t.Fatal(err)
	}
	if err := Store(dir, "b", map[uint64]struct{}{2: {}}); err != nil {
		t.Fatal(err)
	}

	hc := model.HashesCount{"a": 1}
	if err := Delete(dir, hc); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "a.min")); !os.IsNotExist(err) {
		t.Error("expected a.min to be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "b.min")); err != nil {
		t.Error("expected b.min to remain untouched")
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	hc := model.HashesCount{"ghost": 0}
	if err := Delete(dir, hc); err != nil {
		t.Fatalf("expected no error for missing scratch file, got %v", err)
	}
}
