package ibf

import "testing"

func TestInsertThenContains(t *testing.T) {
	f := New(128, 8192, 4)

	f.Insert(0xdeadbeefcafef00d, 5)

	if !f.Contains(0xdeadbeefcafef00d, 5) {
		t.Error("expected inserted hash to be found in its bin")
	}
}

func TestContainsFalseForUntouchedBin(t *testing.T) {
	f := New(128, 8192, 4)
	f.Insert(0x1234, 5)

	if f.Contains(0x1234, 6) {
		t.Error("a hash inserted into bin 5 should not (reliably) report present in bin 6")
	}
}

func TestContainsFalseBeforeInsert(t *testing.T) {
	f := New(64, 4096, 3)
	if f.Contains(0xabc, 0) {
		t.Error("expected Contains to be false on an empty filter")
	}
}

func TestPhysicalBinsRoundsUpToMultipleOf64(t *testing.T) {
	f := New(70, 1024, 2)
	if f.PhysicalBins() != 128 {
		t.Errorf("PhysicalBins = %d, want 128", f.PhysicalBins())
	}
}

func TestDistinctBinsDoNotCollideForSameHash(t *testing.T) {
	f := New(64, 8192, 5)
	f.Insert(42, 0)

	for bin := uint64(1); bin < 64; bin++ {
		if f.Contains(42, bin) {
			t.Errorf("hash inserted only in bin 0 unexpectedly found in bin %d", bin)
		}
	}
}
