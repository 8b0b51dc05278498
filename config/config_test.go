package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		InputFile:  "manifest.tsv",
		OutputFile: "out.ibf",
		KmerSize:   19,
		WindowSize: 31,
		MaxFP:      0.05,
	}
}

func TestValidateAcceptsMinimalMaxFPConfig(t *testing.T) {
	c := validConfig()
	if !c.Validate() {
		t.Fatal("expected a minimal max_fp config to validate")
	}
	if c.Mode != ModeAvg {
		t.Errorf("Mode defaulted to %q, want %q", c.Mode, ModeAvg)
	}
	if c.Threads < 1 {
		t.Errorf("Threads = %d, want >= 1 after defaulting", c.Threads)
	}
	if c.MaxHashFunctions != 5 {
		t.Errorf("MaxHashFunctions defaulted to %d, want 5", c.MaxHashFunctions)
	}
}

func TestValidateRejectsBothMaxFPAndFilterSize(t *testing.T) {
	c := validConfig()
	c.FilterSize = 64
	if c.Validate() {
		t.Fatal("expected validation to fail when both max_fp and filter_size are set")
	}
}

func TestValidateRejectsNeitherMaxFPNorFilterSize(t *testing.T) {
	c := validConfig()
	c.MaxFP = 0
	if c.Validate() {
		t.Fatal("expected validation to fail when neither max_fp nor filter_size is set")
	}
}

func TestValidateAcceptsFilterSizeAlone(t *testing.T) {
	c := validConfig()
	c.MaxFP = 0
	c.FilterSize = 64
	if !c.Validate() {
		t.Fatal("expected a filter_size config to validate")
	}
}

func TestValidateRejectsWindowSmallerThanKmer(t *testing.T) {
	c := validConfig()
	c.WindowSize = 10
	c.KmerSize = 19
	if c.Validate() {
		t.Fatal("expected validation to fail when window_size < kmer_size")
	}
}

func TestValidateRejectsUnknownMode(t *testing.T) {
	c := validConfig()
	c.Mode = "bogus"
	if c.Validate() {
		t.Fatal("expected validation to fail for an unrecognised mode")
	}
}

func TestValidateRejectsMaxHashFunctionsOutOfRange(t *testing.T) {
	c := validConfig()
	c.MaxHashFunctions = 6
	if c.Validate() {
		t.Fatal("expected validation to fail for max_hash_functions > 5")
	}
}

func TestValidateRejectsMissingInputOrOutput(t *testing.T) {
	c := validConfig()
	c.InputFile = ""
	if c.Validate() {
		t.Fatal("expected validation to fail with no input_file")
	}
}

func TestReadConfigDecodesJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")

	want := validConfig()
	want.Mode = ModeSmallest
	buf, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	got := ReadConfig(path)
	if got.InputFile != want.InputFile || got.Mode != want.Mode {
		t.Errorf("ReadConfig mismatch: got %+v, want %+v", got, want)
	}
}

func TestReadConfigPanicsOnMissingFile(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected ReadConfig to panic on a missing file")
		}
	}()
	ReadConfig(filepath.Join(t.TempDir(), "missing.json"))
}
