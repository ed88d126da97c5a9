package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile(\"\"): %v", err)
	}
	if cfg != Default() {
		t.Errorf("LoadFile(\"\") = %+v, want %+v", cfg, Default())
	}
}

func TestLoadFileNonexistentPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg != Default() {
		t.Errorf("got %+v, want defaults %+v", cfg, Default())
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.yaml")
	if err := os.WriteFile(path, []byte("tile_side: 512\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TileSide != 512 {
		t.Errorf("TileSide = %d, want 512", cfg.TileSide)
	}
	if cfg.Concurrency != Default().Concurrency {
		t.Errorf("Concurrency should keep its default when unset in the file, got %d", cfg.Concurrency)
	}
}
