package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir == "" {
		t.Fatal("cacheDir() returned empty string")
	}

	base, err := os.UserCacheDir()
	if err != nil {
		t.Fatalf("UserCacheDir() error: %v", err)
	}
	if want := filepath.Join(base, "dxfgeo"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}
