package runner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOrganizeFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}

	moved, err := organizeFile(path, "explicit")
	if err != nil {
		t.Fatalf("organizeFile: %v", err)
	}
	want := filepath.Join(dir, "explicit", "a.jpg")
	if moved != want {
		t.Fatalf("moved to %q, want %q", moved, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file still present")
	}

	// A second pass must not nest explicit/explicit.
	again, err := organizeFile(moved, "explicit")
	if err != nil {
		t.Fatalf("organizeFile on sorted file: %v", err)
	}
	if again != moved {
		t.Errorf("re-organize moved file to %q", again)
	}
	if _, err := os.Stat(filepath.Join(dir, "explicit", "explicit")); !os.IsNotExist(err) {
		t.Error("nested rating folder created")
	}
}

func TestOrganizeFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := organizeFile(filepath.Join(t.TempDir(), "nope.jpg"), "general"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
