package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"b.php",
		"a.php",
		"notes.txt",
		"src/Widget.php",
		"vendor/lib/Lib.php",
		".cache/Old.php",
	} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<?php\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := FindFiles(dir, ".php")
	if err != nil {
		t.Fatalf("FindFiles failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "a.php"),
		filepath.Join(dir, "b.php"),
		filepath.Join(dir, "src", "Widget.php"),
	}
	if len(files) != len(expected) {
		t.Fatalf("expected %d files, got %d: %v", len(expected), len(files), files)
	}
	for i := range expected {
		if files[i] != expected[i] {
			t.Errorf("file %d: expected %s, got %s", i, expected[i], files[i])
		}
	}
}

func TestFindFiles_MissingDir(t *testing.T) {
	if _, err := FindFiles(filepath.Join(t.TempDir(), "missing"), ".php"); err == nil {
		t.Error("expected error for missing directory")
	}
}
