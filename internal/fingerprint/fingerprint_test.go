package fingerprint

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shot.jpg", "jpeg-bytes")

	first, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	second, err := File(path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if first != second {
		t.Fatalf("fingerprint changed between calls: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestFileDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jpg", "capture one")
	b := writeFile(t, dir, "b.jpg", "capture two")

	hashA, err := File(a)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	hashB, err := File(b)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if hashA == hashB {
		t.Fatal("different contents produced identical fingerprints")
	}
}

func TestFileIgnoresFilename(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "20240301120000.jpg", "same bytes")
	b := writeFile(t, dir, "copy-of-shot.jpg", "same bytes")

	hashA, err := File(a)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	hashB, err := File(b)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if hashA != hashB {
		t.Fatal("identical contents under different names produced different fingerprints")
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSHA1File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "clip.mp4", "hello")

	sum, err := SHA1File(path)
	if err != nil {
		t.Fatalf("SHA1File: %v", err)
	}
	if sum != "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d" {
		t.Fatalf("unexpected sha1: %s", sum)
	}
}
