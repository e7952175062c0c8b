package testsupport

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// WriteCapture writes a fixture capture file with the given contents and
// ensures parent directories exist.
func WriteCapture(t testing.TB, path, contents string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteCaptureAt writes a fixture capture file and sets its modification time.
func WriteCaptureAt(t testing.TB, path, contents string, modTime time.Time) string {
	t.Helper()

	WriteCapture(t, path, contents)
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	return path
}
