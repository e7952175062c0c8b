package organizer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gamesync/internal/media"
	"gamesync/internal/testsupport"
)

func title(s string) *string { return &s }

func TestPlace(t *testing.T) {
	outputDir := t.TempDir()
	staged := testsupport.WriteCapture(t, filepath.Join(t.TempDir(), "20240301120000_1.jpg"), "tagged")

	item := &media.MediaItem{
		Platform:   media.PlatformSteam,
		Kind:       media.KindScreenshot,
		TitleHint:  title("Portal 2"),
		StagedPath: staged,
	}

	final, err := New(outputDir, nil).Place(item)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	want := filepath.Join(outputDir, "Portal 2", "20240301120000_1.jpg")
	if final != want {
		t.Fatalf("final path = %s, want %s", final, want)
	}
	if item.StagedPath != final {
		t.Fatalf("item path not updated: %s", item.StagedPath)
	}
	data, readErr := os.ReadFile(final)
	if readErr != nil {
		t.Fatalf("read final file: %v", readErr)
	}
	if string(data) != "tagged" {
		t.Fatalf("content mangled: %q", data)
	}
	if _, statErr := os.Stat(staged); !os.IsNotExist(statErr) {
		t.Fatal("staged copy should have been moved, not copied")
	}
}

func TestPlaceUntitledGoesToUnknown(t *testing.T) {
	outputDir := t.TempDir()
	staged := testsupport.WriteCapture(t, filepath.Join(t.TempDir(), "shot.jpg"), "tagged")

	item := &media.MediaItem{Platform: media.PlatformPS5, StagedPath: staged}
	final, err := New(outputDir, nil).Place(item)
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if filepath.Base(filepath.Dir(final)) != UnknownFolder {
		t.Fatalf("untitled capture not in %s: %s", UnknownFolder, final)
	}
}

func TestPlaceCollisionSuffix(t *testing.T) {
	outputDir := t.TempDir()
	org := New(outputDir, nil)

	first := &media.MediaItem{
		TitleHint:  title("Hades"),
		StagedPath: testsupport.WriteCapture(t, filepath.Join(t.TempDir(), "shot.jpg"), "one"),
	}
	if _, err := org.Place(first); err != nil {
		t.Fatalf("first Place: %v", err)
	}

	second := &media.MediaItem{
		TitleHint:  title("Hades"),
		StagedPath: testsupport.WriteCapture(t, filepath.Join(t.TempDir(), "shot.jpg"), "two"),
	}
	final, err := org.Place(second)
	if err != nil {
		t.Fatalf("second Place: %v", err)
	}
	if filepath.Base(final) != "shot (1).jpg" {
		t.Fatalf("expected numbered sibling, got %s", filepath.Base(final))
	}

	one, _ := os.ReadFile(filepath.Join(outputDir, "Hades", "shot.jpg"))
	two, _ := os.ReadFile(final)
	if string(one) != "one" || string(two) != "two" {
		t.Fatalf("collision overwrote content: %q / %q", one, two)
	}
}

func TestPlaceRequiresStagedFile(t *testing.T) {
	if _, err := New(t.TempDir(), nil).Place(&media.MediaItem{}); err == nil {
		t.Fatal("expected error for missing staged file")
	}
}

func TestFolderName(t *testing.T) {
	cases := map[string]string{
		"Portal 2":            "Portal 2",
		"elden ring":          "Elden Ring",
		"Ratchet & Clank: Rift Apart": "Ratchet & Clank - Rift Apart",
		"What/If":             "What-If",
		"   ":                 UnknownFolder,
		"":                    UnknownFolder,
		"DOOM Eternal":        "DOOM Eternal",
	}
	for input, want := range cases {
		if got := FolderName(input); got != want {
			t.Errorf("FolderName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPlaceConcurrentSameName(t *testing.T) {
	outputDir := t.TempDir()
	org := New(outputDir, nil)

	const n = 4
	items := make([]*media.MediaItem, n)
	for i := range items {
		staged := testsupport.WriteCapture(t,
			filepath.Join(t.TempDir(), "clip.mp4"), fmt.Sprintf("take %d", i))
		items[i] = &media.MediaItem{
			Platform:   media.PlatformSteam,
			Kind:       media.KindClip,
			TitleHint:  title("Hades"),
			StagedPath: staged,
		}
	}

	finals := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			finals[i], errs[i] = org.Place(items[i])
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Place %d: %v", i, errs[i])
		}
		if seen[finals[i]] {
			t.Fatalf("destination reused: %s", finals[i])
		}
		seen[finals[i]] = true
	}

	entries, err := os.ReadDir(filepath.Join(outputDir, "Hades"))
	if err != nil {
		t.Fatalf("read library folder: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d files, found %d", n, len(entries))
	}
}
