package scanner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gamesync/internal/media"
	"gamesync/internal/services"
	"gamesync/internal/testsupport"
)

func TestPS5Scan(t *testing.T) {
	source := t.TempDir()
	shot := testsupport.WriteCapture(t,
		filepath.Join(source, "PS5", "CREATE", "Screenshots", "ELDEN RING_20240301120000.jpg"), "jpeg")
	clip := testsupport.WriteCapture(t,
		filepath.Join(source, "PS5", "CREATE", "Video Clips", "ELDEN RING_20240301121530.webm"), "webm")
	testsupport.WriteCapture(t, filepath.Join(source, "PS5", "CREATE", "notes.txt"), "ignored")

	items, err := NewPS5(source).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	byPath := make(map[string]media.RawItem, len(items))
	for _, item := range items {
		if item.Platform != media.PlatformPS5 {
			t.Fatalf("unexpected platform: %s", item.Platform)
		}
		if item.Title != nil {
			t.Fatal("console filenames carry no title")
		}
		byPath[item.SourcePath] = item
	}

	shotItem := byPath[shot]
	if shotItem.Kind != media.KindScreenshot {
		t.Fatalf("unexpected kind for screenshot: %s", shotItem.Kind)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	if !shotItem.CapturedAt.Equal(want) {
		t.Fatalf("unexpected screenshot time: %v", shotItem.CapturedAt)
	}

	clipItem := byPath[clip]
	if clipItem.Kind != media.KindClip {
		t.Fatalf("unexpected kind for clip: %s", clipItem.Kind)
	}
}

func TestPS5ScanTimestamplessFile(t *testing.T) {
	source := t.TempDir()
	testsupport.WriteCapture(t, filepath.Join(source, "random.jpg"), "jpeg")

	items, err := NewPS5(source).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if !items[0].CapturedAt.IsZero() {
		t.Fatalf("expected zero capture time for timestampless file, got %v", items[0].CapturedAt)
	}
}

func TestPS5ScanMissingSource(t *testing.T) {
	_, err := NewPS5(filepath.Join(t.TempDir(), "absent")).Scan(context.Background())
	if !errors.Is(err, services.ErrScan) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestPS5ScanUnconfigured(t *testing.T) {
	_, err := NewPS5("").Scan(context.Background())
	if !errors.Is(err, services.ErrScan) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestSwitch2Scan(t *testing.T) {
	source := t.TempDir()
	testsupport.WriteCapture(t,
		filepath.Join(source, "Mario Kart World - Nintendo Switch 2 Edition", "20250715093000_c.jpg"), "jpeg")
	testsupport.WriteCapture(t,
		filepath.Join(source, "Mario Kart World - Nintendo Switch 2 Edition", "20250715094500_c.mp4"), "mp4")
	testsupport.WriteCapture(t, filepath.Join(source, ".hidden", "x.jpg"), "ignored")
	testsupport.WriteCapture(t, filepath.Join(source, "loose.jpg"), "ignored")

	items, err := NewSwitch2(source).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	for _, item := range items {
		if item.Platform != media.PlatformSwitch2 {
			t.Fatalf("unexpected platform: %s", item.Platform)
		}
		if item.Title == nil || *item.Title != "Mario Kart World" {
			t.Fatalf("expected cleaned folder title, got %v", item.Title)
		}
		if item.CapturedAt.IsZero() {
			t.Fatalf("expected filename timestamp for %s", item.SourcePath)
		}
	}
}

func TestSwitch2ScanMissingSource(t *testing.T) {
	_, err := NewSwitch2(filepath.Join(t.TempDir(), "absent")).Scan(context.Background())
	if !errors.Is(err, services.ErrScan) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestCleanSwitchTitle(t *testing.T) {
	cases := map[string]string{
		"Mario Kart World - Nintendo Switch 2 Edition":        "Mario Kart World",
		"Mario Kart World – Nintendo Switch 2 Edition":   "Mario Kart World",
		"Metroid Prime 4 - Nintendo Switch 2":                 "Metroid Prime 4",
		"Zelda - Switch 2 Edition":                            "Zelda",
		"Plain Title":                                         "Plain Title",
		"  Spaced  ":                                          "Spaced",
	}
	for input, want := range cases {
		if got := CleanSwitchTitle(input); got != want {
			t.Errorf("CleanSwitchTitle(%q) = %q, want %q", input, got, want)
		}
	}
}
