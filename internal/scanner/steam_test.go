package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gamesync/internal/media"
	"gamesync/internal/services"
	"gamesync/internal/testsupport"
)

const loginUsersVDF = `"users"
{
	"76561198000000001"
	{
		"AccountName"		"deckuser"
		"PersonaName"		"Deck User"
		"MostRecent"		"1"
	}
	"76561198000000002"
	{
		"AccountName"		"other"
		"MostRecent"		"0"
	}
}
`

// accountID is the lower 32 bits of the MostRecent SteamID64 above.
const accountID = "39734273"

func writeSteamRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testsupport.WriteCapture(t, filepath.Join(root, "config", "loginusers.vdf"), loginUsersVDF)
	return root
}

func writeScreenshotIndex(t *testing.T, root string, body string) {
	t.Helper()
	testsupport.WriteCapture(t,
		filepath.Join(root, "userdata", accountID, "760", "screenshots.vdf"), body)
}

func TestSteamScreenshotsScan(t *testing.T) {
	root := writeSteamRoot(t)

	shotRel := filepath.Join("620", "screenshots", "20240301120000_1.jpg")
	shotPath := filepath.Join(root, "userdata", accountID, "760", "remote", shotRel)
	testsupport.WriteCapture(t, shotPath, "jpeg-bytes")

	writeScreenshotIndex(t, root, fmt.Sprintf(`"screenshots"
{
	"620"
	{
		"0"
		{
			"type"		"1"
			"filename"		"%s"
			"creation"		"1709294400"
		}
		"1"
		{
			"type"		"1"
			"filename"		"620/screenshots/gone.jpg"
			"creation"		"1709294500"
		}
	}
}
`, "620/screenshots/20240301120000_1.jpg"))

	scanner := NewSteamScreenshots(root)
	if scanner.Platform() != media.PlatformSteam {
		t.Fatalf("unexpected platform: %s", scanner.Platform())
	}

	items, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item (missing file dropped), got %d", len(items))
	}

	item := items[0]
	if item.SourcePath != shotPath {
		t.Fatalf("unexpected source path: %s", item.SourcePath)
	}
	if item.Kind != media.KindScreenshot {
		t.Fatalf("unexpected kind: %s", item.Kind)
	}
	if item.SteamAppID != 620 {
		t.Fatalf("unexpected app id: %d", item.SteamAppID)
	}
	if !item.CapturedAt.Equal(time.Unix(1709294400, 0)) {
		t.Fatalf("unexpected captured time: %v", item.CapturedAt)
	}
	if item.Title != nil {
		t.Fatal("scanner should not resolve titles")
	}
}

func TestSteamScreenshotsMissingInstall(t *testing.T) {
	scanner := NewSteamScreenshots(filepath.Join(t.TempDir(), "no-steam-here"))
	items, err := scanner.Scan(context.Background())
	if !errors.Is(err, services.ErrPlatformMissing) {
		t.Fatalf("missing install should report platform-missing, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestSteamScreenshotsMissingIndex(t *testing.T) {
	root := writeSteamRoot(t)
	items, err := NewSteamScreenshots(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("missing index should scan clean: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestSteamScreenshotsCorruptLogin(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteCapture(t, filepath.Join(root, "config", "loginusers.vdf"), `"users"
{
	"76561198000000001"
	{
		"MostRecent"		"0"
	}
}
`)
	_, err := NewSteamScreenshots(root).Scan(context.Background())
	if !errors.Is(err, services.ErrScan) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestSteamClipsScan(t *testing.T) {
	root := writeSteamRoot(t)
	clipsDir := filepath.Join(root, "userdata", accountID, "gamerecordings", "clips")

	clipName := "clip_1086940_20240315_183000"
	manifest := filepath.Join(clipsDir, clipName, "video", "bg_1086940_main", "session.mpd")
	testsupport.WriteCapture(t, manifest, "<MPD/>")

	// Folder without a manifest is still being written.
	if err := os.MkdirAll(filepath.Join(clipsDir, "clip_620_20240316_090000", "video"), 0o755); err != nil {
		t.Fatalf("mkdir partial clip: %v", err)
	}
	// Non-clip folder is ignored.
	if err := os.MkdirAll(filepath.Join(clipsDir, "thumbnails"), 0o755); err != nil {
		t.Fatalf("mkdir extra folder: %v", err)
	}

	items, err := NewSteamClips(root).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 clip, got %d", len(items))
	}

	item := items[0]
	if item.Kind != media.KindClip {
		t.Fatalf("unexpected kind: %s", item.Kind)
	}
	if item.SteamAppID != 1086940 {
		t.Fatalf("unexpected app id: %d", item.SteamAppID)
	}
	if item.SourcePath != manifest {
		t.Fatalf("unexpected manifest path: %s", item.SourcePath)
	}
	if item.ClipDir != filepath.Join(clipsDir, clipName) {
		t.Fatalf("unexpected clip dir: %s", item.ClipDir)
	}
	want := time.Date(2024, 3, 15, 18, 30, 0, 0, time.Local)
	if !item.CapturedAt.Equal(want) {
		t.Fatalf("unexpected captured time: %v", item.CapturedAt)
	}
}

func TestSteamClipsMissingInstall(t *testing.T) {
	items, err := NewSteamClips(filepath.Join(t.TempDir(), "absent")).Scan(context.Background())
	if !errors.Is(err, services.ErrPlatformMissing) {
		t.Fatalf("missing install should report platform-missing, got %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
