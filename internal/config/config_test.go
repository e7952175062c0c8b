package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamesync/internal/config"
)

func TestLoadDefaultsUseEnvCredentialsAndExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("IMMICH_SERVER_URL", "https://photos.example.net/")
	t.Setenv("IMMICH_API_KEY", "  env-key  ")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "gamesync", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "gamesync") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Paths.OutputDir != "" {
		t.Fatalf("expected no library dir by default, got %q", cfg.Paths.OutputDir)
	}
	if cfg.Immich.ServerURL != "https://photos.example.net" {
		t.Fatalf("expected env server url with trailing slash trimmed, got %q", cfg.Immich.ServerURL)
	}
	if cfg.Immich.APIKey != "env-key" {
		t.Fatalf("expected trimmed env api key, got %q", cfg.Immich.APIKey)
	}
	if cfg.Immich.Visibility != "timeline" {
		t.Fatalf("unexpected default visibility: %q", cfg.Immich.Visibility)
	}
	if cfg.Sync.Workers != config.Default().Sync.Workers {
		t.Fatalf("unexpected worker default: %d", cfg.Sync.Workers)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.LogDir, cfg.Paths.CacheDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadParsesFileAndExpandsTilde(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[paths]
output_dir = "~/game-media"

[immich]
server_url = "https://photos.example.net"
api_key = "file-key"
visibility = "HIDDEN"

[tools]
exiftool = "~/bin/exiftool"

[sync]
workers = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file at %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "game-media") {
		t.Fatalf("tilde not expanded: %q", cfg.Paths.OutputDir)
	}
	if cfg.Tools.Exiftool != filepath.Join(tempHome, "bin", "exiftool") {
		t.Fatalf("tool path not expanded: %q", cfg.Tools.Exiftool)
	}
	if cfg.Immich.Visibility != "hidden" {
		t.Fatalf("visibility not lowercased: %q", cfg.Immich.Visibility)
	}
	if cfg.Sync.Workers != 8 {
		t.Fatalf("unexpected workers: %d", cfg.Sync.Workers)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cases := map[string]string{
		"bad visibility": "[immich]\nvisibility = \"everyone\"\n",
		"bad url":        "[immich]\nserver_url = \"not a url\"\n",
		"zero backoff":   "[sync]\nretry_backoff = -1\n",
		"too many workers": `
[sync]
workers = 999
`,
	}
	for name, content := range cases {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("%s: write config: %v", name, err)
		}
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateUploadNamesMissingSettings(t *testing.T) {
	cfg := config.Default()
	err := cfg.ValidateUpload()
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "immich.server_url") || !strings.Contains(err.Error(), "immich.api_key") {
		t.Fatalf("error should name both settings: %v", err)
	}

	cfg.Immich.ServerURL = "https://photos.example.net"
	cfg.Immich.APIKey = "key"
	if err := cfg.ValidateUpload(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	target := filepath.Join(t.TempDir(), "config.toml")
	written, err := config.CreateSample(target)
	if err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if written != target {
		t.Fatalf("unexpected path: %q", written)
	}

	if _, err := config.CreateSample(target); err == nil {
		t.Fatal("expected error for existing file")
	}

	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
}

func TestBinaryDefaults(t *testing.T) {
	cfg := config.Default()
	if cfg.ExiftoolBinary() != "exiftool" {
		t.Fatalf("unexpected exiftool default: %q", cfg.ExiftoolBinary())
	}
	if cfg.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg default: %q", cfg.FFmpegBinary())
	}

	cfg.Tools.Exiftool = "/opt/exiftool/exiftool"
	if cfg.ExiftoolBinary() != "/opt/exiftool/exiftool" {
		t.Fatalf("override ignored: %q", cfg.ExiftoolBinary())
	}

	cfg.Paths.CacheDir = "/var/cache/gamesync"
	if cfg.LedgerPath() != "/var/cache/gamesync/ledger.db" {
		t.Fatalf("unexpected ledger path: %q", cfg.LedgerPath())
	}
	if cfg.TitleCachePath() != "/var/cache/gamesync/steam_titles.json" {
		t.Fatalf("unexpected title cache path: %q", cfg.TitleCachePath())
	}
}
