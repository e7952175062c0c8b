package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	CacheDir   string `toml:"cache_dir"`
}

// Immich contains configuration for the remote media server.
type Immich struct {
	ServerURL      string `toml:"server_url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
	Visibility     string `toml:"visibility"`
	Favorite       bool   `toml:"favorite"`
}

// Tools contains configuration for the external tagging binaries.
type Tools struct {
	Exiftool     string `toml:"exiftool"`
	FFmpeg       string `toml:"ffmpeg"`
	EmbedTimeout int    `toml:"embed_timeout"`
	RemuxTimeout int    `toml:"remux_timeout"`
}

// Steam contains configuration for the Steam client platform.
type Steam struct {
	// Root is the Steam install directory holding userdata. Empty means
	// auto-detect the per-OS default location.
	Root string `toml:"root"`
}

// PS5 contains configuration for the PlayStation 5 platform.
type PS5 struct {
	SourceDir string `toml:"source_dir"`
}

// Switch contains configuration for the Nintendo Switch 2 platform.
type Switch struct {
	SourceDir string `toml:"source_dir"`
}

// Sync contains pipeline scheduling configuration.
type Sync struct {
	Workers      int `toml:"workers"`
	RetryBackoff int `toml:"retry_backoff"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for gamesync.
//
// Configuration sections by subsystem:
//   - Paths: output library, staging, logs, and caches
//   - Immich: remote media server URL and credential
//   - Tools: exiftool/ffmpeg locations and invocation timeouts
//   - Steam/PS5/Switch: per-platform source locations
//   - Sync: worker pool size and upload retry backoff
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Immich  Immich  `toml:"immich"`
	Tools   Tools   `toml:"tools"`
	Steam   Steam   `toml:"steam"`
	PS5     PS5     `toml:"ps5"`
	Switch  Switch  `toml:"switch"`
	Sync    Sync    `toml:"sync"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gamesync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("gamesync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a pipeline run needs. OutputDir
// is created on a best-effort basis so scan-only runs work when external
// storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// LedgerPath returns the location of the sync ledger database.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.CacheDir, "ledger.db")
}

// TitleCachePath returns the location of the game-title cache file.
func (c *Config) TitleCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "steam_titles.json")
}

// ExiftoolBinary returns the exiftool executable path or name.
func (c *Config) ExiftoolBinary() string {
	if strings.TrimSpace(c.Tools.Exiftool) != "" {
		return c.Tools.Exiftool
	}
	return "exiftool"
}

// FFmpegBinary returns the ffmpeg executable path or name.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Tools.FFmpeg) != "" {
		return c.Tools.FFmpeg
	}
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat config: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}
