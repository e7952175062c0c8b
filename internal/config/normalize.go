package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeImmich(); err != nil {
		return err
	}
	if err := c.normalizeTools(); err != nil {
		return err
	}
	if err := c.normalizePlatforms(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) != "" {
		if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
			return fmt.Errorf("paths.output_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeImmich() error {
	c.Immich.ServerURL = strings.TrimSpace(c.Immich.ServerURL)
	if c.Immich.ServerURL == "" {
		if value, ok := os.LookupEnv("IMMICH_SERVER_URL"); ok {
			c.Immich.ServerURL = strings.TrimSpace(value)
		}
	}
	c.Immich.ServerURL = strings.TrimRight(c.Immich.ServerURL, "/")
	c.Immich.APIKey = strings.TrimSpace(c.Immich.APIKey)
	if c.Immich.APIKey == "" {
		if value, ok := os.LookupEnv("IMMICH_API_KEY"); ok {
			c.Immich.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Immich.RequestTimeout <= 0 {
		c.Immich.RequestTimeout = defaultRequestTimeout
	}
	c.Immich.Visibility = strings.ToLower(strings.TrimSpace(c.Immich.Visibility))
	if c.Immich.Visibility == "" {
		c.Immich.Visibility = defaultVisibility
	}
	return nil
}

func (c *Config) normalizeTools() error {
	var err error
	c.Tools.Exiftool = strings.TrimSpace(c.Tools.Exiftool)
	if c.Tools.Exiftool == "" {
		// EXIFTOOL_PATH names the directory holding the binary.
		if dir, ok := os.LookupEnv("EXIFTOOL_PATH"); ok && strings.TrimSpace(dir) != "" {
			c.Tools.Exiftool = strings.TrimSpace(dir) + string(os.PathSeparator) + "exiftool"
		}
	}
	if c.Tools.Exiftool != "" && strings.ContainsAny(c.Tools.Exiftool, "/\\~") {
		if c.Tools.Exiftool, err = expandPath(c.Tools.Exiftool); err != nil {
			return fmt.Errorf("tools.exiftool: %w", err)
		}
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg != "" && strings.ContainsAny(c.Tools.FFmpeg, "/\\~") {
		if c.Tools.FFmpeg, err = expandPath(c.Tools.FFmpeg); err != nil {
			return fmt.Errorf("tools.ffmpeg: %w", err)
		}
	}
	if c.Tools.EmbedTimeout <= 0 {
		c.Tools.EmbedTimeout = defaultEmbedTimeout
	}
	if c.Tools.RemuxTimeout <= 0 {
		c.Tools.RemuxTimeout = defaultRemuxTimeout
	}
	return nil
}

func (c *Config) normalizePlatforms() error {
	var err error
	c.Steam.Root = strings.TrimSpace(c.Steam.Root)
	if c.Steam.Root != "" {
		if c.Steam.Root, err = expandPath(c.Steam.Root); err != nil {
			return fmt.Errorf("steam.root: %w", err)
		}
	}
	c.PS5.SourceDir = strings.TrimSpace(c.PS5.SourceDir)
	if c.PS5.SourceDir == "" {
		if value, ok := os.LookupEnv("PS5_SOURCE_PATH"); ok {
			c.PS5.SourceDir = strings.TrimSpace(value)
		}
	}
	if c.PS5.SourceDir != "" {
		if c.PS5.SourceDir, err = expandPath(c.PS5.SourceDir); err != nil {
			return fmt.Errorf("ps5.source_dir: %w", err)
		}
	}
	c.Switch.SourceDir = strings.TrimSpace(c.Switch.SourceDir)
	if c.Switch.SourceDir == "" {
		if value, ok := os.LookupEnv("SWITCH2_SOURCE_PATH"); ok {
			c.Switch.SourceDir = strings.TrimSpace(value)
		}
	}
	if c.Switch.SourceDir != "" {
		if c.Switch.SourceDir, err = expandPath(c.Switch.SourceDir); err != nil {
			return fmt.Errorf("switch.source_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeSync() {
	if c.Sync.Workers <= 0 {
		c.Sync.Workers = defaultWorkers
	}
	if c.Sync.RetryBackoff <= 0 {
		c.Sync.RetryBackoff = defaultRetryBackoff
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
