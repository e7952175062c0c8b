package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var knownVisibilities = map[string]struct{}{
	"timeline": {},
	"hidden":   {},
	"archive":  {},
	"locked":   {},
}

// Validate ensures the configuration is usable for scan/embed runs. Immich
// credentials are checked separately (ValidateUpload) because they are only
// required when uploading.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateImmichShape(); err != nil {
		return err
	}
	return nil
}

// ValidateUpload ensures the remote server settings are present. Call before
// a run with uploads enabled.
func (c *Config) ValidateUpload() error {
	missing := make([]string, 0, 2)
	if c.Immich.ServerURL == "" {
		missing = append(missing, "immich.server_url (or IMMICH_SERVER_URL)")
	}
	if c.Immich.APIKey == "" {
		missing = append(missing, "immich.api_key (or IMMICH_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("upload requires %s; set them or pass --no-upload", strings.Join(missing, " and "))
	}
	return nil
}

func (c *Config) validateImmichShape() error {
	if c.Immich.ServerURL != "" {
		parsed, err := url.Parse(c.Immich.ServerURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("immich.server_url %q is not a valid URL", c.Immich.ServerURL)
		}
	}
	if _, ok := knownVisibilities[c.Immich.Visibility]; !ok {
		return fmt.Errorf("immich.visibility %q must be one of timeline, hidden, archive, locked", c.Immich.Visibility)
	}
	return nil
}

func (c *Config) validateTools() error {
	return ensurePositiveMap(map[string]int{
		"tools.embed_timeout":    c.Tools.EmbedTimeout,
		"tools.remux_timeout":    c.Tools.RemuxTimeout,
		"immich.request_timeout": c.Immich.RequestTimeout,
	})
}

func (c *Config) validateSync() error {
	if c.Sync.Workers <= 0 {
		return errors.New("sync.workers must be positive")
	}
	if c.Sync.Workers > 64 {
		return errors.New("sync.workers must be 64 or fewer")
	}
	if c.Sync.RetryBackoff <= 0 {
		return errors.New("sync.retry_backoff must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive (seconds)", name)
		}
	}
	return nil
}
