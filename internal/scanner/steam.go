package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/andygrunwald/vdf"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// DefaultSteamRoot returns the per-user Steam install directory, or empty when
// no known location exists.
func DefaultSteamRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidates := []string{
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, ".steam", "steam"),
	}
	for _, candidate := range candidates {
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return candidate
		}
	}
	return ""
}

// resolveAccountID reads loginusers.vdf and converts the most recently used
// SteamID64 into the 32-bit account id that names the userdata directory.
func resolveAccountID(root string) (uint32, error) {
	loginPath := filepath.Join(root, "config", "loginusers.vdf")
	f, err := os.Open(loginPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", loginPath, err)
	}
	defer f.Close()

	parsed, err := vdf.NewParser(f).Parse()
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", loginPath, err)
	}

	users, ok := parsed["users"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("no users block in %s", loginPath)
	}
	for id64Str, raw := range users {
		user, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if mostRecent, _ := user["MostRecent"].(string); mostRecent != "1" {
			continue
		}
		id64, parseErr := strconv.ParseUint(id64Str, 10, 64)
		if parseErr != nil {
			return 0, fmt.Errorf("malformed steam id %q: %w", id64Str, parseErr)
		}
		return uint32(id64 & 0xFFFFFFFF), nil
	}
	return 0, fmt.Errorf("no most recent user in %s", loginPath)
}

// SteamScreenshots discovers screenshots indexed by the Steam client.
type SteamScreenshots struct {
	root string
}

// NewSteamScreenshots builds a screenshot scanner rooted at the Steam install
// directory. An empty root auto-detects the per-OS default location.
func NewSteamScreenshots(root string) *SteamScreenshots {
	if root == "" {
		root = DefaultSteamRoot()
	}
	return &SteamScreenshots{root: root}
}

func (s *SteamScreenshots) Platform() media.Platform {
	return media.PlatformSteam
}

// Scan reads the client's screenshots.vdf index and resolves each entry to a
// file under the remote screenshot store. Index entries whose file vanished
// are dropped.
func (s *SteamScreenshots) Scan(ctx context.Context) ([]media.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.root == "" {
		return nil, services.Wrap(services.ErrPlatformMissing, "steam", "scan", "no client install detected", nil)
	}
	if _, err := os.Stat(s.root); err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrPlatformMissing, "steam", "scan", "client install directory absent", nil)
		}
		return nil, services.Wrap(services.ErrScan, "steam", "scan", "access install directory", err)
	}

	accountID, err := resolveAccountID(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrScan, "steam", "scan", "resolve account", err)
	}

	userDir := filepath.Join(s.root, "userdata", strconv.FormatUint(uint64(accountID), 10), "760")
	indexPath := filepath.Join(userDir, "screenshots.vdf")
	f, err := os.Open(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrScan, "steam", "scan", "open screenshot index", err)
	}
	defer f.Close()

	parsed, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, services.Wrap(services.ErrScan, "steam", "scan", "parse screenshot index", err)
	}

	index, ok := parsed["screenshots"].(map[string]interface{})
	if !ok {
		index, ok = parsed["Screenshots"].(map[string]interface{})
	}
	if !ok {
		return nil, nil
	}

	var items []media.RawItem
	for appIDStr, rawEntries := range index {
		entries, ok := rawEntries.(map[string]interface{})
		if !ok {
			continue
		}
		appID, parseErr := strconv.Atoi(appIDStr)
		if parseErr != nil {
			continue
		}
		for _, rawEntry := range entries {
			entry, ok := rawEntry.(map[string]interface{})
			if !ok {
				continue
			}
			filename, _ := entry["filename"].(string)
			creationStr, _ := entry["creation"].(string)
			if filename == "" || creationStr == "" {
				continue
			}
			creation, parseErr := strconv.ParseInt(creationStr, 10, 64)
			if parseErr != nil {
				continue
			}
			fullPath := filepath.Join(userDir, "remote", filepath.FromSlash(filename))
			if _, statErr := os.Stat(fullPath); statErr != nil {
				continue
			}
			items = append(items, media.RawItem{
				Platform:   media.PlatformSteam,
				Kind:       media.KindScreenshot,
				SourcePath: fullPath,
				CapturedAt: time.Unix(creation, 0),
				SteamAppID: appID,
			})
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CapturedAt.Equal(items[j].CapturedAt) {
			return items[i].CapturedAt.Before(items[j].CapturedAt)
		}
		return items[i].SourcePath < items[j].SourcePath
	})
	return items, nil
}
