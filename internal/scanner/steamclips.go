package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// clipDirRE matches the capture folders the Steam game recorder writes:
// clip_<appid>_<YYYYMMDD>_<HHMMSS>.
var clipDirRE = regexp.MustCompile(`^clip_(\d+)_(\d{8})_(\d{6})$`)

// SteamClips discovers game recordings saved by the Steam client. Each clip is
// a folder of DASH segments; the normalizer assembles them into a single MP4.
type SteamClips struct {
	root string
}

// NewSteamClips builds a clip scanner rooted at the Steam install directory.
// An empty root auto-detects the per-OS default location.
func NewSteamClips(root string) *SteamClips {
	if root == "" {
		root = DefaultSteamRoot()
	}
	return &SteamClips{root: root}
}

func (s *SteamClips) Platform() media.Platform {
	return media.PlatformSteam
}

// Scan enumerates clip capture folders that contain a DASH manifest. Folders
// without a session.mpd are still being recorded or are corrupt, so they are
// skipped.
func (s *SteamClips) Scan(ctx context.Context) ([]media.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.root == "" || !dirExists(s.root) {
		return nil, services.Wrap(services.ErrPlatformMissing, "steam-clips", "scan", "client install directory absent", nil)
	}

	accountID, err := resolveAccountID(s.root)
	if err != nil {
		return nil, services.Wrap(services.ErrScan, "steam-clips", "scan", "resolve account", err)
	}

	clipsDir := filepath.Join(s.root, "userdata", strconv.FormatUint(uint64(accountID), 10), "gamerecordings", "clips")
	entries, err := os.ReadDir(clipsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrScan, "steam-clips", "scan", "read clips directory", err)
	}

	var items []media.RawItem
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		match := clipDirRE.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		appID, parseErr := strconv.Atoi(match[1])
		if parseErr != nil {
			continue
		}
		clipDir := filepath.Join(clipsDir, entry.Name())
		manifest := findSessionManifest(clipDir)
		if manifest == "" {
			continue
		}

		item := media.RawItem{
			Platform:   media.PlatformSteam,
			Kind:       media.KindClip,
			SourcePath: manifest,
			SteamAppID: appID,
			ClipDir:    clipDir,
		}
		if captured, ok := media.ClipFolderTimestamp(match[2], match[3]); ok {
			item.CapturedAt = captured
		} else if info, statErr := entry.Info(); statErr == nil {
			item.CapturedAt = info.ModTime()
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CapturedAt.Equal(items[j].CapturedAt) {
			return items[i].CapturedAt.Before(items[j].CapturedAt)
		}
		return items[i].ClipDir < items[j].ClipDir
	})
	return items, nil
}

// findSessionManifest locates video/<session>/session.mpd inside a clip folder.
func findSessionManifest(clipDir string) string {
	videoDir := filepath.Join(clipDir, "video")
	entries, err := os.ReadDir(videoDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest := filepath.Join(videoDir, entry.Name(), "session.mpd")
		if info, statErr := os.Stat(manifest); statErr == nil && info.Mode().IsRegular() {
			return manifest
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
