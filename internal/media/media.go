package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Platform identifies the capture source of a media item.
type Platform string

const (
	PlatformSteam   Platform = "steam"
	PlatformPS5     Platform = "ps5"
	PlatformSwitch2 Platform = "switch2"
)

var allPlatforms = []Platform{PlatformSteam, PlatformPS5, PlatformSwitch2}

// AllPlatforms returns the ordered list of known platforms.
func AllPlatforms() []Platform {
	cp := make([]Platform, len(allPlatforms))
	copy(cp, allPlatforms)
	return cp
}

// ParsePlatform converts a string into a known Platform.
func ParsePlatform(value string) (Platform, bool) {
	normalized := Platform(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range allPlatforms {
		if p == normalized {
			return p, true
		}
	}
	return "", false
}

// Kind distinguishes still captures from video clips.
type Kind string

const (
	KindScreenshot Kind = "screenshot"
	KindClip       Kind = "clip"
)

// State tracks a MediaItem through the upload pipeline.
type State string

const (
	StatePending  State = "pending"
	StateEmbedded State = "embedded"
	StateUploaded State = "uploaded"
	StateFailed   State = "failed"
)

// DeviceInfo describes the device that captured the media. Make and model are
// written into embedded tags so the remote server attributes uploads to the
// right camera.
type DeviceInfo struct {
	Make  string
	Model string
}

var (
	SteamDeck = DeviceInfo{Make: "Valve", Model: "Steam Deck"}
	PS5       = DeviceInfo{Make: "Sony Interactive Entertainment", Model: "PlayStation 5"}
	Switch2   = DeviceInfo{Make: "Nintendo", Model: "Nintendo Switch 2"}
)

// Device returns the capture device constants for a platform.
func Device(platform Platform) DeviceInfo {
	switch platform {
	case PlatformPS5:
		return PS5
	case PlatformSwitch2:
		return Switch2
	default:
		return SteamDeck
	}
}

// ID returns the device identifier sent to the remote server,
// e.g. "valve-steam-deck".
func (d DeviceInfo) ID() string {
	joined := strings.ToLower(d.Make + "-" + d.Model)
	return strings.ReplaceAll(joined, " ", "-")
}

// RawItem is one candidate file as a scanner found it. CapturedAt and Title
// are best-effort; zero/nil values mean the scanner could not derive them and
// the normalizer falls back per its preference order.
type RawItem struct {
	Platform   Platform
	Kind       Kind
	SourcePath string
	CapturedAt time.Time
	Title      *string

	// SteamAppID is set for Steam items whose index entry names the game.
	// Zero means unknown.
	SteamAppID int

	// ClipDir is set for Steam clips: the capture folder holding DASH
	// segments that must be remuxed before the item has playable bytes.
	ClipDir string
}

// MediaItem is the canonical unit of work produced by the normalizer.
type MediaItem struct {
	Platform   Platform
	Kind       Kind
	SourcePath string
	CapturedAt time.Time

	// TitleHint is nil when no platform source named the game. Absence is
	// propagated rather than defaulted so consumers can tell "unknown"
	// from an empty string.
	TitleHint *string

	// Fingerprint is the content hash of the original file bytes, set once
	// by the pipeline and never recomputed.
	Fingerprint string

	// StagedPath is where the tagged copy lives (staging or output dir).
	StagedPath string

	State State
}

// Title returns the title hint or the provided fallback.
func (m *MediaItem) Title(fallback string) string {
	if m.TitleHint != nil && strings.TrimSpace(*m.TitleHint) != "" {
		return *m.TitleHint
	}
	return fallback
}

// IsVideo reports whether the item's container is handled as video by the
// embedding tools.
func (m *MediaItem) IsVideo() bool {
	return m.Kind == KindClip || IsVideoPath(m.SourcePath)
}

// IsVideoPath reports whether a filename carries a video container extension.
func IsVideoPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".webm", ".mov":
		return true
	}
	return false
}

// SupportedExtension reports whether a filename is one of the media types the
// pipeline processes.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".mp4", ".webm", ".mov":
		return true
	}
	return false
}
