// Package normalize turns discovered RawItems into canonical MediaItems and
// embeds capture metadata into staged copies.
//
// Normalization is total: a malformed filename or an unresolvable game id
// degrades the item (modification-time fallback, absent title) instead of
// failing it. Embedding writes tags with overwrite semantics so re-processing
// the same item converges on the same bytes.
package normalize

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gamesync/internal/fileutil"
	"gamesync/internal/gametitle"
	"gamesync/internal/media"
	"gamesync/internal/services"
	"gamesync/internal/services/exiftool"
	"gamesync/internal/services/ffmpeg"
)

// FFmpegClient is the subset of the ffmpeg client the normalizer needs.
type FFmpegClient interface {
	ffmpeg.Tagger
	ffmpeg.Assembler
}

// Normalizer converts RawItems into MediaItems and stages tagged copies.
type Normalizer struct {
	stagingDir string
	resolver   gametitle.Resolver
	exif       exiftool.Tagger
	ffmpeg     FFmpegClient
}

// New constructs a Normalizer. resolver may be nil when Steam title lookups
// are not wanted.
func New(stagingDir string, resolver gametitle.Resolver, exif exiftool.Tagger, ff FFmpegClient) *Normalizer {
	return &Normalizer{
		stagingDir: stagingDir,
		resolver:   resolver,
		exif:       exif,
		ffmpeg:     ff,
	}
}

// Normalize produces the canonical MediaItem for a discovered capture.
//
// Timestamp preference: the scanner-provided time, then a filename timestamp,
// then file modification time. Title preference: the scanner-provided title,
// then Steam app id resolution; otherwise the hint stays absent.
//
// Steam clips are assembled into a playable MP4 under the staging directory
// here, since the discovered form is a folder of DASH segments.
func (n *Normalizer) Normalize(ctx context.Context, raw media.RawItem) (*media.MediaItem, error) {
	item := &media.MediaItem{
		Platform:   raw.Platform,
		Kind:       raw.Kind,
		SourcePath: raw.SourcePath,
		CapturedAt: raw.CapturedAt,
		State:      media.StatePending,
	}

	if item.CapturedAt.IsZero() {
		if ts, ok := media.TimestampFromFilename(filepath.Base(raw.SourcePath)); ok {
			item.CapturedAt = ts
		} else if info, err := os.Stat(raw.SourcePath); err == nil {
			item.CapturedAt = info.ModTime()
		} else {
			return nil, services.Wrap(services.ErrScan, "normalize", "normalize", "stat source", err)
		}
	}

	switch {
	case raw.Title != nil && strings.TrimSpace(*raw.Title) != "":
		title := strings.TrimSpace(*raw.Title)
		item.TitleHint = &title
	case raw.SteamAppID > 0 && n.resolver != nil:
		if title, ok := n.resolver.Resolve(ctx, raw.SteamAppID); ok {
			item.TitleHint = &title
		}
	}

	if raw.ClipDir != "" {
		assembled, err := n.assembleClip(ctx, raw)
		if err != nil {
			return nil, err
		}
		item.StagedPath = assembled
	}
	return item, nil
}

// Embed writes capture tags into a staged copy of the item and stamps its
// filesystem times with the capture time. The original file is never touched.
func (n *Normalizer) Embed(ctx context.Context, item *media.MediaItem) error {
	staged, err := n.stagePath(item)
	if err != nil {
		return err
	}

	tags := media.Tags{
		CapturedAt: item.CapturedAt,
		Device:     media.Device(item.Platform),
		Title:      item.TitleHint,
	}

	ext := strings.ToLower(filepath.Ext(staged))
	switch ext {
	case ".jpg", ".jpeg":
		if err := n.copyForTagging(item, staged); err != nil {
			return err
		}
		if err := n.exif.TagImage(ctx, staged, tags); err != nil {
			return err
		}
	case ".mp4":
		if err := n.copyForTagging(item, staged); err != nil {
			return err
		}
		if err := n.exif.TagMP4(ctx, staged, tags); err != nil {
			return err
		}
	case ".webm", ".mov":
		// ffmpeg writes a new container, so it tags straight from the
		// source into the staged path.
		if err := n.ffmpeg.Tag(ctx, item.SourcePath, staged, tags); err != nil {
			return err
		}
	default:
		return services.Wrap(services.ErrEmbedTool, "normalize", "embed", "unsupported container "+ext, nil)
	}

	if err := os.Chtimes(staged, item.CapturedAt, item.CapturedAt); err != nil {
		return services.Wrap(services.ErrEmbedTool, "normalize", "embed", "set file timestamps", err)
	}
	item.StagedPath = staged
	item.State = media.StateEmbedded
	return nil
}

// assembleClip remuxes a Steam clip's DASH segments into staging. The result
// holds the clip's original playable bytes; tagging happens later in Embed.
func (n *Normalizer) assembleClip(ctx context.Context, raw media.RawItem) (string, error) {
	clipName := filepath.Base(raw.ClipDir)
	destDir := filepath.Join(n.stagingDir, "clips")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEmbedTool, "normalize", "assemble clip", "create staging directory", err)
	}
	dest := filepath.Join(destDir, clipName+".mp4")
	if err := n.ffmpeg.AssembleClip(ctx, raw.SourcePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// stagePath picks the staged location for an item's tagged copy. Items are
// namespaced by fingerprint so identical basenames from different folders
// cannot collide.
func (n *Normalizer) stagePath(item *media.MediaItem) (string, error) {
	if item.Kind == media.KindClip && item.StagedPath != "" {
		// Assembled clips are already uniquely named in staging and are
		// tagged in place.
		return item.StagedPath, nil
	}
	namespace := item.Fingerprint
	if len(namespace) > 12 {
		namespace = namespace[:12]
	}
	if namespace == "" {
		return "", services.Wrap(services.ErrEmbedTool, "normalize", "embed", "item has no fingerprint", nil)
	}
	dir := filepath.Join(n.stagingDir, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEmbedTool, "normalize", "embed", "create staging directory", err)
	}
	return filepath.Join(dir, filepath.Base(item.SourcePath)), nil
}

func (n *Normalizer) copyForTagging(item *media.MediaItem, staged string) error {
	source := item.ContentPath()
	if source == staged {
		return nil
	}
	if err := fileutil.CopyFileVerified(source, staged); err != nil {
		return services.Wrap(services.ErrEmbedTool, "normalize", "embed",
			fmt.Sprintf("stage copy of %s", filepath.Base(source)), err)
	}
	return nil
}
