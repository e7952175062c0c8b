package scanner

import (
	"context"
	"io/fs"
	"path/filepath"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// PS5 discovers captures exported from a PlayStation 5, typically a USB drive
// holding the console's PS5/CREATE tree. Filenames carry a compact
// YYYYMMDDHHMMSS timestamp.
type PS5 struct {
	source string
}

// NewPS5 builds a scanner over an exported capture directory.
func NewPS5(source string) *PS5 {
	return &PS5{source: source}
}

func (s *PS5) Platform() media.Platform {
	return media.PlatformPS5
}

// Scan walks the source tree and reports every supported capture file. Files
// without a parseable filename timestamp fall back to their modification time
// downstream, so they are still reported.
func (s *PS5) Scan(ctx context.Context) ([]media.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.source == "" {
		return nil, services.Wrap(services.ErrScan, "ps5", "scan", "no source directory configured", nil)
	}
	if !dirExists(s.source) {
		return nil, services.Wrap(services.ErrScan, "ps5", "scan", "source directory not found: "+s.source, nil)
	}

	var items []media.RawItem
	walkErr := filepath.WalkDir(s.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !media.SupportedExtension(path) {
			return nil
		}

		item := media.RawItem{
			Platform:   media.PlatformPS5,
			SourcePath: path,
			Kind:       media.KindScreenshot,
		}
		if media.IsVideoPath(path) {
			item.Kind = media.KindClip
		}
		if captured, ok := media.TimestampFromFilename(filepath.Base(path)); ok {
			item.CapturedAt = captured
		}
		items = append(items, item)
		return nil
	})
	if walkErr != nil {
		if ctx.Err() != nil {
			return nil, walkErr
		}
		return items, services.Wrap(services.ErrScan, "ps5", "scan", "walk source directory", walkErr)
	}
	return items, nil
}
