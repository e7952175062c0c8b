package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gamesync/internal/media"
	"gamesync/internal/services"
)

// switchSuffixes are marketing suffixes the console appends to album folder
// names. They are stripped so the same game lands in one library folder.
var switchSuffixes = []string{
	" – Nintendo Switch 2 Edition",
	" - Nintendo Switch 2 Edition",
	" – Nintendo Switch 2",
	" - Nintendo Switch 2",
	" – Switch 2 Edition",
	" - Switch 2 Edition",
}

// CleanSwitchTitle strips console marketing suffixes from an album folder name.
func CleanSwitchTitle(folderName string) string {
	for _, suffix := range switchSuffixes {
		if strings.HasSuffix(folderName, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(folderName, suffix))
		}
	}
	return strings.TrimSpace(folderName)
}

// Switch2 discovers captures exported from a Nintendo Switch 2 album, laid out
// as one folder per game holding that game's captures.
type Switch2 struct {
	source string
}

// NewSwitch2 builds a scanner over an exported album directory.
func NewSwitch2(source string) *Switch2 {
	return &Switch2{source: source}
}

func (s *Switch2) Platform() media.Platform {
	return media.PlatformSwitch2
}

// Scan enumerates captures grouped by game folder. The folder name, with
// marketing suffixes stripped, becomes the title hint for every file inside.
func (s *Switch2) Scan(ctx context.Context) ([]media.RawItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.source == "" {
		return nil, services.Wrap(services.ErrScan, "switch2", "scan", "no source directory configured", nil)
	}

	gameFolders, err := os.ReadDir(s.source)
	if err != nil {
		return nil, services.Wrap(services.ErrScan, "switch2", "scan", "read source directory", err)
	}

	var items []media.RawItem
	for _, folder := range gameFolders {
		if !folder.IsDir() || strings.HasPrefix(folder.Name(), ".") {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return items, ctxErr
		}

		title := CleanSwitchTitle(folder.Name())
		if title == "" {
			title = folder.Name()
		}
		folderPath := filepath.Join(s.source, folder.Name())
		files, readErr := os.ReadDir(folderPath)
		if readErr != nil {
			return items, services.Wrap(services.ErrScan, "switch2", "scan", "read game folder "+folder.Name(), readErr)
		}

		for _, file := range files {
			if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
				continue
			}
			path := filepath.Join(folderPath, file.Name())
			if !media.SupportedExtension(path) {
				continue
			}

			titleHint := title
			item := media.RawItem{
				Platform:   media.PlatformSwitch2,
				SourcePath: path,
				Kind:       media.KindScreenshot,
				Title:      &titleHint,
			}
			if media.IsVideoPath(path) {
				item.Kind = media.KindClip
			}
			if captured, ok := media.TimestampFromFilename(file.Name()); ok {
				item.CapturedAt = captured
			}
			items = append(items, item)
		}
	}
	return items, nil
}
