// Package organizer places tagged capture copies into the output library,
// one folder per game.
package organizer

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gamesync/internal/fileutil"
	"gamesync/internal/logging"
	"gamesync/internal/media"
)

// UnknownFolder receives captures whose game could not be named.
const UnknownFolder = "Unknown"

var titleCaser = cases.Title(language.English, cases.NoLower)

// Organizer moves staged files into the final library location.
type Organizer struct {
	outputDir string
	logger    *slog.Logger

	// mu serializes destination probing and the move so concurrent
	// workers placing identical basenames cannot pick the same path.
	mu sync.Mutex
}

// New constructs an organizer rooted at the output library directory.
func New(outputDir string, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		outputDir: outputDir,
		logger:    logger.With(logging.String(logging.FieldComponent, "organizer")),
	}
}

// Place moves the item's staged copy into <output>/<Game Title>/<file>. An
// existing file with different content gets a numbered sibling instead of
// being overwritten. Returns the final path.
func (o *Organizer) Place(item *media.MediaItem) (string, error) {
	if o.outputDir == "" {
		return "", fmt.Errorf("no output directory configured")
	}
	if item.StagedPath == "" {
		return "", fmt.Errorf("item has no staged file")
	}

	folder := FolderName(item.Title(UnknownFolder))
	destDir := filepath.Join(o.outputDir, folder)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create library folder: %w", err)
	}

	o.mu.Lock()
	dest, err := availablePath(filepath.Join(destDir, filepath.Base(item.StagedPath)))
	if err != nil {
		o.mu.Unlock()
		return "", err
	}
	err = fileutil.MoveFile(item.StagedPath, dest)
	o.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("move into library: %w", err)
	}

	o.logger.Info("organized capture",
		logging.String(logging.FieldPlatform, string(item.Platform)),
		logging.String("library_folder", folder),
		logging.String("final_file", filepath.Base(dest)),
	)
	item.StagedPath = dest
	return dest, nil
}

// FolderName renders a game title as a library folder name: title-cased, with
// path separators and other unsafe characters stripped.
func FolderName(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return UnknownFolder
	}
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", " -",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	cleaned := strings.TrimSpace(replacer.Replace(title))
	if cleaned == "" {
		return UnknownFolder
	}
	if cleaned == strings.ToLower(cleaned) {
		// All-lowercase names come from filesystem slugs; present them
		// title-cased. Mixed-case titles are left as published.
		cleaned = titleCaser.String(cleaned)
	}
	return cleaned
}

// availablePath returns path itself when free, or the first "name (N).ext"
// sibling that is.
func availablePath(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	} else if err != nil {
		return "", fmt.Errorf("probe destination: %w", err)
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 1; n < 100; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("probe destination: %w", err)
		}
	}
	return "", fmt.Errorf("no free destination name for %s", filepath.Base(path))
}
