// Package deps checks availability of the external binaries gamesync shells
// out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"gamesync/internal/config"
)

// Requirement defines an external dependency gamesync relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements builds the dependency list for the configured tool paths.
// Exiftool handles image and MP4 tagging; ffmpeg handles WebM/MOV tagging and
// Steam clip remuxing, so both are required.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "ExifTool",
			Command:     cfg.ExiftoolBinary(),
			Description: "Embeds capture metadata into images and MP4 video",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Embeds metadata into WebM/MOV video and assembles Steam clips",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
