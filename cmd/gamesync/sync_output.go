package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"gamesync/internal/pipeline"
	"gamesync/internal/preflight"
)

// newProgress returns a progress bar for interactive terminals, or nil when
// output is piped or there is nothing to count.
func newProgress(total int) *progressbar.ProgressBar {
	if total == 0 || !isTerminal(os.Stderr) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("syncing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderSummary(result *pipeline.BatchResult, uploadEnabled bool) string {
	rows := [][]string{
		{"Processed", strconv.Itoa(result.Total())},
		{"Succeeded", strconv.Itoa(result.Succeeded)},
		{"Skipped", strconv.Itoa(result.Skipped)},
		{"Failed", strconv.Itoa(len(result.Failed))},
	}
	if uploadEnabled {
		rows = append(rows,
			[]string{"Uploaded", strconv.Itoa(result.Uploaded)},
			[]string{"Server duplicates", strconv.Itoa(result.Duplicates)},
		)
	}
	if result.Bytes > 0 {
		rows = append(rows, []string{"Transferred", humanize.Bytes(uint64(result.Bytes))})
	}
	return renderTable([]string{"Result", "Count"}, rows, 1)
}

func renderFailures(failures []pipeline.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, failure := range failures {
		source := failure.SourcePath
		if source == "" {
			source = "(scan)"
		}
		detail := ""
		if failure.Err != nil {
			detail = failure.Err.Error()
		}
		rows = append(rows, []string{string(failure.Platform), failure.Kind, source, detail})
	}
	return renderTable([]string{"Platform", "Kind", "Source", "Detail"}, rows)
}

func renderPreflight(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := "FAIL"
		if result.Passed {
			status = "ok"
		}
		rows = append(rows, []string{result.Name, status, result.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows)
}

func confirmed(answer string) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
