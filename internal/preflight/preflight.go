package preflight

import (
	"context"

	"gamesync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check applicable to the given config. The Immich
// connectivity check is skipped when uploads are disabled for the run.
func RunAll(ctx context.Context, cfg *config.Config, uploadEnabled bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))

	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.OutputDir))
	}

	for _, status := range CheckSystemDeps(cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Command
		}
		results = append(results, result)
	}

	if uploadEnabled {
		results = append(results, CheckImmich(ctx, cfg.Immich.ServerURL, cfg.Immich.APIKey))
	}

	return results
}

// Passed reports whether every mandatory check succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
