package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gamesync/internal/config"
	"gamesync/internal/deps"
	"gamesync/internal/services"
	"gamesync/internal/services/immich"
)

// CheckImmich verifies the server answers and accepts the API key. It uses a
// 5-second timeout and a single attempt.
func CheckImmich(ctx context.Context, serverURL, apiKey string) Result {
	const name = "Immich"

	if strings.TrimSpace(serverURL) == "" {
		return Result{Name: name, Detail: "missing server url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	client, err := immich.New(serverURL, apiKey, 5)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizePingError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable and
// writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries the pipeline shells out to.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

func summarizePingError(err error) string {
	switch {
	case errors.Is(err, services.ErrTimeout):
		return "health check timed out (server unresponsive)"
	case errors.Is(err, services.ErrConfiguration):
		return "auth failed (invalid api key)"
	default:
		return err.Error()
	}
}
