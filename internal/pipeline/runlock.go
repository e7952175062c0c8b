package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning indicates another sync run holds the shared ledger.
var ErrAlreadyRunning = errors.New("another gamesync run is already in progress")

// AcquireRunLock takes an exclusive lock guarding ledger access across
// processes. The returned release function must be called when the run ends.
func AcquireRunLock(cacheDir string) (func(), error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}
	lock := flock.New(filepath.Join(cacheDir, "gamesync.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRunning
	}
	return func() {
		_ = lock.Unlock()
	}, nil
}
