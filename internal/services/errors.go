package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrScan marks a per-platform discovery failure. Non-fatal to the
	// batch; other platforms proceed.
	ErrScan = errors.New("scan error")
	// ErrPlatformMissing marks a platform whose client install or source
	// directory is absent from this host. The platform contributes no
	// items and the condition is reported without failing the run.
	ErrPlatformMissing = errors.New("platform not found")
	// ErrFingerprint marks a discovered file whose content could not be
	// hashed, typically because it vanished or became unreadable after
	// discovery.
	ErrFingerprint = errors.New("fingerprint error")
	// ErrEmbedToolUnavailable marks a missing external tagging binary.
	ErrEmbedToolUnavailable = errors.New("embed tool unavailable")
	// ErrEmbedTool marks a tagging invocation that ran and failed.
	ErrEmbedTool = errors.New("embed tool error")
	// ErrLedgerWrite marks a failure to persist a sync ledger entry.
	ErrLedgerWrite = errors.New("ledger write error")
	// ErrUploadTransient marks an upload failure worth one retry
	// (network errors, 429, 5xx).
	ErrUploadTransient = errors.New("transient upload error")
	// ErrUploadPermanent marks an upload failure that retrying cannot fix
	// (4xx, malformed file).
	ErrUploadPermanent = errors.New("permanent upload error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUploadTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind renders the taxonomy label for an error, used in batch summaries.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrScan):
		return "scan"
	case errors.Is(err, ErrPlatformMissing):
		return "platform-missing"
	case errors.Is(err, ErrFingerprint):
		return "fingerprint"
	case errors.Is(err, ErrEmbedToolUnavailable):
		return "embed-tool-unavailable"
	case errors.Is(err, ErrEmbedTool):
		return "embed-tool"
	case errors.Is(err, ErrLedgerWrite):
		return "ledger-write"
	case errors.Is(err, ErrUploadTransient):
		return "upload-transient"
	case errors.Is(err, ErrUploadPermanent):
		return "upload-permanent"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "internal"
	}
}

// Retryable reports whether one bounded retry is permitted for the error.
func Retryable(err error) bool {
	return errors.Is(err, ErrUploadTransient)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
