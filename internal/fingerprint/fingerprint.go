// Package fingerprint derives stable content hashes from capture files.
//
// Fingerprints are computed over the original, unmodified bytes of a file
// before any metadata embedding takes place, so the same capture always maps
// to the same fingerprint no matter which run discovered it.
package fingerprint

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// File computes the hex-encoded SHA-256 digest of the file at path by
// streaming its contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SHA1File computes the hex-encoded SHA-1 digest of the file at path. Immich
// identifies duplicate assets by SHA-1, so uploads send this alongside the
// content itself.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
