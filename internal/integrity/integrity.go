// Package integrity checks downloaded patch and archive files against
// the digests the patch manifest publishes.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/T03ty/Hytale-F2P/internal/logging"
)

var log = logging.L("integrity")

// ErrFileRead marks digest failures caused by the local file, as opposed
// to a digest mismatch. Callers match it with errors.Is.
var ErrFileRead = errors.New("file read failed")

// Digest computes the SHA-256 of a file as lowercase hex. The file is
// streamed through the hasher, never loaded whole; client archives run
// to gigabytes.
func Digest(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileRead, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileRead, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify checks a file against an expected digest. An empty expected
// digest verifies vacuously: the manifest publishes no hash for some
// entries and those files are allowed through unverified. A mismatch is
// a clean false, not an error; only failure to read the file errors.
// Digests are compared exactly as produced, lowercase hex.
func Verify(path, expected string) (bool, error) {
	if expected == "" {
		log.Debug("no digest published, skipping verification", "path", path)
		return true, nil
	}

	actual, err := Digest(path)
	if err != nil {
		return false, err
	}

	if actual != expected {
		log.Warn("digest mismatch",
			"path", path,
			"expected", expected,
			"actual", actual,
		)
		return false, nil
	}

	return true, nil
}
