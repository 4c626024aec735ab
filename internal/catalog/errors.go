package catalog

import "errors"

// Resolution failures callers branch on with errors.Is. Wrapped messages
// carry the specifics; the sentinels carry the meaning.
var (
	// ErrProviderUnavailable: the primary endpoint failed and no cached
	// snapshot exists to fall back on.
	ErrProviderUnavailable = errors.New("update provider unavailable")

	// ErrNoDataForBranch: the catalog has no entry for the requested
	// branch (or no files for this platform under it).
	ErrNoDataForBranch = errors.New("no data for branch")

	// ErrNoArchivesFound: the branch listing exists but contains no
	// client archives.
	ErrNoArchivesFound = errors.New("no archives found")

	// ErrURLNotFound: the branch listing has archives, just not the one
	// asked for.
	ErrURLNotFound = errors.New("download url not found")
)
