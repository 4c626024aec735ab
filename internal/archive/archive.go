// Package archive knows how Hytale-F2P client archives and patch files
// are named and where they live on the download CDN. Everything here is
// deterministic string building; nothing talks to the network.
package archive

import (
	"fmt"
	"strings"
)

const (
	// DefaultBaseURL is the community mirror all download paths hang off.
	DefaultBaseURL = "https://cdn.hytale-f2p.com/client"

	// ArchiveExt marks full client archives in the catalog.
	ArchiveExt = ".zip"

	// PatchExt marks wharf patch files, both deltas and the per-build
	// full patches used for chained upgrades.
	PatchExt = ".pwr"

	// pathSlot is an opaque segment the mirror layout requires. Nobody
	// remembers what it meant; changing it 404s every download.
	pathSlot = "r2"
)

// Build-qualified archive names, one fixed shape per platform. The mirror
// only publishes one architecture per OS.
var fileTemplates = map[string]string{
	"windows": "v%d-windows-x64" + ArchiveExt,
	"linux":   "v%d-linux-x86_64" + ArchiveExt,
	"darwin":  "v%d-mac-arm64" + ArchiveExt,
}

// pathArchs mirrors fileTemplates: the one architecture path segment the
// mirror publishes per OS.
var pathArchs = map[string]string{
	"windows": "x64",
	"linux":   "x86_64",
	"darwin":  "arm64",
}

// PathArch returns the architecture path segment for a platform, empty
// for platforms the mirror does not publish.
func PathArch(osID string) string {
	return pathArchs[osID]
}

// FileName returns the full-archive file name for a build on the given
// platform. The second return is false when the platform is not one the
// mirror publishes for; callers must treat that as "no archive", not an
// error.
func FileName(build int, osID string) (string, bool) {
	tmpl, ok := fileTemplates[osID]
	if !ok {
		return "", false
	}
	return fmt.Sprintf(tmpl, build), true
}

// PatchFileName returns the full-patch file name for one chain step,
// e.g. 7 -> "7.pwr".
func PatchFileName(build int) string {
	return fmt.Sprintf("%d%s", build, PatchExt)
}

// IsArchive reports whether a catalog file name is a full client archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(name, ArchiveExt)
}

// Locator builds download URLs against one CDN base. The base is
// injectable so tests can point it at a local server; production code
// uses DefaultBaseURL.
type Locator struct {
	BaseURL string
}

// NewLocator returns a Locator for the given base, defaulting to the
// community mirror.
func NewLocator(baseURL string) *Locator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Locator{BaseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the download URL for a build's full archive. The path is
// segmented by OS, architecture, branch and the fixed slot, in that
// order. False when the platform has no archive name.
func (l *Locator) URL(build int, branch, osID, arch string) (string, bool) {
	name, ok := FileName(build, osID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", l.BaseURL, osID, arch, branch, pathSlot, name), true
}
