package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/T03ty/Hytale-F2P/internal/archive"
	"github.com/T03ty/Hytale-F2P/internal/buildver"
	"github.com/T03ty/Hytale-F2P/internal/httputil"
	"github.com/T03ty/Hytale-F2P/internal/logging"
	"github.com/T03ty/Hytale-F2P/internal/platform"
)

// fallbackVersion ships with the launcher: the newest build known at
// release time. It answers version discovery when every endpoint is
// down, so a player can at least be told what they should have.
const fallbackVersion = "v117"

// LatestBuild returns the highest build the catalog lists for the
// branch on this platform.
func (c *Client) LatestBuild(ctx context.Context, branch string) (int, error) {
	cat, err := c.Fetch(ctx)
	if err != nil {
		return 0, err
	}

	files, err := c.branchFiles(cat, branch, platform.ArchiveOSKey(c.osID))
	if err != nil {
		return 0, err
	}

	latest := 0
	archives := 0
	for name := range files {
		if !archive.IsArchive(name) {
			continue
		}
		archives++
		if b := buildver.ParseBuild(name); b > latest {
			latest = b
		}
	}
	if archives == 0 {
		return 0, fmt.Errorf("%w: branch %q", ErrNoArchivesFound, branch)
	}

	return latest, nil
}

// DownloadURL returns the catalog's download URL for one version's full
// archive on the given platform. Every lookup miss reports ErrURLNotFound
// here, including a missing branch table; ErrNoDataForBranch belongs to
// the latest-version path.
func (c *Client) DownloadURL(ctx context.Context, branch, version, osID string) (string, error) {
	cat, err := c.Fetch(ctx)
	if err != nil {
		return "", err
	}

	files, err := c.branchFiles(cat, branch, platform.ArchiveOSKey(osID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLNotFound, err)
	}

	name, ok := archive.FileName(buildver.ParseBuild(version), osID)
	if !ok {
		return "", fmt.Errorf("%w: no archive shape for platform %q", ErrURLNotFound, osID)
	}

	u, ok := files[name]
	if !ok {
		return "", fmt.Errorf("%w: %s not listed for branch %q", ErrURLNotFound, name, branch)
	}

	return u, nil
}

// versionSource is one tier of version discovery. All tiers share the
// same signature so the fallback order is just a slice.
type versionSource struct {
	name    string
	resolve func(ctx context.Context, branch string) (string, error)
}

func (c *Client) sources() []versionSource {
	return []versionSource{
		{name: "catalog", resolve: c.versionFromCatalog},
		{name: "legacy", resolve: c.versionFromLegacy},
	}
}

// LatestVersion finds the newest version for a branch: the catalog
// first, the legacy endpoint when that fails, and the baked-in last
// known good when everything is down. Discovery never fails outright;
// the worst case is a stale answer, and the log records which source
// answered.
func (c *Client) LatestVersion(ctx context.Context, branch string) string {
	for _, src := range c.sources() {
		v, err := src.resolve(ctx, branch)
		if err != nil {
			log.Debug("version source failed",
				logging.KeySource, src.name,
				logging.KeyBranch, branch,
				logging.KeyError, err,
			)
			continue
		}
		log.Info("latest version resolved",
			logging.KeySource, src.name,
			logging.KeyBranch, branch,
			"version", v,
		)
		return v
	}

	log.Warn("every version source failed, using last known good",
		logging.KeyBranch, branch,
		"version", fallbackVersion,
	)
	return fallbackVersion
}

func (c *Client) versionFromCatalog(ctx context.Context, branch string) (string, error) {
	build, err := c.LatestBuild(ctx, branch)
	if err != nil {
		return "", err
	}
	if build == 0 {
		// Archives whose names carry no build number give a max of 0;
		// that is not an answer worth reporting.
		return "", fmt.Errorf("catalog lists no usable build for branch %q", branch)
	}
	return buildver.Format(build), nil
}

func (c *Client) versionFromLegacy(ctx context.Context, branch string) (string, error) {
	u := fmt.Sprintf("%s?%s", c.legacyURL, url.Values{"branch": {branch}}.Encode())

	resp, err := httputil.Get(ctx, c.http, u)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("legacy endpoint returned %s", resp.Status)
	}

	var payload struct {
		ClientVersion string `json:"client_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode legacy version: %w", err)
	}

	build := buildver.ParseBuild(payload.ClientVersion)
	if build == 0 {
		return "", fmt.Errorf("legacy endpoint returned unusable version %q", payload.ClientVersion)
	}

	// The legacy endpoint spells versions a few different ways; answer
	// in the canonical form regardless.
	return buildver.Format(build), nil
}
