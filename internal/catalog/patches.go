package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/T03ty/Hytale-F2P/internal/httputil"
	"github.com/T03ty/Hytale-F2P/internal/logging"
)

// PatchEntry is one row of the patch manifest, keyed by target build.
// Every field except ProperPatch may be absent: old builds were
// published before delta patching existed.
type PatchEntry struct {
	OriginalURL string `json:"original_url"`
	PatchURL    string `json:"patch_url"`
	PatchHash   string `json:"patch_hash"`
	From        *int   `json:"from"`
	ProperPatch bool   `json:"proper_patch"`
	PatchNote   string `json:"patch_note"`
}

// PatchManifest fetches the per-build patch table for a branch on this
// platform. The manifest is an optimization, not a requirement: any
// failure (network, status, malformed body) yields an empty map and the
// caller falls back to full archives. The result is never nil.
func (c *Client) PatchManifest(ctx context.Context, branch string) map[int]PatchEntry {
	out := map[int]PatchEntry{}

	q := url.Values{
		"branch": {branch},
		"os":     {c.osID},
		"arch":   {c.arch},
	}
	u := fmt.Sprintf("%s?%s", c.patchURL, q.Encode())

	resp, err := httputil.Get(ctx, c.http, u)
	if err != nil {
		log.Debug("patch manifest unavailable", logging.KeyBranch, branch, logging.KeyError, err)
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Debug("patch manifest unavailable", logging.KeyBranch, branch, "status", resp.Status)
		return out
	}

	var payload struct {
		Patches map[string]PatchEntry `json:"patches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Debug("patch manifest malformed", logging.KeyBranch, branch, logging.KeyError, err)
		return out
	}

	for key, entry := range payload.Patches {
		build, err := strconv.Atoi(key)
		if err != nil || build <= 0 {
			log.Debug("skipping patch entry with bad build key", "key", key)
			continue
		}
		out[build] = entry
	}

	return out
}
