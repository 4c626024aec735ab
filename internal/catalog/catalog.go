// Package catalog talks to the Hytale-F2P update surfaces: the version
// catalog, the patch manifest, and the legacy version endpoint kept for
// older launchers. It owns the cached catalog snapshot and the fallback
// order for version discovery.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/T03ty/Hytale-F2P/internal/httputil"
	"github.com/T03ty/Hytale-F2P/internal/logging"
)

var log = logging.L("catalog")

// Catalog mirrors the provider payload: product → branch → OS key →
// file name → download URL.
type Catalog map[string]map[string]map[string]map[string]string

const (
	// defaultProduct is the only product key the community mirror serves.
	defaultProduct = "hytale"

	// defaultFreshness is how long a fetched catalog is served without
	// asking the provider again.
	defaultFreshness = 60 * time.Second
)

// Config wires a Client to the update surfaces. Zero values fall back to
// production settings; tests override the URLs and the HTTP client.
type Config struct {
	PrimaryURL string
	LegacyURL  string
	PatchURL   string
	Product    string
	OS         string // platform identifier, e.g. "windows"
	Arch       string
	Freshness  time.Duration
	HTTPClient *http.Client
}

// Client resolves versions and download URLs against the update
// surfaces. The snapshot cell is shared by all callers; the mutex only
// guards the cell itself. Freshness checking and refetching are
// deliberately not serialized: two callers racing past a stale check
// both hit the provider and the last writer wins, which is harmless
// because the payload is idempotent.
type Client struct {
	primaryURL string
	legacyURL  string
	patchURL   string
	product    string
	osID       string
	arch       string
	freshness  time.Duration
	http       *http.Client

	mu        sync.Mutex
	snapshot  Catalog
	fetchedAt time.Time
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	if cfg.Product == "" {
		cfg.Product = defaultProduct
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = defaultFreshness
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Client{
		primaryURL: cfg.PrimaryURL,
		legacyURL:  cfg.LegacyURL,
		patchURL:   cfg.PatchURL,
		product:    cfg.Product,
		osID:       cfg.OS,
		arch:       cfg.Arch,
		freshness:  cfg.Freshness,
		http:       cfg.HTTPClient,
	}
}

// Fetch returns the current catalog, refreshing it from the primary
// endpoint when the cached copy is older than the freshness window. A
// refresh failure falls back to the stale copy when one exists; only a
// cold cache with an unreachable provider is an error.
func (c *Client) Fetch(ctx context.Context) (Catalog, error) {
	cached, at, ok := c.cached()
	if ok && time.Since(at) < c.freshness {
		return cached, nil
	}

	fresh, err := c.fetchRemote(ctx)
	if err != nil {
		if ok {
			log.Warn("catalog refresh failed, serving stale snapshot",
				"age", time.Since(at).Round(time.Second),
				logging.KeyError, err,
			)
			return cached, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	c.store(fresh)
	return fresh, nil
}

func (c *Client) cached() (Catalog, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.fetchedAt, c.snapshot != nil
}

func (c *Client) store(cat Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = cat
	c.fetchedAt = time.Now()
}

func (c *Client) fetchRemote(ctx context.Context) (Catalog, error) {
	resp, err := httputil.Get(ctx, c.http, c.primaryURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog endpoint returned %s", resp.Status)
	}

	var cat Catalog
	if err := json.NewDecoder(resp.Body).Decode(&cat); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	log.Debug("catalog refreshed", "products", len(cat))
	return cat, nil
}

// branchFiles digs out the file table for a branch and OS key. Missing
// data at any level means the provider knows nothing about the branch.
func (c *Client) branchFiles(cat Catalog, branch, osKey string) (map[string]string, error) {
	branches, ok := cat[c.product]
	if !ok {
		return nil, fmt.Errorf("%w: product %q", ErrNoDataForBranch, c.product)
	}
	oses, ok := branches[branch]
	if !ok {
		return nil, fmt.Errorf("%w: branch %q", ErrNoDataForBranch, branch)
	}
	files, ok := oses[osKey]
	if !ok {
		return nil, fmt.Errorf("%w: branch %q has nothing for %q", ErrNoDataForBranch, branch, osKey)
	}
	return files, nil
}
