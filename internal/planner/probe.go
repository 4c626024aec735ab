package planner

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/T03ty/Hytale-F2P/internal/archive"
	"github.com/T03ty/Hytale-F2P/internal/buildver"
	"github.com/T03ty/Hytale-F2P/internal/logging"
	"github.com/T03ty/Hytale-F2P/internal/workerpool"
)

// ProbeOptions tunes the availability sweep. The zero value probes
// fifty builds sequentially with no pacing.
type ProbeOptions struct {
	// MaxProbe is how many builds below the latest to scan.
	MaxProbe int
	// Workers caps concurrent requests; 1 keeps the sweep sequential.
	Workers int
	// RPS paces request starts when positive, in both modes. The
	// community mirror runs on donated bandwidth.
	RPS float64
}

const defaultMaxProbe = 50

// ProbeAvailable checks which full archives actually exist on the CDN,
// sweeping from the latest known build down through the probe window
// (never below build 1). A build is present only on HTTP 200; errors and
// every other status count as absent and do not stop the sweep, since
// gaps are normal (pruned builds). Results are archive file names in
// descending build order regardless of how many workers ran the sweep.
func (p *Planner) ProbeAvailable(ctx context.Context, latestVersion, branch string, opts ProbeOptions) ([]string, error) {
	logger := logging.FromContext(ctx)

	latest := buildver.ParseBuild(latestVersion)
	if latest == 0 {
		return nil, fmt.Errorf("latest version %q does not name a build", latestVersion)
	}

	if opts.MaxProbe <= 0 {
		opts.MaxProbe = defaultMaxProbe
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	low := latest - opts.MaxProbe
	if low < 1 {
		low = 1
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	count := latest - low + 1
	found := make([]string, count) // one slot per build keeps the order stable

	probe := func(slot, build int) {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}
		url, ok := p.locator.URL(build, branch, p.osID, p.arch)
		if !ok {
			return
		}
		if p.headOK(ctx, url) {
			name, _ := archive.FileName(build, p.osID)
			found[slot] = name
		}
	}

	if opts.Workers == 1 {
		for slot, build := 0, latest; build >= low; slot, build = slot+1, build-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			probe(slot, build)
		}
	} else {
		pool := workerpool.New(opts.Workers, count)
		for slot, build := 0, latest; build >= low; slot, build = slot+1, build-1 {
			slot, build := slot, build
			pool.Submit(func() { probe(slot, build) })
		}
		pool.Drain(ctx)
		// A canceled drain can leave probes mid-flight; their slots are
		// not safe to read.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var names []string
	for _, name := range found {
		if name != "" {
			names = append(names, name)
		}
	}

	logger.Info("availability sweep finished",
		logging.KeyBranch, branch,
		"latest", latest,
		"window", count,
		"present", len(names),
	)

	return names, nil
}

// headOK is one probe. Probes do not retry: a miss is an answer, not a
// failure.
func (p *Planner) headOK(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := p.http.Do(req)
	if err != nil {
		log.Debug("probe miss", "url", url, logging.KeyError, err)
		return false
	}
	resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
