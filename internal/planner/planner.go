// Package planner turns "I have version X and want version Y" into a
// concrete download decision: one delta patch, one full archive, or a
// chain of per-build full patches. It only decides; downloading and
// applying belong to the launcher's install layer.
package planner

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/T03ty/Hytale-F2P/internal/archive"
	"github.com/T03ty/Hytale-F2P/internal/buildver"
	"github.com/T03ty/Hytale-F2P/internal/catalog"
	"github.com/T03ty/Hytale-F2P/internal/logging"
)

var log = logging.L("planner")

// ManifestSource is the slice of the catalog client the planner needs.
type ManifestSource interface {
	PatchManifest(ctx context.Context, branch string) map[int]catalog.PatchEntry
}

// Item describes one resolved transition to a target build.
type Item struct {
	TargetBuild   int    `json:"targetBuild" yaml:"targetBuild"`
	TargetVersion string `json:"targetVersion" yaml:"targetVersion"`

	// ArchiveURL always points at the target's full archive, either
	// straight from the manifest or synthesized from the CDN layout.
	ArchiveURL string `json:"archiveUrl" yaml:"archiveUrl"`

	// Delta fields are populated only when the manifest lists a patch.
	DeltaURL  string `json:"deltaUrl,omitempty" yaml:"deltaUrl,omitempty"`
	DeltaHash string `json:"deltaHash,omitempty" yaml:"deltaHash,omitempty"`

	// SourceBuild is the build the delta upgrades from. When the
	// manifest does not declare one it defaults to TargetBuild-1 for
	// display; SourceDeclared records which case this is. The default is
	// a guess about how builds usually follow each other, nothing
	// verified, so an undeclared source never qualifies for a delta.
	SourceBuild    int  `json:"sourceBuild" yaml:"sourceBuild"`
	SourceDeclared bool `json:"sourceDeclared" yaml:"sourceDeclared"`

	ProperDelta bool `json:"properDelta" yaml:"properDelta"`

	// DeltaApplicable is CanApplyDelta evaluated against the installed
	// version at resolve time.
	DeltaApplicable bool `json:"deltaApplicable" yaml:"deltaApplicable"`

	ReleaseNotes string `json:"releaseNotes,omitempty" yaml:"releaseNotes,omitempty"`
}

// SourceVersion is the display form of SourceBuild.
func (i Item) SourceVersion() string {
	return buildver.Format(i.SourceBuild)
}

// Action says what kind of download an UpdatePlan calls for.
type Action string

const (
	ActionFullArchive Action = "full-archive"
	ActionDelta       Action = "delta"
	ActionChain       Action = "chain"
	ActionUpToDate    Action = "up-to-date"
)

// UpdatePlan is the launcher's decision for one transition.
type UpdatePlan struct {
	Branch  string   `json:"branch" yaml:"branch"`
	Current string   `json:"current,omitempty" yaml:"current,omitempty"`
	Target  Item     `json:"target" yaml:"target"`
	Action  Action   `json:"action" yaml:"action"`
	Steps   []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// Config wires a Planner. CurrentVersion supplies the installed version
// at resolve time ("" means fresh install); the planner never caches it.
type Config struct {
	Manifests      ManifestSource
	Locator        *archive.Locator
	OS             string
	Arch           string
	CurrentVersion func() string
	HTTPClient     *http.Client
}

// Planner resolves transitions against one platform and branch layout.
type Planner struct {
	manifests ManifestSource
	locator   *archive.Locator
	osID      string
	arch      string
	current   func() string
	http      *http.Client
}

// noManifests serves plans for branches that publish no patch manifest.
type noManifests struct{}

func (noManifests) PatchManifest(context.Context, string) map[int]catalog.PatchEntry {
	return map[int]catalog.PatchEntry{}
}

// New builds a Planner from cfg.
func New(cfg Config) *Planner {
	if cfg.Manifests == nil {
		cfg.Manifests = noManifests{}
	}
	if cfg.Locator == nil {
		cfg.Locator = archive.NewLocator("")
	}
	if cfg.CurrentVersion == nil {
		cfg.CurrentVersion = func() string { return "" }
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Planner{
		manifests: cfg.Manifests,
		locator:   cfg.Locator,
		osID:      cfg.OS,
		arch:      cfg.Arch,
		current:   cfg.CurrentVersion,
		http:      cfg.HTTPClient,
	}
}

// Describe assembles the plan item for a target version on a branch.
// With a manifest entry the item carries the published URLs and hash;
// without one it synthesizes the archive URL from the CDN layout and
// leaves the delta fields empty.
func (p *Planner) Describe(ctx context.Context, targetVersion, branch string) (Item, error) {
	target := buildver.ParseBuild(targetVersion)
	if target == 0 {
		return Item{}, fmt.Errorf("target version %q does not name a build", targetVersion)
	}

	item := Item{
		TargetBuild:   target,
		TargetVersion: buildver.Format(target),
		SourceBuild:   target - 1,
	}

	if entry, ok := p.manifests.PatchManifest(ctx, branch)[target]; ok {
		item.ArchiveURL = entry.OriginalURL
		item.DeltaURL = entry.PatchURL
		item.DeltaHash = entry.PatchHash
		item.ProperDelta = entry.ProperPatch
		item.ReleaseNotes = entry.PatchNote
		if entry.From != nil {
			item.SourceBuild = *entry.From
			item.SourceDeclared = true
		}
	}

	if item.ArchiveURL == "" {
		// Missing or incomplete manifest entry: the CDN layout still
		// names a full archive for every published build.
		if url, ok := p.locator.URL(target, branch, p.osID, p.arch); ok {
			item.ArchiveURL = url
		}
	}

	item.DeltaApplicable = CanApplyDelta(p.current(), item)

	return item, nil
}

// CanApplyDelta reports whether the item's delta patch can be applied on
// top of the given installed version. Five conditions, each sufficient
// to refuse on its own: a delta URL exists, the delta is marked proper,
// an installed version is known, the manifest declared the source build,
// and the installed build equals that source exactly. Deltas never
// chain.
func CanApplyDelta(current string, item Item) bool {
	if item.DeltaURL == "" {
		return false
	}
	if !item.ProperDelta {
		return false
	}
	if current == "" {
		return false
	}
	if !item.SourceDeclared {
		return false
	}
	return buildver.ParseBuild(current) == item.SourceBuild
}

// IntermediateSteps lists the full-patch files needed to walk from the
// current version up to the target, oldest first: every build after
// current, up to and including target. No current version means no
// chain; fresh installs take the full archive instead.
func IntermediateSteps(current, target string) []string {
	if current == "" {
		return nil
	}

	from := buildver.ParseBuild(current)
	to := buildver.ParseBuild(target)

	var steps []string
	for b := from + 1; b <= to; b++ {
		steps = append(steps, archive.PatchFileName(b))
	}
	return steps
}

// Resolve runs the full decision for one transition: fresh installs get
// the target's full archive, an applicable delta beats everything else,
// and otherwise the plan is the ascending full-patch chain.
func (p *Planner) Resolve(ctx context.Context, targetVersion, branch string) (UpdatePlan, error) {
	logger := logging.FromContext(ctx)

	item, err := p.Describe(ctx, targetVersion, branch)
	if err != nil {
		return UpdatePlan{}, err
	}

	current := p.current()
	plan := UpdatePlan{
		Branch:  branch,
		Current: current,
		Target:  item,
	}

	switch {
	case current == "":
		plan.Action = ActionFullArchive
	case buildver.ParseBuild(current) >= item.TargetBuild:
		plan.Action = ActionUpToDate
	case item.DeltaApplicable:
		plan.Action = ActionDelta
	default:
		plan.Action = ActionChain
		plan.Steps = IntermediateSteps(current, item.TargetVersion)
	}

	logger.Info("transition resolved",
		logging.KeyBranch, branch,
		"current", current,
		"target", item.TargetVersion,
		"action", plan.Action,
		"steps", len(plan.Steps),
	)

	return plan, nil
}
