package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/T03ty/Hytale-F2P/internal/buildver"
)

var branchRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// ValidationResult splits config problems by severity. Fatals mean the
// launcher cannot safely talk to the update surfaces; Warnings were
// auto-corrected or are cosmetic.
type ValidationResult struct {
	Fatals   []error
	Warnings []error
}

func (r *ValidationResult) HasFatals() bool {
	return len(r.Fatals) > 0
}

func (r *ValidationResult) AllErrors() []error {
	all := make([]error, 0, len(r.Fatals)+len(r.Warnings))
	all = append(all, r.Fatals...)
	all = append(all, r.Warnings...)
	return all
}

// ValidateTiered checks the config and sorts findings by severity.
// Dangerous zero-values are clamped in place and reported as warnings.
func (c *Config) ValidateTiered() ValidationResult {
	var result ValidationResult

	if c.Branch == "" {
		result.Warnings = append(result.Warnings, fmt.Errorf("branch is empty, using release"))
		c.Branch = "release"
	} else if !branchRegex.MatchString(c.Branch) {
		result.Fatals = append(result.Fatals, fmt.Errorf("branch %q contains invalid characters", c.Branch))
	}

	for _, ep := range []struct {
		key string
		val string
	}{
		{"primary_endpoint", c.PrimaryEndpoint},
		{"legacy_endpoint", c.LegacyEndpoint},
		{"patch_endpoint", c.PatchEndpoint},
		{"cdn_base_url", c.CDNBaseURL},
	} {
		if ep.val == "" {
			continue
		}
		u, err := url.Parse(ep.val)
		if err != nil {
			result.Fatals = append(result.Fatals, fmt.Errorf("%s %q is not a valid URL: %w", ep.key, ep.val, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			result.Fatals = append(result.Fatals, fmt.Errorf("%s scheme must be http or https, got %q", ep.key, u.Scheme))
		}
	}

	if c.InstalledVersion != "" && buildver.ParseBuild(c.InstalledVersion) == 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("installed_version %q does not parse to a build number, treating as unknown", c.InstalledVersion))
	}

	if c.ProbeWorkers < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("probe_workers %d is below minimum 1, clamping", c.ProbeWorkers))
		c.ProbeWorkers = 1
	} else if c.ProbeWorkers > 16 {
		result.Warnings = append(result.Warnings, fmt.Errorf("probe_workers %d exceeds maximum 16, clamping", c.ProbeWorkers))
		c.ProbeWorkers = 16
	}

	if c.ProbeMax < 1 {
		result.Warnings = append(result.Warnings, fmt.Errorf("probe_max %d is below minimum 1, clamping", c.ProbeMax))
		c.ProbeMax = 1
	} else if c.ProbeMax > 500 {
		result.Warnings = append(result.Warnings, fmt.Errorf("probe_max %d exceeds maximum 500, clamping", c.ProbeMax))
		c.ProbeMax = 500
	}

	if c.ProbeRPS < 0 {
		result.Warnings = append(result.Warnings, fmt.Errorf("probe_rps %v is negative, disabling pacing", c.ProbeRPS))
		c.ProbeRPS = 0
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		result.Warnings = append(result.Warnings, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	return result
}

// Validate is the logging wrapper around ValidateTiered: warnings are
// logged, everything is returned. Startup treats fatals as fatal.
func (c *Config) Validate() []error {
	result := c.ValidateTiered()
	for _, err := range result.Warnings {
		slog.Warn("config validation", "error", err)
	}
	for _, err := range result.Fatals {
		slog.Error("config validation", "error", err)
	}
	return result.AllErrors()
}
