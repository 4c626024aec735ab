package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/T03ty/Hytale-F2P/internal/config"
	"github.com/T03ty/Hytale-F2P/internal/planner"
	"github.com/T03ty/Hytale-F2P/internal/platform"
)

// probeReport is the probe command's output shape.
type probeReport struct {
	Branch   string   `json:"branch" yaml:"branch"`
	Latest   string   `json:"latest" yaml:"latest"`
	Archives []string `json:"archives" yaml:"archives"`
}

func printPlan(plan planner.UpdatePlan, format string) error {
	switch format {
	case "json":
		return printJSON(plan)
	case "yaml":
		return printYAML(plan)
	case "text", "":
		printPlanText(plan)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printProbe(report probeReport, format string) error {
	switch format {
	case "json":
		return printJSON(report)
	case "yaml":
		return printYAML(report)
	case "text", "":
		printProbeText(report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(v any) error {
	enc := yaml.NewEncoder(os.Stdout)
	if err := enc.Encode(v); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func printPlanText(plan planner.UpdatePlan) {
	current := plan.Current
	if current == "" {
		current = "none (fresh install)"
	}

	fmt.Printf("Branch:  %s\n", plan.Branch)
	fmt.Printf("Current: %s\n", current)
	fmt.Printf("Target:  %s\n", plan.Target.TargetVersion)
	fmt.Printf("Action:  %s\n", plan.Action)
	fmt.Println()

	switch plan.Action {
	case planner.ActionUpToDate:
		fmt.Println("Nothing to download.")
		return
	case planner.ActionDelta:
		fmt.Printf("Delta patch: %s (from %s)\n", plan.Target.DeltaURL, plan.Target.SourceVersion())
		if plan.Target.DeltaHash != "" {
			fmt.Printf("SHA-256:     %s\n", plan.Target.DeltaHash)
		}
	case planner.ActionChain:
		fmt.Printf("Patch chain, oldest first (%d steps):\n", len(plan.Steps))
		for i, step := range plan.Steps {
			fmt.Printf("  %d. %s\n", i+1, step)
		}
	case planner.ActionFullArchive:
		fmt.Printf("Full archive: %s\n", plan.Target.ArchiveURL)
	}

	if plan.Action != planner.ActionFullArchive && plan.Target.ArchiveURL != "" {
		fmt.Printf("Full archive fallback: %s\n", plan.Target.ArchiveURL)
	}
	if plan.Target.ReleaseNotes != "" {
		fmt.Printf("\nRelease notes: %s\n", plan.Target.ReleaseNotes)
	}
}

func printProbeText(report probeReport) {
	if len(report.Archives) == 0 {
		fmt.Printf("No archives found on the mirror near %s (%s).\n", report.Latest, report.Branch)
		return
	}
	fmt.Printf("Archives on the mirror (%s, newest first):\n", report.Branch)
	for _, name := range report.Archives {
		fmt.Printf("  %s\n", name)
	}
}

// printStatus renders the launcher's view of the local install. Host
// details are best-effort and dropped from the output when detection
// came up empty.
func printStatus(w io.Writer, cfg *config.Config, info platform.Info) {
	installed := cfg.InstalledVersion
	if installed == "" {
		installed = "none (fresh install)"
	}

	fmt.Fprintf(w, "Installed client: %s\n", installed)
	fmt.Fprintf(w, "Branch:           %s\n", cfg.Branch)
	fmt.Fprintf(w, "Platform:         %s/%s (archive key %s)\n", info.OS, info.Arch, platform.ArchiveOSKey(info.OS))
	if info.Hostname != "" {
		fmt.Fprintf(w, "Host:             %s\n", info.Hostname)
	}
	if info.OSVersion != "" {
		fmt.Fprintf(w, "OS version:       %s\n", info.OSVersion)
	}
	if cfg.InstallDir != "" {
		fmt.Fprintf(w, "Install dir:      %s\n", cfg.InstallDir)
	}
	fmt.Fprintf(w, "Catalog endpoint: %s\n", cfg.PrimaryEndpoint)
	fmt.Fprintf(w, "Patch endpoint:   %s\n", cfg.PatchEndpoint)
	fmt.Fprintf(w, "Mirror:           %s\n", cfg.CDNBaseURL)
}
