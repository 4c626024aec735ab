package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/T03ty/Hytale-F2P/internal/config"
	"github.com/T03ty/Hytale-F2P/internal/platform"
)

func TestPrintStatusIncludesHostDetails(t *testing.T) {
	cfg := config.Default()
	cfg.InstalledVersion = "v115"
	info := platform.Info{
		OS:        "darwin",
		Arch:      "arm64",
		Hostname:  "dens-macbook",
		OSVersion: "darwin 14.5",
	}

	var buf bytes.Buffer
	printStatus(&buf, cfg, info)

	out := buf.String()
	for _, want := range []string{
		"Installed client: v115",
		"Platform:         darwin/arm64 (archive key mac)",
		"Host:             dens-macbook",
		"OS version:       darwin 14.5",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintStatusOmitsUnknownHostDetails(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, config.Default(), platform.Info{OS: "windows", Arch: "amd64"})

	out := buf.String()
	if !strings.Contains(out, "none (fresh install)") {
		t.Errorf("fresh install not reported:\n%s", out)
	}
	if strings.Contains(out, "Host:") || strings.Contains(out, "OS version:") {
		t.Errorf("host lines should be dropped when detection found nothing:\n%s", out)
	}
}
