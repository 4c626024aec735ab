// Package platform identifies the machine the launcher runs on, in the
// terms the update surfaces use.
package platform

import (
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// Info describes the local machine. OS is the platform identifier
// (windows, linux or darwin); Hostname and OSVersion are display-only
// enrichment and may be empty when host inspection fails.
type Info struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Hostname  string `json:"hostname,omitempty"`
	OSVersion string `json:"osVersion,omitempty"`
}

// Detect inspects the local machine. The identifier fields always come
// from the runtime and never fail; host details are best-effort.
func Detect() Info {
	info := Info{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if h, err := host.Info(); err == nil {
		info.Hostname = h.Hostname
		info.OSVersion = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	}

	return info
}

// ArchiveOSKey maps a platform identifier to the key the download
// catalog files archives under. macOS archives live under "mac", not
// under the platform identifier; everything else matches.
func ArchiveOSKey(osID string) string {
	if osID == "darwin" {
		return "mac"
	}
	return osID
}
