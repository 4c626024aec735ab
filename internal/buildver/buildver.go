// Package buildver converts the version spellings found across the
// Hytale-F2P update surfaces (catalog file names, patch manifests, the
// legacy version endpoint, local config) into comparable build numbers.
package buildver

import (
	"strconv"
	"strings"
)

// ParseBuild extracts the build number from a version string. Three
// spellings are tried in order: a "v"-tagged version ("v128", including
// archive names like "v128-windows-x64.zip"), a patch file name
// ("128.pwr"), and a bare integer ("128"). Anything else yields 0 so an
// unknown version always sorts below every real build; parsing never
// fails.
func ParseBuild(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if n, ok := fromTagged(s); ok {
		return n
	}
	if n, ok := fromFileName(s); ok {
		return n
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return 0
}

// Format renders a build number in the canonical display form, "v128".
func Format(build int) string {
	return "v" + strconv.Itoa(build)
}

// fromTagged reads "v<digits>" and tolerates a trailing platform suffix
// after the digits.
func fromTagged(s string) (int, bool) {
	if s[0] != 'v' {
		return 0, false
	}
	digits := leadingDigits(s[1:])
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// fromFileName reads "<digits>.<ext>".
func fromFileName(s string) (int, bool) {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:dot])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func leadingDigits(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
