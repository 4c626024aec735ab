package buildver

import "testing"

func TestParseBuild(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"v128", 128},
		{"v128-windows-x64.zip", 128},
		{"v9-mac-arm64.zip", 9},
		{"128.pwr", 128},
		{"6.pwr", 6},
		{"42", 42},
		{" v7 ", 7},
		{"v0", 0},
		{"", 0},
		{"banana", 0},
		{"v", 0},
		{"vNext", 0},
		{".pwr", 0},
		{"-5", 0},
		{"x64-windows.zip", 0},
	}

	for _, tc := range cases {
		if got := ParseBuild(tc.in); got != tc.want {
			t.Errorf("ParseBuild(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseBuildPrefersTaggedForm(t *testing.T) {
	// "v12.zip" matches both the tagged and the file-name reading; the
	// tagged one wins and both agree anyway.
	if got := ParseBuild("v12.zip"); got != 12 {
		t.Fatalf("ParseBuild(v12.zip) = %d, want 12", got)
	}
}

func TestFormatRoundTrips(t *testing.T) {
	for _, build := range []int{0, 1, 128, 99999} {
		if got := ParseBuild(Format(build)); got != build {
			t.Fatalf("ParseBuild(Format(%d)) = %d", build, got)
		}
	}
}

func TestUnknownSortsLowest(t *testing.T) {
	if ParseBuild("unreleased-beta") >= ParseBuild("v1") {
		t.Fatal("unparsable version must sort below every real build")
	}
}
