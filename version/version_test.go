package version

import "testing"

func TestGetFullVersion(t *testing.T) {
	saved := [3]string{Version, GitCommit, BuildDate}
	defer func() { Version, GitCommit, BuildDate = saved[0], saved[1], saved[2] }()

	Version, GitCommit, BuildDate = "dev", "unknown", "unknown"
	if got := GetFullVersion(); got != "dev" {
		t.Errorf("GetFullVersion failed: expected dev, got %s", got)
	}

	Version, GitCommit, BuildDate = "v1.2.0", "abc123", "2026-01-01"
	if got := GetFullVersion(); got != "v1.2.0 (abc123, 2026-01-01)" {
		t.Errorf("GetFullVersion failed: got %s", got)
	}
}
