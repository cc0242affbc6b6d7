package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	if Info() == "" {
		t.Error("Info() should never be empty")
	}
	if !strings.HasPrefix(Info(), Version) {
		t.Errorf("Info() = %q, want prefix %q", Info(), Version)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	for _, part := range []string{Version, "Commit:", "Built:"} {
		if !strings.Contains(full, part) {
			t.Errorf("Full() missing %q: %s", part, full)
		}
	}
}
