// Package testutil provides golden-file helpers and canned domain fixtures
// for tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// updateGolden controls whether golden files should be rewritten.
// Use: go test ./... -update
var updateGolden = flag.Bool("update", false, "update golden files")

// ShouldUpdate returns true if golden files should be updated.
func ShouldUpdate() bool {
	return *updateGolden
}

// CompareGolden compares got against the golden file at path, failing with a
// diff on mismatch. With -update the file is rewritten instead.
func CompareGolden(t *testing.T, path string, got []byte) {
	t.Helper()

	if *updateGolden {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, got, 0644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("updated golden: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("golden file missing: %s\n\ngot:\n%s\n\nrun with -update to create it", path, got)
		}
		t.Fatalf("failed to read golden file: %v", err)
	}

	if !bytes.Equal(got, expected) {
		t.Fatalf("golden mismatch for %s:\n%s\nrun with -update to refresh", path, unifiedDiff(string(expected), string(got)))
	}
}

// MarshalStable renders a value as deterministic JSON: volatile fields
// removed, keys sorted, 2-space indent, trailing newline.
func MarshalStable(t *testing.T, v any) []byte {
	t.Helper()

	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal value: %v", err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("failed to round-trip value: %v", err)
	}

	out, err := json.MarshalIndent(stripVolatile(decoded), "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal stable JSON: %v", err)
	}
	return append(out, '\n')
}

// stripVolatile removes run-dependent fields so goldens stay stable across
// machines and runs. Maps marshal with sorted keys already, so key order
// needs no extra work.
func stripVolatile(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, inner := range val {
			if volatileFields[k] {
				continue
			}
			result[k] = stripVolatile(inner)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, inner := range val {
			result[i] = stripVolatile(inner)
		}
		return result
	default:
		return v
	}
}

var volatileFields = map[string]bool{
	"timestamp":    true,
	"recorded_at":  true,
	"generated_at": true,
	"enqueued_at":  true,
	"added_at":     true,
	"updated_at":   true,
	"duration":     true,
}

// unifiedDiff produces a small line diff, enough to spot a golden drift.
func unifiedDiff(expected, got string) string {
	expectedLines := strings.Split(expected, "\n")
	gotLines := strings.Split(got, "\n")

	maxLines := len(expectedLines)
	if len(gotLines) > maxLines {
		maxLines = len(gotLines)
	}

	var buf bytes.Buffer
	for i := 0; i < maxLines; i++ {
		var expLine, gotLine string
		if i < len(expectedLines) {
			expLine = expectedLines[i]
		}
		if i < len(gotLines) {
			gotLine = gotLines[i]
		}
		if expLine == gotLine {
			continue
		}
		if expLine != "" {
			fmt.Fprintf(&buf, "%4d -%s\n", i+1, expLine)
		}
		if gotLine != "" {
			fmt.Fprintf(&buf, "%4d +%s\n", i+1, gotLine)
		}
	}
	return buf.String()
}

// SortedKeys returns the sorted keys of a string-keyed map, handy for
// deterministic assertions.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
