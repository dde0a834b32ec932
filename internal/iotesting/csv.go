package iotesting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteExport writes tab-separated export files into a temporary
// directory and returns it. Lines use "|" as a field separator for
// readability.
func WriteExport(t *testing.T, files map[string][]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, lines := range files {
		var sb strings.Builder
		for _, l := range lines {
			sb.WriteString(strings.ReplaceAll(l, "|", "\t"))
			sb.WriteByte('\n')
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}
