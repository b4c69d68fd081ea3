package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// pngHeader is the smallest prefix content sniffers accept as PNG.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteImage writes a file that sniffs as a PNG image.
func WriteImage(t testing.TB, path string) string {
	t.Helper()
	return WriteFile(t, path, pngHeader)
}
