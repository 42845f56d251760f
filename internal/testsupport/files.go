package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteMedia creates a stand-in media file of size bytes at path. The
// content starts with an ID3 marker so it resembles an mp3 upload; servers
// under test never decode it.
func WriteMedia(t testing.TB, path string, size int) []byte {
	t.Helper()

	header := []byte("ID3\x04\x00\x00")
	if size < len(header) {
		size = len(header)
	}
	data := make([]byte, size)
	copy(data, header)
	for i := len(header); i < size; i++ {
		data[i] = byte(i % 251)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return data
}
