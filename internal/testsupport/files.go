package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with size bytes of content derived from its base
// name, so copies of different sources never compare equal. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	size = max(size, 1)
	seed := []byte(filepath.Base(path))
	content := bytes.Repeat(seed, int(size)/len(seed)+1)[:size]

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteSequence writes frames first..last using a printf name template such
// as "sim.%04d.bgeo.sc" and returns the paths in frame order.
func WriteSequence(t testing.TB, dir, template string, first, last int) []string {
	t.Helper()

	var paths []string
	for frame := first; frame <= last; frame++ {
		p := filepath.Join(dir, fmt.Sprintf(template, frame))
		WriteFile(t, p, int64(16+frame%7))
		paths = append(paths, p)
	}
	return paths
}
