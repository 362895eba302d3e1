package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// fakeBinary serves symbols from a map.
type fakeBinary map[string]any

func (b fakeBinary) Lookup(symbol string) (any, error) {
	if sym, ok := b[symbol]; ok {
		return sym, nil
	}
	return nil, fmt.Errorf("symbol %s not found", symbol)
}

// fakeOpener maps file paths to binaries; paths absent from the table fail
// the way a corrupt image does.
type fakeOpener struct {
	binaries map[string]Binary
	opened   []string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{binaries: make(map[string]Binary)}
}

func (o *fakeOpener) Open(path string) (Binary, error) {
	o.opened = append(o.opened, path)
	if bin, ok := o.binaries[path]; ok {
		return bin, nil
	}
	return nil, fmt.Errorf("%w: bad magic in %s", ErrInvalidImage, filepath.Base(path))
}

// addModule creates <modules>/<name>/<name>.so on disk and, when bin is not
// nil, serves it from the opener.
func (o *fakeOpener) addModule(t *testing.T, modules, name string, bin Binary) string {
	t.Helper()
	dir := filepath.Join(modules, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	path := filepath.Join(dir, name+Extension)
	if err := os.WriteFile(path, []byte("binary"), 0o644); err != nil {
		t.Fatalf("write binary failed: %v", err)
	}
	if bin != nil {
		o.binaries[path] = bin
	}
	return dir
}

var errBoom = errors.New("boom")
