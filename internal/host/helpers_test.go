package host

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/cluster/clustertest"
	"github.com/openstar/openstar/internal/config"
	"github.com/openstar/openstar/loader"
)

type fakeBinary map[string]any

func (b fakeBinary) Lookup(symbol string) (any, error) {
	if sym, ok := b[symbol]; ok {
		return sym, nil
	}
	return nil, fmt.Errorf("symbol %s not found", symbol)
}

// modules 在磁盘上放置 <Name>/<Name>.so 占位文件，并由 Opener 提供对应的假二进制。
type modules struct {
	root     string
	binaries map[string]loader.Binary
}

func (m *modules) Open(path string) (loader.Binary, error) {
	if bin, ok := m.binaries[path]; ok {
		return bin, nil
	}
	return nil, fmt.Errorf("%w: corrupt image %s", loader.ErrInvalidImage, filepath.Base(path))
}

func (m *modules) add(t *testing.T, dirName string, bin loader.Binary) {
	t.Helper()
	dir := filepath.Join(m.root, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建模块目录失败: %v", err)
	}
	path := filepath.Join(dir, dirName+loader.Extension)
	if err := os.WriteFile(path, []byte("\x7fELF"), 0o644); err != nil {
		t.Fatalf("写入模块文件失败: %v", err)
	}
	if bin != nil {
		m.binaries[path] = bin
	}
}

// stubs 导出一组 clustertest.Stub，并把实例登记到 created 以便断言。
func stubs(journal *clustertest.Journal, created map[string]*clustertest.Stub, names ...string) loader.Binary {
	descs := make([]loader.Descriptor, 0, len(names))
	for _, name := range names {
		name := name
		descs = append(descs, loader.Descriptor{
			Name: name,
			New: func(h cluster.Host) (any, error) {
				s, err := clustertest.NewStub(h, name, "1.0.0", journal)
				if err != nil {
					return nil, err
				}
				if created != nil {
					created[name] = s
				}
				return s, nil
			},
		})
	}
	return fakeBinary{loader.ExportSymbol: func() []loader.Descriptor { return descs }}
}

type fixture struct {
	host    *Host
	hook    *logtest.Hook
	modules *modules
	boot    *config.Bootstrap
}

// newFixture 创建根目录与 Modules 目录，New 延迟到 build 调用，便于先放置模块。
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	boot := &config.Bootstrap{
		Root:        root,
		ModulesDir:  "Modules",
		Environment: config.EnvironmentProduction,
	}
	return &fixture{
		boot:    boot,
		modules: &modules{root: boot.ModulesPath(), binaries: make(map[string]loader.Binary)},
	}
}

func (f *fixture) build(t *testing.T) *Host {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	h, err := New(Options{Bootstrap: f.boot, Opener: f.modules, Logger: logger})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.host = h
	f.hook = hook
	return h
}

func (f *fixture) hasLog(level logrus.Level, msg string) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
