package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

var repoRoot string

func init() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			repoRoot = dir
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	if repoRoot == "" {
		t.Fatal("无法定位项目根目录")
	}
	return repoRoot
}

func configFixture(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "internal", "config", "testdata", name)
}

type symbols map[string]any

func (s symbols) Lookup(name string) (any, error) {
	if v, ok := s[name]; ok {
		return v, nil
	}
	return nil, os.ErrNotExist
}

// writeModule 放置 <root>/Modules/<name>/<name>.so 占位文件并返回其路径。
func writeModule(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, "Modules", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("创建模块目录失败: %v", err)
	}
	path := filepath.Join(dir, name+".so")
	if err := os.WriteFile(path, []byte("\x7fELF"), 0o644); err != nil {
		t.Fatalf("写入模块失败: %v", err)
	}
	return path
}
