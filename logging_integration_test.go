package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoggingWritesRotatingFileUnderRoot(t *testing.T) {
	root := t.TempDir()
	useBufferWriters(t)
	if code := run(cliOptions{root: root, checkOnly: true}); code != 0 {
		t.Fatalf("期望退出码 0，得到 %d", code)
	}

	entries, err := os.ReadDir(filepath.Join(root, "logs"))
	if err != nil {
		t.Fatalf("应创建日志目录: %v", err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "OpenStar-") {
		t.Fatalf("日志文件命名不符: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(root, "logs", entries[0].Name()))
	if err != nil {
		t.Fatalf("读取日志失败: %v", err)
	}
	if !strings.Contains(string(data), `"action":"check_modules"`) {
		t.Fatalf("文件日志应为 JSON 且包含检查结果: %s", data)
	}
}

func TestLoggingFallbackToStdout(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "logs"), []byte("not a dir"), 0o644); err != nil {
		t.Fatalf("写入占位文件失败: %v", err)
	}

	useBufferWriters(t)
	if code := run(cliOptions{root: root, checkOnly: true}); code != 0 {
		t.Fatalf("日志 fallback 不应导致失败，得到 %d", code)
	}
}
