package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/openstar/openstar/internal/config"
)

func TestInitLoggerConsoleOnly(t *testing.T) {
	logger, err := InitLogger(Options{Level: "info"})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	if logger.Out != os.Stdout {
		t.Fatalf("未指定目录时应输出到 stdout")
	}
	if FilePath(logger) != "" {
		t.Fatalf("未指定目录时不应有文件输出")
	}
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := InitLogger(Options{Level: "loud"}); err == nil {
		t.Fatalf("非法日志级别应返回错误")
	}
}

func TestInitLoggerWritesTextConsoleAndJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	started := time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local)

	logger, err := InitLogger(Options{
		Level:   "debug",
		Dir:     dir,
		Console: &console,
		Now:     func() time.Time { return started },
	})
	if err != nil {
		t.Fatalf("配置失败: %v", err)
	}
	t.Cleanup(func() { _ = Close(logger) })

	logger.WithField("source", "Hello").Info("registered cluster Hello v1.0.0")

	want := filepath.Join(dir, "OpenStar-2024-03-05_07-08-09.log")
	if got := FilePath(logger); got != want {
		t.Fatalf("日志文件路径不符: %s", got)
	}
	if !strings.Contains(console.String(), "registered cluster Hello v1.0.0") {
		t.Fatalf("控制台应输出文本日志: %q", console.String())
	}
	if strings.HasPrefix(strings.TrimSpace(console.String()), "{") {
		t.Fatalf("控制台不应是 JSON: %q", console.String())
	}

	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("文件日志应为 JSON: %v (%s)", err, data)
	}
	if entry["source"] != "Hello" || entry["msg"] != "registered cluster Hello v1.0.0" {
		t.Fatalf("文件日志字段不符: %v", entry)
	}
}

func TestInitLoggerFallsBackWhenDirUnusable(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("file"), 0o644); err != nil {
		t.Fatalf("写入占位文件失败: %v", err)
	}

	var console bytes.Buffer
	logger, err := InitLogger(Options{Level: "info", Dir: filepath.Join(blocked, "logs"), Console: &console})
	if err != nil {
		t.Fatalf("初始化不应失败: %v", err)
	}
	if FilePath(logger) != "" {
		t.Fatalf("fallback 时不应有文件输出")
	}
	if !strings.Contains(console.String(), "logger_fallback") {
		t.Fatalf("fallback 应记录告警: %q", console.String())
	}
}

func TestOptionsFromHost(t *testing.T) {
	cfg := config.HostConfig{}
	cfg.SetDefaults()
	opts := OptionsFromHost(cfg, "/srv/openstar")
	if opts.Dir != filepath.Join("/srv/openstar", "logs") {
		t.Fatalf("日志目录不符: %s", opts.Dir)
	}
	if opts.Level != "info" || opts.MaxSize != 100 || opts.MaxBackups != 10 || !opts.Compress {
		t.Fatalf("默认选项不符: %+v", opts)
	}
}

func TestClusterFields(t *testing.T) {
	fields := ClusterFields("load_cluster", "Hello", "1.0.0")
	if fields["source"] != "Hello" || fields["version"] != "1.0.0" || fields["action"] != "load_cluster" {
		t.Fatalf("字段不符: %v", fields)
	}
	if _, ok := ClusterFields("x", "Hello", "")["version"]; ok {
		t.Fatalf("空版本不应写入字段")
	}
}
