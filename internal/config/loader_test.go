package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBootstrapDefaults(t *testing.T) {
	boot, err := LoadBootstrap("", Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if !filepath.IsAbs(boot.Root) {
		t.Fatalf("Root 应被解析为绝对路径: %s", boot.Root)
	}
	if filepath.Base(boot.Root) != DefaultRoot {
		t.Fatalf("默认 Root 应为 %s，得到 %s", DefaultRoot, boot.Root)
	}
	if boot.ModulesDir != "Modules" {
		t.Fatalf("默认模块目录应为 Modules，得到 %s", boot.ModulesDir)
	}
	if boot.Environment != EnvironmentProduction {
		t.Fatalf("默认环境应为 production，得到 %s", boot.Environment)
	}
	if boot.ModulesPath() != filepath.Join(boot.Root, "Modules") {
		t.Fatalf("ModulesPath 拼接错误: %s", boot.ModulesPath())
	}
}

func TestLoadBootstrapFromFile(t *testing.T) {
	boot, err := LoadBootstrap(testConfigPath(t, "valid.toml"), Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if !boot.IsDevelopment() {
		t.Fatalf("应读取到 development 环境")
	}
	if boot.ListenPort != 6000 {
		t.Fatalf("应读取到端口覆盖 6000，得到 %d", boot.ListenPort)
	}
}

func TestLoadBootstrapRejectsUnknownEnvironment(t *testing.T) {
	if _, err := LoadBootstrap(testConfigPath(t, "invalid.toml"), Overrides{}); err == nil {
		t.Fatalf("未知环境应返回错误")
	}
}

func TestLoadBootstrapPriority(t *testing.T) {
	path := writeTempConfig(t, `
Root = "/from/file"
Environment = "production"
`)
	t.Setenv("OPENSTAR_ENVIRONMENT", "development")

	boot, err := LoadBootstrap(path, Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if boot.Environment != EnvironmentDevelopment {
		t.Fatalf("环境变量应高于配置文件，得到 %s", boot.Environment)
	}
	if boot.Root != "/from/file" {
		t.Fatalf("未覆盖时应保留文件中的 Root，得到 %s", boot.Root)
	}

	override := t.TempDir()
	boot, err = LoadBootstrap(path, Overrides{Root: override, Environment: "production"})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if boot.Root != override {
		t.Fatalf("flag 应高于配置文件，得到 %s", boot.Root)
	}
	if boot.Environment != EnvironmentProduction {
		t.Fatalf("flag 应高于环境变量，得到 %s", boot.Environment)
	}
}

func TestLoadBootstrapMissingFile(t *testing.T) {
	if _, err := LoadBootstrap(filepath.Join(t.TempDir(), "missing.toml"), Overrides{}); err == nil {
		t.Fatalf("缺失的配置文件应返回错误")
	}
}

func TestLoadBootstrapShutdownTimeout(t *testing.T) {
	boot, err := LoadBootstrap("", Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if boot.ShutdownTimeout.DurationValue() != 10*time.Second {
		t.Fatalf("默认关闭超时应为 10s，得到 %s", boot.ShutdownTimeout.DurationValue())
	}

	path := writeTempConfig(t, `ShutdownTimeout = 15`)
	boot, err = LoadBootstrap(path, Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if boot.ShutdownTimeout.DurationValue() != 15*time.Second {
		t.Fatalf("数字应按秒解析，得到 %s", boot.ShutdownTimeout.DurationValue())
	}

	t.Setenv("OPENSTAR_SHUTDOWNTIMEOUT", "1m")
	boot, err = LoadBootstrap(path, Overrides{})
	if err != nil {
		t.Fatalf("LoadBootstrap 返回错误: %v", err)
	}
	if boot.ShutdownTimeout.DurationValue() != time.Minute {
		t.Fatalf("环境变量应覆盖文件，得到 %s", boot.ShutdownTimeout.DurationValue())
	}
}
