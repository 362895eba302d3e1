package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 校验启动参数，防止非法根目录或环境名进入后续流程。
func (b *Bootstrap) Validate() error {
	if b == nil {
		return errors.New("启动配置为空")
	}
	if strings.TrimSpace(b.Root) == "" {
		return newFieldError("Root", "不能为空")
	}
	if strings.TrimSpace(b.ModulesDir) == "" {
		return newFieldError("ModulesDir", "不能为空")
	}
	if strings.ContainsAny(b.ModulesDir, `/\`) || b.ModulesDir == ".." {
		return newFieldError("ModulesDir", "必须是单级目录名")
	}
	switch strings.ToLower(b.Environment) {
	case EnvironmentDevelopment, EnvironmentProduction:
		b.Environment = strings.ToLower(b.Environment)
	default:
		return newFieldError("Environment", "仅支持 development/production")
	}
	if b.ListenPort < 0 || b.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 0-65535")
	}
	if b.ShutdownTimeout < 0 {
		return newFieldError("ShutdownTimeout", "不能为负数")
	}
	return nil
}

// Validate 针对宿主配置做语义校验。
func (c *HostConfig) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return newFieldError("LogLevel", "无法解析日志级别")
	}
	if c.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if c.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}
	if c.BodyLimit <= 0 {
		return newFieldError("BodyLimit", "必须大于 0")
	}
	if c.ReadTimeout.DurationValue() < 0 {
		return newFieldError("ReadTimeout", "不能为负数")
	}
	if c.WriteTimeout.DurationValue() < 0 {
		return newFieldError("WriteTimeout", "不能为负数")
	}
	return nil
}

func joinPath(root, name string) string {
	return filepath.Join(root, name)
}
