package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// UnmarshalJSON 接受 "30s" 形式的字符串，或以秒为单位的数字。
func (d *Duration) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		return d.UnmarshalText([]byte(text))
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid duration value: %s", raw)
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// MarshalJSON 以 "30s" 形式写出，保证 config.json 可读。
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// Bootstrap 描述进程启动前就需要确定的参数：根目录、运行环境以及可选的端口覆盖。
// 来源优先级：CLI flag > OPENSTAR_* 环境变量 > --config 指定的 TOML 文件 > 默认值。
type Bootstrap struct {
	Root        string `mapstructure:"Root"`
	ModulesDir  string `mapstructure:"ModulesDir"`
	Environment string `mapstructure:"Environment"`
	ListenPort  int    `mapstructure:"ListenPort"`
	// ShutdownTimeout 限制优雅关闭等待进行中请求的时间，0 表示一直等待。
	ShutdownTimeout Duration `mapstructure:"ShutdownTimeout"`
}

// ModulesPath 返回模块目录的绝对路径，即 <Root>/<ModulesDir>。
func (b Bootstrap) ModulesPath() string {
	return joinPath(b.Root, b.ModulesDir)
}

// IsDevelopment 表示当前是否运行在开发环境，DeveloperOnly 的接口仅在此时注册。
func (b Bootstrap) IsDevelopment() bool {
	return strings.EqualFold(b.Environment, EnvironmentDevelopment)
}

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// HostConfig 是宿主自身持久化在 <Root>/config.json 中的配置。
type HostConfig struct {
	ListenPort    int      `json:"ListenPort"`
	LogLevel      string   `json:"LogLevel"`
	LogMaxSize    int      `json:"LogMaxSize"`
	LogMaxBackups int      `json:"LogMaxBackups"`
	LogCompress   bool     `json:"LogCompress"`
	BodyLimit     int      `json:"BodyLimit"`
	ReadTimeout   Duration `json:"ReadTimeout"`
	WriteTimeout  Duration `json:"WriteTimeout"`
}

// SetDefaults 在首次生成 config.json 或字段缺失时提供默认值。
func (c *HostConfig) SetDefaults() {
	c.ListenPort = 5000
	c.LogLevel = "info"
	c.LogMaxSize = 100
	c.LogMaxBackups = 10
	c.LogCompress = true
	c.BodyLimit = 4 * 1024 * 1024
	c.ReadTimeout = Duration(30 * time.Second)
	c.WriteTimeout = Duration(30 * time.Second)
}
