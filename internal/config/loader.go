package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 是所有启动参数环境变量的前缀，例如 OPENSTAR_ROOT。
const EnvPrefix = "OPENSTAR"

// DefaultRoot 是未指定根目录时使用的相对路径。
const DefaultRoot = "OpenStarRoot"

// Overrides 承载 CLI flag 的显式取值，空值表示未设置。
type Overrides struct {
	Root        string
	Environment string
	ListenPort  int
}

// LoadBootstrap 合并默认值、可选 TOML 文件、环境变量与 CLI 覆盖项，并返回校验后的启动参数。
func LoadBootstrap(path string, overrides Overrides) (*Bootstrap, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var boot Bootstrap
	if err := v.Unmarshal(&boot, viper.DecodeHook(DurationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyOverrides(&boot, overrides)

	if err := boot.Validate(); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(boot.Root)
	if err != nil {
		return nil, fmt.Errorf("无法解析根目录: %w", err)
	}
	boot.Root = absRoot

	return &boot, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Root", DefaultRoot)
	v.SetDefault("ModulesDir", "Modules")
	v.SetDefault("Environment", EnvironmentProduction)
	v.SetDefault("ListenPort", 0)
	v.SetDefault("ShutdownTimeout", "10s")
}

func applyOverrides(b *Bootstrap, o Overrides) {
	if trimmed := strings.TrimSpace(o.Root); trimmed != "" {
		b.Root = trimmed
	}
	if trimmed := strings.TrimSpace(o.Environment); trimmed != "" {
		b.Environment = trimmed
	}
	if o.ListenPort != 0 {
		b.ListenPort = o.ListenPort
	}
}

// DurationDecodeHook 让 mapstructure 能把字符串、秒数等形式解码为 Duration。
func DurationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
