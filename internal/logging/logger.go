package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openstar/openstar/internal/config"
)

// FilePrefix 是日志文件名前缀，完整形如 OpenStar-2006-01-02_15-04-05.log。
const FilePrefix = "OpenStar"

// Options 控制控制台与滚动文件两路输出。
type Options struct {
	Level string
	// Dir 为空时只输出到控制台。
	Dir        string
	MaxSize    int
	MaxBackups int
	Compress   bool
	// Console 默认为 os.Stdout。
	Console io.Writer
	// Now 用于生成文件名，测试可替换。
	Now func() time.Time
}

// OptionsFromHost 由宿主配置和根目录推导日志选项，文件位于 <root>/logs。
func OptionsFromHost(cfg config.HostConfig, root string) Options {
	opts := Options{
		Level:      cfg.LogLevel,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   cfg.LogCompress,
	}
	if root != "" {
		opts.Dir = filepath.Join(root, "logs")
	}
	return opts
}

// FileName 返回以启动时间命名的日志文件名。
func FileName(t time.Time) string {
	return fmt.Sprintf("%s-%s.log", FilePrefix, t.Format("2006-01-02_15-04-05"))
}

// InitLogger 初始化控制台文本日志，并在可用时追加 JSON 滚动文件输出；文件不可用时降级为仅控制台。
func InitLogger(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("无法解析日志级别: %w", err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(console)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	hook, hookErr := buildFileHook(opts)
	if hook != nil {
		logger.AddHook(hook)
	}

	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(logger.Out)
	logrus.SetLevel(logger.GetLevel())

	if hookErr != nil {
		fmt.Fprintf(os.Stderr, "logger_fallback: %v\n", hookErr)
		logger.WithFields(logrus.Fields{
			"action": "logger_fallback",
			"path":   opts.Dir,
		}).Warn(hookErr.Error())
	}
	return logger, nil
}

// FilePath 返回 logger 当前写入的日志文件路径，未启用文件输出时为空。
func FilePath(logger *logrus.Logger) string {
	if hook := findFileHook(logger); hook != nil {
		return hook.Path()
	}
	return ""
}

// Close 关闭文件输出，之后的日志只写控制台。
func Close(logger *logrus.Logger) error {
	if hook := findFileHook(logger); hook != nil {
		return hook.Close()
	}
	return nil
}

func buildFileHook(opts Options) (*FileHook, error) {
	if opts.Dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName(now())),
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}
	return newFileHook(rotator), nil
}

func findFileHook(logger *logrus.Logger) *FileHook {
	if logger == nil {
		return nil
	}
	for _, hooks := range logger.Hooks {
		for _, h := range hooks {
			if fh, ok := h.(*FileHook); ok {
				return fh
			}
		}
	}
	return nil
}
