package logging

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileHook 以 JSON 格式把每条日志写入滚动文件，与控制台的文本格式互不影响。
type FileHook struct {
	mu        sync.Mutex
	out       *lumberjack.Logger
	formatter logrus.Formatter
	closed    bool
}

func newFileHook(out *lumberjack.Logger) *FileHook {
	return &FileHook{
		out:       out,
		formatter: &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
	}
}

// Levels 覆盖全部级别，实际过滤由 logger 级别决定。
func (h *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *FileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	_, err = h.out.Write(line)
	return err
}

// Path 返回当前日志文件路径。
func (h *FileHook) Path() string {
	return h.out.Filename
}

// Close 关闭底层文件。
func (h *FileHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.out.Close()
}
