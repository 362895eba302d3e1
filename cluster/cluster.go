package cluster

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/openstar/openstar/internal/configstore"
	"github.com/openstar/openstar/internal/storage"
	"github.com/openstar/openstar/server"
)

// Cluster 是宿主与所有动态加载模块共同实现的能力集合。
type Cluster interface {
	Name() string
	Version() string
	StorageDirectory() string
	// Config 返回当前配置，可能为 nil。
	Config() any
	// ConfigureBuilder 在 Web 宿主构建前调用，按注册顺序串行执行。
	ConfigureBuilder(ctx context.Context, b *server.Builder) error
	// ConfigureRuntime 在 Web 宿主构建完成后调用，按注册顺序串行执行。
	ConfigureRuntime(ctx context.Context, app *server.Running) error
}

// Identity 是模块自报的名称与版本。
type Identity struct {
	Name    string
	Version string
}

func (id Identity) String() string {
	return fmt.Sprintf("%s v%s", id.Name, id.Version)
}

// IdentityOf 读取模块自报的身份。
func IdentityOf(c Cluster) Identity {
	return Identity{Name: c.Name(), Version: c.Version()}
}

// Host 是宿主暴露给模块构造函数的能力面，通过参数显式传递而非全局单例。
type Host interface {
	Name() string
	Version() string
	ModulesDirectory() string
	Environment() string
	Logger() *logrus.Logger
	// Clusters 按注册顺序返回已注册的模块，不包含宿主自身。
	Clusters() []Cluster
}

// Find 返回第一个类型为 T 的已注册模块，便于模块之间互相协作。
func Find[T any](h Host) (T, bool) {
	var zero T
	if h == nil {
		return zero, false
	}
	for _, c := range h.Clusters() {
		if typed, ok := c.(T); ok {
			return typed, true
		}
	}
	return zero, false
}

// Base 提供 Cluster 的通用部分，供具体模块嵌入。
type Base struct {
	host       Host
	name       string
	version    string
	storageDir string
	logger     *logrus.Entry
}

// Option 调整 NewBase 的默认行为。
type Option func(*Base)

// WithStorageDirectory 覆盖默认的 <ModulesDirectory>/<Name> 存储目录。
func WithStorageDirectory(dir string) Option {
	return func(b *Base) {
		if strings.TrimSpace(dir) != "" {
			b.storageDir = dir
		}
	}
}

// NewBase 绑定 source=<name> 的日志上下文并确保存储目录存在；返回后即可安全读写配置。
func NewBase(host Host, name, version string, opts ...Option) (*Base, error) {
	if host == nil {
		return nil, errors.New("host is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("cluster name is required")
	}

	b := &Base{
		host:       host,
		name:       name,
		version:    version,
		storageDir: filepath.Join(host.ModulesDirectory(), name),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.logger = host.Logger().WithField("source", name)

	dir, err := storage.Ensure(b.storageDir)
	if err != nil {
		return nil, fmt.Errorf("cluster %s: %w", name, err)
	}
	b.storageDir = dir.Path()
	return b, nil
}

func (b *Base) Name() string             { return b.name }
func (b *Base) Version() string          { return b.version }
func (b *Base) StorageDirectory() string { return b.storageDir }

// Config 默认没有配置；拥有配置的模块应覆盖该方法。
func (b *Base) Config() any { return nil }

// Host 返回构造时传入的宿主能力面。
func (b *Base) Host() Host { return b.host }

// Logger 返回带 source 字段的日志入口。
func (b *Base) Logger() *logrus.Entry { return b.logger }

// LoadConfig 从 c 的存储目录加载配置，首次访问时写入默认值。
func LoadConfig[T any](ctx context.Context, c Cluster) (*T, error) {
	return configstore.LoadContext[T](ctx, c.StorageDirectory())
}

// SaveConfig 将 c 的当前配置整体写回其存储目录。
func SaveConfig(ctx context.Context, c Cluster) error {
	return configstore.SaveContext(ctx, c)
}
