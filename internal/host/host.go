package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/internal/config"
	"github.com/openstar/openstar/internal/configstore"
	"github.com/openstar/openstar/internal/logging"
	"github.com/openstar/openstar/internal/storage"
	"github.com/openstar/openstar/internal/version"
	"github.com/openstar/openstar/loader"
	"github.com/openstar/openstar/server"
)

// Name 是宿主自身的模块名，任何插件都不能占用。
const Name = "OpenStar"

// Options 描述创建宿主所需的外部依赖。
type Options struct {
	Bootstrap *config.Bootstrap
	// Opener 默认为 loader.PluginOpener。
	Opener loader.Opener
	// Fallback 解析模块目录中不存在的依赖。
	Fallback loader.Resolver
	// Logger 为空时根据 HostConfig 初始化控制台 + 文件日志。
	Logger *logrus.Logger
}

// Host 同时是宿主 cluster 与传给插件构造函数的 cluster.Host 能力面。
type Host struct {
	boot     *config.Bootstrap
	cfg      *config.HostConfig
	logger   *logrus.Logger
	registry *cluster.Registry
	loader   *loader.Loader

	mu         sync.RWMutex
	phase      Phase
	discovered bool
	running    *server.Running
}

// New 确保根目录存在，读取（或首次生成）<Root>/config.json 并初始化日志。
func New(opts Options) (*Host, error) {
	if opts.Bootstrap == nil {
		return nil, errors.New("bootstrap config is required")
	}
	root, err := storage.Ensure(opts.Bootstrap.Root)
	if err != nil {
		return nil, fmt.Errorf("初始化根目录失败: %w", err)
	}

	cfg, err := configstore.Load[config.HostConfig](root.Path())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("宿主配置无效: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = logging.InitLogger(logging.OptionsFromHost(*cfg, root.Path()))
		if err != nil {
			return nil, err
		}
	}

	h := &Host{
		boot:     opts.Bootstrap,
		cfg:      cfg,
		logger:   logger,
		registry: cluster.NewRegistry(),
		phase:    PhaseInit,
	}
	h.loader, err = loader.New(loader.Options{
		Host:     h,
		Registry: h.registry,
		Logger:   logger,
		Opener:   opts.Opener,
		Fallback: opts.Fallback,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logging.BaseFields("host_init", root.Path())).
		WithField("environment", h.Environment()).
		Infof("%s v%s initialized", Name, h.Version())
	return h, nil
}

func (h *Host) Name() string    { return Name }
func (h *Host) Version() string { return version.Version }

// StorageDirectory 是宿主根目录，config.json 与 logs/ 位于其中。
func (h *Host) StorageDirectory() string { return h.boot.Root }

func (h *Host) Config() any { return h.cfg }

// HostConfig 返回已校验的宿主配置。
func (h *Host) HostConfig() *config.HostConfig { return h.cfg }

func (h *Host) ModulesDirectory() string { return h.boot.ModulesPath() }
func (h *Host) Environment() string      { return h.boot.Environment }
func (h *Host) Logger() *logrus.Logger   { return h.logger }

// Clusters 按注册顺序返回已加载的模块，不包含宿主自身。
func (h *Host) Clusters() []cluster.Cluster { return h.registry.Clusters() }

// Records 按注册顺序返回注册表记录。
func (h *Host) Records() []cluster.Record { return h.registry.All() }

// Registry 返回模块注册表。
func (h *Host) Registry() *cluster.Registry { return h.registry }

// Loader 返回模块加载器，可用于查询各目录的加载上下文。
func (h *Host) Loader() *loader.Loader { return h.loader }

// Phase 返回当前生命周期阶段。
func (h *Host) Phase() Phase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.phase
}

func (h *Host) setPhase(p Phase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
	h.logger.WithField("action", "lifecycle").Debugf("entering phase %s", p)
}

// Discover 只执行发现与加载，不进入生命周期，供 --check 使用；重复调用不会再次加载。
func (h *Host) Discover(ctx context.Context) error {
	if h.discovered {
		return nil
	}
	h.setPhase(PhaseDiscover)
	if err := h.loader.LoadAll(ctx, h.ModulesDirectory()); err != nil {
		return err
	}
	h.discovered = true
	h.logger.WithFields(logging.BaseFields("discover", h.ModulesDirectory())).
		Infof("loaded %d cluster(s)", h.registry.Len())
	return nil
}

// ConfigureBuilder 把宿主日志与 HostConfig 应用到 Web 宿主配置。
func (h *Host) ConfigureBuilder(ctx context.Context, b *server.Builder) error {
	b.SetLogger(h.logger)
	b.Config.AppName = fmt.Sprintf("%s v%s", Name, h.Version())
	if h.cfg.BodyLimit > 0 {
		b.Config.BodyLimit = h.cfg.BodyLimit
	}
	b.Config.ReadTimeout = h.cfg.ReadTimeout.DurationValue()
	b.Config.WriteTimeout = h.cfg.WriteTimeout.DurationValue()
	return nil
}
