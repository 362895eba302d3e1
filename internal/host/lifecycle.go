package host

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/internal/logging"
	"github.com/openstar/openstar/internal/metrics"
	"github.com/openstar/openstar/internal/server/routes"
	"github.com/openstar/openstar/server"
)

// ClientIPHeader 由前置代理写入真实客户端地址。
const ClientIPHeader = "X-OpenStar-Ip"

// LifecycleError 表示某个生命周期回调失败；启动随即中止，后续回调不再执行。
type LifecycleError struct {
	Phase   Phase
	Cluster string
	Err     error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s failed in %s: %v", e.Cluster, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// Start 依次执行 发现与加载 → 构建阶段 → 定稿 → 运行阶段，返回可以开始服务的宿主。
func (h *Host) Start(ctx context.Context) (*server.Running, error) {
	if err := h.Discover(ctx); err != nil {
		return nil, err
	}

	h.setPhase(PhaseBuilderSetup)
	builder, err := server.NewBuilder(server.Options{
		Logger:      h.logger,
		Environment: h.Environment(),
		AppName:     Name,
	})
	if err != nil {
		return nil, &LifecycleError{Phase: PhaseBuilderSetup, Cluster: Name, Err: err}
	}
	for _, c := range h.lifecycleOrder() {
		if err := h.invoke(ctx, PhaseBuilderSetup, c, func() error {
			return c.ConfigureBuilder(ctx, builder)
		}); err != nil {
			return nil, err
		}
	}

	h.setPhase(PhaseFinalize)
	running, err := builder.Build()
	if err != nil {
		return nil, &LifecycleError{Phase: PhaseFinalize, Cluster: Name, Err: err}
	}

	h.setPhase(PhaseRuntimeSetup)
	running.Use(h.observe())
	running.Use(metrics.Handler())
	for _, c := range h.lifecycleOrder() {
		if err := h.invoke(ctx, PhaseRuntimeSetup, c, func() error {
			return c.ConfigureRuntime(ctx, running)
		}); err != nil {
			return nil, err
		}
		if c != cluster.Cluster(h) {
			h.logger.WithFields(logging.ClusterFields("runtime_setup", c.Name(), c.Version())).
				Infof("set up cluster %s", cluster.IdentityOf(c))
		}
	}

	h.mu.Lock()
	h.running = running
	h.mu.Unlock()
	return running, nil
}

// ConfigureRuntime 注册诊断与指标接口。
func (h *Host) ConfigureRuntime(ctx context.Context, app *server.Running) error {
	routes.RegisterClusterRoutes(app.Router(), h)
	routes.RegisterMetricsRoute(app.Router())
	return nil
}

// ListenAddr 返回监听地址，启动参数中的端口优先于 config.json。
func (h *Host) ListenAddr() string {
	port := h.cfg.ListenPort
	if h.boot.ListenPort > 0 {
		port = h.boot.ListenPort
	}
	return fmt.Sprintf(":%d", port)
}

// Serve 阻塞处理请求，直到 Shutdown 被调用或监听失败。
func (h *Host) Serve(running *server.Running) error {
	if running == nil {
		return errors.New("host has not been started")
	}
	h.setPhase(PhaseServing)
	addr := h.ListenAddr()
	h.logger.WithFields(logrus.Fields{
		"action":   "listen",
		"addr":     addr,
		"clusters": h.registry.Len(),
	}).Infof("%s v%s listening on %s", Name, h.Version(), addr)

	err := running.Listen(addr)
	h.setPhase(PhaseStopped)
	return err
}

// Run 启动并服务，ctx 取消时优雅关闭。
func (h *Host) Run(ctx context.Context) error {
	running, err := h.Start(ctx)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		if err := h.Shutdown(); err != nil {
			h.logger.WithError(err).Warn("shutdown failed")
		}
	})
	defer stop()
	return h.Serve(running)
}

// Shutdown 停止服务循环并关闭日志文件。
func (h *Host) Shutdown() error {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	var err error
	if running != nil {
		err = running.ShutdownWithTimeout(h.boot.ShutdownTimeout.DurationValue())
	}
	h.logger.WithField("action", "shutdown").Info("host stopped")
	return errors.Join(err, logging.Close(h.logger))
}

func (h *Host) lifecycleOrder() []cluster.Cluster {
	return append([]cluster.Cluster{h}, h.registry.Clusters()...)
}

// invoke 执行单个回调，把错误与 panic 统一包装为 LifecycleError。
func (h *Host) invoke(ctx context.Context, phase Phase, c cluster.Cluster, fn func() error) (err error) {
	name := c.Name()
	defer func() {
		if r := recover(); r != nil {
			err = &LifecycleError{Phase: phase, Cluster: name, Err: fmt.Errorf("panic: %v", r)}
		}
		result := "ok"
		if err != nil {
			result = "error"
			h.logger.WithFields(logging.ClusterFields("lifecycle", name, c.Version())).
				WithField("phase", phase.String()).
				WithError(err).Error("lifecycle callback failed")
		}
		metrics.LifecycleCallbacks.WithLabelValues(phase.String(), result).Inc()
	}()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &LifecycleError{Phase: phase, Cluster: name, Err: ctxErr}
	}
	if callErr := fn(); callErr != nil {
		return &LifecycleError{Phase: phase, Cluster: name, Err: callErr}
	}
	return nil
}

// observe 为每个请求写入 X-Powered-By 并记录 [method | ip] path?query。
func (h *Host) observe() fiber.Handler {
	powered := fmt.Sprintf("%s v%s", Name, h.Version())
	return func(c fiber.Ctx) error {
		c.Set("X-Powered-By", powered)

		ip := strings.TrimSpace(c.Get(ClientIPHeader))
		if ip == "" {
			ip = c.IP()
		}
		target := c.Path()
		if query := string(c.Request().URI().QueryString()); query != "" {
			target += "?" + query
		}

		h.logger.WithFields(logrus.Fields{
			"action":     "request",
			"method":     c.Method(),
			"ip":         ip,
			"request_id": server.RequestID(c),
		}).Infof("[%s | %s] %s", c.Method(), ip, target)
		return c.Next()
	}
}
