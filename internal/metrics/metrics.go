package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义：
// - openstar_cluster_loads_total：按结果统计目录加载（loaded/empty/skipped/load_error）
// - openstar_cluster_constructions_total：按结果统计候选类型构造（registered/failed）
// - openstar_lifecycle_callbacks_total：按阶段与结果统计生命周期回调
// - openstar_http_requests_total / openstar_http_request_duration_seconds：请求计数与耗时
var (
	ClusterLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "openstar_cluster_loads_total", Help: "模块目录加载结果计数"},
		[]string{"result"},
	)
	ClusterConstructions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "openstar_cluster_constructions_total", Help: "模块实例构造结果计数"},
		[]string{"result"},
	)
	LifecycleCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "openstar_lifecycle_callbacks_total", Help: "生命周期回调计数（按阶段/结果）"},
		[]string{"phase", "result"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "openstar_http_requests_total", Help: "HTTP 请求计数（按方法/状态）"},
		[]string{"method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "openstar_http_request_duration_seconds", Help: "HTTP 请求耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(ClusterLoads, ClusterConstructions, LifecycleCallbacks, HTTPRequests, HTTPLatency)
}

// Handler 返回记录基础 HTTP 指标的中间件。
func Handler() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		HTTPLatency.WithLabelValues(c.Method()).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(c.Method(), strconv.Itoa(c.Response().StatusCode())).Inc()
		return err
	}
}

// Exposer 返回标准 Prometheus 暴露处理器。
func Exposer() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
