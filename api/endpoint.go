// Package api 提供按组声明 HTTP 接口的描述结构，cluster 在 ConfigureRuntime 中把它们挂到运行中的宿主上。
package api

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/openstar/openstar/server"
)

// Filter 在 Handler 之前执行；调用 next 继续，直接返回则短路。
type Filter func(c fiber.Ctx, next func() error) error

// Endpoint 描述单个接口。
type Endpoint struct {
	Path    string
	Method  string
	Handler fiber.Handler

	// Authorized 为 true 时先经过 Builder.SetAuthorizer 注册的鉴权处理器。
	Authorized bool
	// DeveloperOnly 的接口只在 development 环境注册。
	DeveloperOnly bool

	Name        string
	DisplayName string
	Description string
	Group       string
	Filters     []Filter
}

// Group 是一组共享前缀的接口，例如 /mygroup。
type Group struct {
	Prefix    string
	Endpoints []Endpoint
}

// SetupEndpoints 将组内接口注册到运行中的宿主，返回实际注册的数量。
func (g Group) SetupEndpoints(app *server.Running, logger *logrus.Entry) int {
	registered := 0
	for _, e := range g.Endpoints {
		if e.DeveloperOnly && !app.IsDevelopment() {
			continue
		}
		if e.Handler == nil {
			continue
		}

		path := joinRoute(g.Prefix, e.Path)
		Map(app.Router(), path, e.Method, e.chain(app.Authorizer()))

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"action": "register_endpoint",
				"name":   e.name(),
				"method": strings.ToUpper(e.Method),
				"path":   path,
				"group":  e.Group,
			}).Infof("registered endpoint %s (%s)", e.displayName(), path)
		}
		registered++
	}
	return registered
}

// Map 按 HTTP 方法把处理器挂到 router 上，未知方法匹配所有方法。
func Map(router fiber.Router, path, method string, handler fiber.Handler) fiber.Router {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodGet:
		return router.Get(path, handler)
	case http.MethodPut:
		return router.Put(path, handler)
	case http.MethodPost:
		return router.Post(path, handler)
	case http.MethodDelete:
		return router.Delete(path, handler)
	case http.MethodPatch:
		return router.Patch(path, handler)
	default:
		return router.All(path, handler)
	}
}

// chain 按 鉴权 → 过滤器 → 处理器 的顺序组合为单个 fiber.Handler。
func (e Endpoint) chain(authorizer fiber.Handler) fiber.Handler {
	steps := make([]Filter, 0, len(e.Filters)+1)
	if e.Authorized {
		steps = append(steps, authorize(authorizer))
	}
	steps = append(steps, e.Filters...)

	return func(c fiber.Ctx) error {
		var run func(i int) error
		run = func(i int) error {
			if i == len(steps) {
				return e.Handler(c)
			}
			return steps[i](c, func() error { return run(i + 1) })
		}
		return run(0)
	}
}

// authorize 适配鉴权处理器：处理器返回 nil 且未写入错误状态码即视为通过。
func authorize(authorizer fiber.Handler) Filter {
	return func(c fiber.Ctx, next func() error) error {
		if authorizer == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		if err := authorizer(c); err != nil {
			return err
		}
		if status := c.Response().StatusCode(); !IsSuccessStatusCode(status) {
			return nil
		}
		return next()
	}
}

func (e Endpoint) name() string {
	if e.Name != "" {
		return e.Name
	}
	return Slug(e.Path)
}

func (e Endpoint) displayName() string {
	if e.DisplayName != "" {
		return e.DisplayName
	}
	return e.Path
}

func joinRoute(prefix, path string) string {
	prefix = "/" + strings.Trim(strings.TrimSpace(prefix), "/")
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return prefix
	}
	if prefix == "/" {
		return "/" + path
	}
	return prefix + "/" + path
}
