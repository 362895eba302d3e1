package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const contextKeyRequestID = "_openstar_request_id"

// Running is the finalized host handed to clusters during runtime setup.
type Running struct {
	app         *fiber.App
	logger      *logrus.Logger
	environment string
	authorizer  fiber.Handler
	services    map[string]any
}

// App exposes the underlying Fiber application, mainly for tests.
func (r *Running) App() *fiber.App {
	return r.app
}

// Router returns the root router clusters register handlers on.
func (r *Running) Router() fiber.Router {
	return r.app
}

// Group returns a router rooted at prefix.
func (r *Running) Group(prefix string) fiber.Router {
	return r.app.Group(prefix)
}

// Use installs process-wide middleware. Only requests reaching handlers
// registered after this call pass through it.
func (r *Running) Use(handler fiber.Handler) {
	if handler != nil {
		r.app.Use(handler)
	}
}

// Logger returns the host logger.
func (r *Running) Logger() *logrus.Logger {
	return r.logger
}

// Authorizer returns the handler configured with Builder.SetAuthorizer, or nil.
func (r *Running) Authorizer() fiber.Handler {
	return r.authorizer
}

// Service returns a value published during builder setup.
func (r *Running) Service(key string) (any, bool) {
	v, ok := r.services[strings.TrimSpace(key)]
	return v, ok
}

// Environment returns the normalized environment name.
func (r *Running) Environment() string {
	return r.environment
}

// IsDevelopment reports whether developer-only endpoints should be exposed.
func (r *Running) IsDevelopment() bool {
	return r.environment == "development"
}

// Listen blocks serving requests on addr until Shutdown is called.
func (r *Running) Listen(addr string) error {
	return r.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops the serve loop.
func (r *Running) Shutdown() error {
	return r.app.Shutdown()
}

// ShutdownWithTimeout stops the serve loop, giving in-flight requests at most
// timeout to finish. A non-positive timeout waits indefinitely.
func (r *Running) ShutdownWithTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return r.app.Shutdown()
	}
	return r.app.ShutdownWithTimeout(timeout)
}

// requestIDMiddleware tags every request with an id and echoes it back.
func requestIDMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the request-id middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
