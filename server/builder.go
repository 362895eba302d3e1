package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyBuilt is returned when Build is called a second time.
var ErrAlreadyBuilt = errors.New("builder already built")

// Options controls how a Builder is created.
type Options struct {
	Logger      *logrus.Logger
	Environment string
	AppName     string
}

// Builder collects host-level settings before the Fiber application exists.
// Clusters mutate it in registration order during builder setup.
type Builder struct {
	// Config is handed to fiber.New as-is when the host is finalized.
	Config fiber.Config

	logger      *logrus.Logger
	environment string
	hooks       []fiber.Handler
	authorizer  fiber.Handler
	services    map[string]any

	mu    sync.Mutex
	built bool
}

// NewBuilder validates opts and returns an empty builder.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Builder{
		Config: fiber.Config{
			AppName:       opts.AppName,
			CaseSensitive: true,
		},
		logger:      opts.Logger,
		environment: strings.ToLower(strings.TrimSpace(opts.Environment)),
		services:    make(map[string]any),
	}, nil
}

// Logger returns the host logger bound to this builder.
func (b *Builder) Logger() *logrus.Logger {
	return b.logger
}

// SetLogger replaces the logger later handed to the running host.
func (b *Builder) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Environment returns the normalized environment name.
func (b *Builder) Environment() string {
	return b.environment
}

// Use queues host-level middleware. Hooks run after recover and request-id
// handling, in the order they were added.
func (b *Builder) Use(handlers ...fiber.Handler) {
	for _, h := range handlers {
		if h != nil {
			b.hooks = append(b.hooks, h)
		}
	}
}

// SetAuthorizer installs the handler guarding endpoints that require
// authorization. A later call replaces an earlier one.
func (b *Builder) SetAuthorizer(handler fiber.Handler) {
	b.authorizer = handler
}

// Provide publishes a shared value under key so that later clusters can look
// it up during either phase.
func (b *Builder) Provide(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("service key is required")
	}
	if _, exists := b.services[key]; exists {
		return fmt.Errorf("service %s already provided", key)
	}
	b.services[key] = value
	return nil
}

// Service returns a value previously published with Provide.
func (b *Builder) Service(key string) (any, bool) {
	v, ok := b.services[strings.TrimSpace(key)]
	return v, ok
}

// Build finalizes the builder into a running host.
func (b *Builder) Build() (*Running, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	app := fiber.New(b.Config)
	app.Use(recover.New())
	app.Use(requestIDMiddleware())
	for _, h := range b.hooks {
		app.Use(h)
	}

	services := make(map[string]any, len(b.services))
	for k, v := range b.services {
		services[k] = v
	}

	return &Running{
		app:         app,
		logger:      b.logger,
		environment: b.environment,
		authorizer:  b.authorizer,
		services:    services,
	}, nil
}
