package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Resolver is consulted when a dependency is not present in the module
// directory.
type Resolver func(name string) (string, error)

// Context is the isolated load context of one module directory. It lives for
// the whole process unless loading its directory fails, in which case it is
// unloaded together with everything opened through it. Instances produced
// from an unloaded context must never be invoked.
type Context struct {
	name     string
	dir      string
	opener   Opener
	fallback Resolver

	mu       sync.Mutex
	resolved map[string]string
	binaries map[string]Binary
	unloaded bool
}

// NewContext scopes a context to dir.
func NewContext(dir string, opener Opener, fallback Resolver) *Context {
	if opener == nil {
		opener = PluginOpener{}
	}
	return &Context{
		name:     filepath.Base(dir),
		dir:      dir,
		opener:   opener,
		fallback: fallback,
		resolved: make(map[string]string),
		binaries: make(map[string]Binary),
	}
}

// Name returns the directory name, which is also the expected binary name.
func (c *Context) Name() string { return c.name }

// Dir returns the directory the context is scoped to.
func (c *Context) Dir() string { return c.dir }

// PrimaryPath returns <dir>/<name>.so.
func (c *Context) PrimaryPath() string {
	return filepath.Join(c.dir, c.name+Extension)
}

// Resolve maps a dependency name to <dir>/<name>.so when that file exists and
// otherwise defers to the fallback resolver.
func (c *Context) Resolve(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveLocked(name)
}

func (c *Context) resolveLocked(name string) (string, error) {
	if c.unloaded {
		return "", ErrContextUnloaded
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid dependency name %q", ErrUnresolved, name)
	}
	if path, ok := c.resolved[name]; ok {
		return path, nil
	}

	candidate := filepath.Join(c.dir, name+Extension)
	if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
		c.resolved[name] = candidate
		return candidate, nil
	}

	if c.fallback != nil {
		return c.fallback(name)
	}
	return "", fmt.Errorf("%w: %s", ErrUnresolved, name)
}

// LoadDependency resolves name and opens it through this context.
func (c *Context) LoadDependency(name string) (Binary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path, err := c.resolveLocked(name)
	if err != nil {
		return nil, err
	}
	return c.openLocked(path)
}

// Open loads the binary at path and records it as owned by this context.
func (c *Context) Open(path string) (Binary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked(path)
}

func (c *Context) openLocked(path string) (Binary, error) {
	if c.unloaded {
		return nil, ErrContextUnloaded
	}
	if bin, ok := c.binaries[path]; ok {
		return bin, nil
	}
	bin, err := c.opener.Open(path)
	if err != nil {
		return nil, err
	}
	c.binaries[path] = bin
	return bin, nil
}

// Binaries returns the number of binaries owned by the context.
func (c *Context) Binaries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.binaries)
}

// Unload releases every binary and resolution owned by the context. Go cannot
// unmap plugin code, so this drops the references and fences off the context.
func (c *Context) Unload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unloaded = true
	c.binaries = nil
	c.resolved = nil
}

// Unloaded reports whether Unload has been called.
func (c *Context) Unloaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unloaded
}
