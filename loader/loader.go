package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/internal/logging"
	"github.com/openstar/openstar/internal/metrics"
	"github.com/openstar/openstar/internal/storage"
)

// Options wires a Loader to its collaborators.
type Options struct {
	Host     cluster.Host
	Registry *cluster.Registry
	Logger   *logrus.Logger
	Opener   Opener
	// Fallback resolves dependencies missing from a module directory.
	Fallback Resolver
}

// Loader discovers module directories and registers the clusters they export.
// It is not safe for concurrent use; startup drives it from one goroutine.
type Loader struct {
	host     cluster.Host
	registry *cluster.Registry
	logger   *logrus.Logger
	opener   Opener
	fallback Resolver
	contexts map[string]*Context
	order    []string
}

// New validates opts and returns a Loader.
func New(opts Options) (*Loader, error) {
	if opts.Host == nil {
		return nil, errors.New("host is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	opener := opts.Opener
	if opener == nil {
		opener = PluginOpener{}
	}
	return &Loader{
		host:     opts.Host,
		registry: opts.Registry,
		logger:   opts.Logger,
		opener:   opener,
		fallback: opts.Fallback,
		contexts: make(map[string]*Context),
	}, nil
}

// LoadAll processes every immediate subdirectory of modulesDir in lexical
// order. Only discovery failures and duplicate cluster names are returned.
func (l *Loader) LoadAll(ctx context.Context, modulesDir string) error {
	dir, err := storage.Ensure(modulesDir)
	if err != nil {
		return &DiscoveryError{Dir: modulesDir, Err: err}
	}

	entries, err := os.ReadDir(dir.Path())
	if err != nil {
		return &DiscoveryError{Dir: dir.Path(), Err: err}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir.Path(), entry.Name())
		if !isDir(entry, path) {
			continue
		}
		if _, err := l.LoadDir(ctx, path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDir turns one directory into zero or more registered clusters and
// returns the records it registered.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]cluster.Record, error) {
	lc := NewContext(dir, l.opener, l.fallback)
	fields := logrus.Fields{
		"action":    "load_cluster",
		"directory": lc.Name(),
	}
	l.logger.WithFields(fields).Info("loading cluster directory")

	primary := lc.PrimaryPath()
	if info, err := os.Stat(primary); err != nil || !info.Mode().IsRegular() {
		metrics.ClusterLoads.WithLabelValues("skipped").Inc()
		l.logger.WithFields(fields).WithField("path", primary).Debug("no primary binary, directory skipped")
		return nil, nil
	}

	descs, err := l.openPrimary(lc, primary)
	if err != nil {
		lc.Unload()
		metrics.ClusterLoads.WithLabelValues("load_error").Inc()
		loadErr := &LoadError{Dir: dir, Path: primary, Err: err}
		l.logger.WithFields(fields).WithError(loadErr).Error("failed to load cluster binary")
		return nil, nil
	}

	var registered []cluster.Record
	for i, desc := range descs {
		if err := ctx.Err(); err != nil {
			l.track(lc)
			return registered, err
		}
		if desc.New == nil {
			l.logger.WithFields(fields).WithField("descriptor", desc.label(i)).Debug("descriptor is not constructible")
			continue
		}

		instance, err := l.construct(desc, i, dir)
		if err != nil {
			metrics.ClusterConstructions.WithLabelValues("failed").Inc()
			l.logger.WithFields(fields).WithError(err).Error("couldn't create cluster instance")
			continue
		}

		rec, err := l.register(lc, instance)
		if err != nil {
			l.track(lc)
			return registered, err
		}
		metrics.ClusterConstructions.WithLabelValues("registered").Inc()
		l.logger.WithFields(fields).
			WithFields(logging.ClusterFields("load_cluster", rec.Identity.Name, rec.Identity.Version)).
			Infof("registered cluster %s", rec.Identity)
		registered = append(registered, rec)
	}

	l.track(lc)
	if len(registered) == 0 {
		metrics.ClusterLoads.WithLabelValues("empty").Inc()
	} else {
		metrics.ClusterLoads.WithLabelValues("loaded").Inc()
	}
	return registered, nil
}

// track keeps lc alive; records already registered from it reference it.
func (l *Loader) track(lc *Context) {
	if _, ok := l.contexts[lc.Name()]; ok {
		return
	}
	l.contexts[lc.Name()] = lc
	l.order = append(l.order, lc.Name())
}

// Context returns the live load context for a directory name.
func (l *Loader) Context(name string) (*Context, bool) {
	lc, ok := l.contexts[name]
	return lc, ok
}

// Contexts returns the live load contexts in load order.
func (l *Loader) Contexts() []*Context {
	result := make([]*Context, 0, len(l.order))
	for _, name := range l.order {
		result = append(result, l.contexts[name])
	}
	return result
}

func (l *Loader) openPrimary(lc *Context, primary string) ([]Descriptor, error) {
	bin, err := lc.Open(primary)
	if err != nil {
		return nil, err
	}
	return descriptors(bin, lc)
}

// construct calls the descriptor's constructor, turning panics, errors and
// values without the cluster capability set into a ConstructionError.
func (l *Loader) construct(desc Descriptor, i int, dir string) (c cluster.Cluster, err error) {
	label := desc.label(i)
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = &ConstructionError{Dir: dir, Descriptor: label, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	value, err := desc.New(l.host)
	if err != nil {
		return nil, &ConstructionError{Dir: dir, Descriptor: label, Err: err}
	}
	instance, ok := value.(cluster.Cluster)
	if !ok {
		return nil, &ConstructionError{Dir: dir, Descriptor: label, Err: fmt.Errorf("%w: got %T", ErrNotCluster, value)}
	}
	if strings.TrimSpace(instance.Name()) == "" {
		return nil, &ConstructionError{Dir: dir, Descriptor: label, Err: errors.New("cluster reported an empty name")}
	}
	return instance, nil
}

func (l *Loader) register(lc *Context, instance cluster.Cluster) (cluster.Record, error) {
	rec := cluster.Record{
		Identity:   cluster.IdentityOf(instance),
		StorageDir: instance.StorageDirectory(),
		Context:    lc,
		Instance:   instance,
	}
	if strings.EqualFold(strings.TrimSpace(rec.Identity.Name), l.host.Name()) {
		return rec, fmt.Errorf("%w: %s is the host name", cluster.ErrDuplicateIdentity, rec.Identity.Name)
	}
	if err := l.registry.Register(rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func isDir(entry os.DirEntry, path string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.IsDir()
	}
	return false
}
