package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidImage marks a binary that cannot be loaded as a module.
	ErrInvalidImage = errors.New("not a valid module binary")
	// ErrContextUnloaded is returned by a Context after Unload.
	ErrContextUnloaded = errors.New("load context unloaded")
	// ErrUnresolved is returned when neither the module directory nor the
	// fallback resolver can satisfy a dependency.
	ErrUnresolved = errors.New("dependency not resolved")
	// ErrNotCluster marks a constructed value lacking the cluster capability set.
	ErrNotCluster = errors.New("value does not implement cluster.Cluster")
)

// DiscoveryError is fatal: the modules directory cannot be created or listed.
type DiscoveryError struct {
	Dir string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discover modules in %s: %v", e.Dir, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// LoadError is contained to one directory.
type LoadError struct {
	Dir  string
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConstructionError is contained to one descriptor.
type ConstructionError struct {
	Dir        string
	Descriptor string
	Err        error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construct %s from %s: %v", e.Descriptor, e.Dir, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }
