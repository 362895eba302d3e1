package loader

import (
	"fmt"
	"plugin"
)

// Extension is the file extension of loadable module binaries.
const Extension = ".so"

// ExportSymbol is the well-known entry point every module binary exports.
const ExportSymbol = "Clusters"

// Binary is an opened module binary.
type Binary interface {
	Lookup(symbol string) (any, error)
}

// Opener opens module binaries. The default implementation uses the Go
// plugin package; tests substitute an in-memory table.
type Opener interface {
	Open(path string) (Binary, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Binary, error)

// Open makes OpenerFunc satisfy Opener.
func (f OpenerFunc) Open(path string) (Binary, error) {
	return f(path)
}

// PluginOpener opens binaries built with -buildmode=plugin.
type PluginOpener struct{}

// Open loads path as a Go plugin.
func (PluginOpener) Open(path string) (Binary, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return pluginBinary{p: p}, nil
}

type pluginBinary struct {
	p *plugin.Plugin
}

func (b pluginBinary) Lookup(symbol string) (any, error) {
	sym, err := b.p.Lookup(symbol)
	if err != nil {
		return nil, err
	}
	return sym, nil
}
