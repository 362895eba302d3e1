package loader

import (
	"fmt"

	"github.com/openstar/openstar/cluster"
)

// Descriptor describes one constructible cluster exported by a binary.
// A descriptor without New is treated as not constructible and skipped.
type Descriptor struct {
	Name string
	New  func(host cluster.Host) (any, error)
}

// Dependencies is what a binary may use while enumerating its descriptors to
// pull in sibling binaries from its own directory.
type Dependencies interface {
	Resolve(name string) (string, error)
	LoadDependency(name string) (Binary, error)
}

// descriptors calls the binary's export entry point.
func descriptors(bin Binary, deps Dependencies) (descs []Descriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			descs = nil
			err = fmt.Errorf("%w: %s panicked: %v", ErrInvalidImage, ExportSymbol, r)
		}
	}()

	sym, err := bin.Lookup(ExportSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s symbol: %v", ErrInvalidImage, ExportSymbol, err)
	}

	switch export := sym.(type) {
	case func(Dependencies) []Descriptor:
		return export(deps), nil
	case func() []Descriptor:
		return export(), nil
	case *[]Descriptor:
		if export == nil {
			return nil, nil
		}
		return *export, nil
	default:
		return nil, fmt.Errorf("%w: %s has unsupported type %T", ErrInvalidImage, ExportSymbol, sym)
	}
}

func (d Descriptor) label(i int) string {
	if d.Name != "" {
		return d.Name
	}
	return fmt.Sprintf("#%d", i)
}
