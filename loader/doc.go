// Package loader turns module directories into registered clusters.
//
// Every directory <Modules>/<Name> gets its own Context that owns the
// binaries opened through it and resolves dependencies by file name inside
// that directory only. The primary binary <Name>.so must export the symbol
// Clusters with one of the signatures
//
//	func(loader.Dependencies) []loader.Descriptor
//	func() []loader.Descriptor
//
// Load failures are contained to their directory and construction failures
// to their descriptor; only a duplicate cluster name aborts discovery.
package loader
