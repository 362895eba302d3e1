// Package server wraps the Fiber HTTP service behind the two objects the
// cluster lifecycle works with: a mutable Builder during builder setup and a
// finalized Running host during runtime setup. Build is the only transition
// between them and cannot be retried; the Running host owns the serve loop.
// Keep exports narrow and accept explicit dependencies.
package server
