// Package clustertest provides an in-memory Host and a recording Cluster for tests.
package clustertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/server"
)

// Host satisfies cluster.Host with a null logger whose entries are captured by Hook.
type Host struct {
	ModulesDir string
	Env        string
	Registered []cluster.Cluster

	logger *logrus.Logger
	Hook   *logtest.Hook
}

// NewHost returns a Host rooted at modulesDir.
func NewHost(modulesDir string) *Host {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return &Host{ModulesDir: modulesDir, Env: "development", logger: logger, Hook: hook}
}

func (h *Host) Name() string                { return "TestHost" }
func (h *Host) Version() string             { return "0.0.0" }
func (h *Host) ModulesDirectory() string    { return h.ModulesDir }
func (h *Host) Environment() string         { return h.Env }
func (h *Host) Logger() *logrus.Logger      { return h.logger }
func (h *Host) Clusters() []cluster.Cluster { return h.Registered }

// Journal records lifecycle callbacks in the order they happen.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(entry string) {
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

// Entries returns a copy of every entry so far.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Stub is a cluster that writes "<phase>:start:<name>" and "<phase>:end:<name>"
// to its journal and optionally fails a phase.
type Stub struct {
	*cluster.Base
	Journal      *Journal
	FailBuilder  error
	FailRuntime  error
	BuilderCalls int
	RuntimeCalls int
}

// NewStub constructs a Stub through cluster.NewBase.
func NewStub(h cluster.Host, name, version string, journal *Journal) (*Stub, error) {
	base, err := cluster.NewBase(h, name, version)
	if err != nil {
		return nil, err
	}
	if journal == nil {
		journal = &Journal{}
	}
	return &Stub{Base: base, Journal: journal}, nil
}

func (s *Stub) ConfigureBuilder(ctx context.Context, b *server.Builder) error {
	s.BuilderCalls++
	s.Journal.Add(fmt.Sprintf("builder:start:%s", s.Name()))
	defer s.Journal.Add(fmt.Sprintf("builder:end:%s", s.Name()))
	return s.FailBuilder
}

func (s *Stub) ConfigureRuntime(ctx context.Context, app *server.Running) error {
	s.RuntimeCalls++
	s.Journal.Add(fmt.Sprintf("runtime:start:%s", s.Name()))
	defer s.Journal.Add(fmt.Sprintf("runtime:end:%s", s.Name()))
	return s.FailRuntime
}
