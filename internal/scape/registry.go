package scape

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrTopologyExists   = errors.New("topology already registered")
	ErrTopologyNotFound = errors.New("topology not found")
)

// Options carries the geometry parameters a factory may read. Size is the
// length of a line or the circumference of a ring.
type Options struct {
	Size   float64
	Width  int
	Height int
	Seed   int64
}

type Factory func(opts Options) (Topology, error)

var topologyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func init() {
	initializeBuiltInTopologies()
}

func initializeBuiltInTopologies() {
	MustRegister("line", func(opts Options) (Topology, error) {
		return NewLine(opts.Size, opts.Seed)
	})
	MustRegister("ring", func(opts Options) (Topology, error) {
		return NewRing(opts.Size, opts.Seed)
	})
	MustRegister("grid", func(opts Options) (Topology, error) {
		return NewGrid(opts.Width, opts.Height, opts.Seed)
	})
}

func Register(name string, factory Factory) error {
	if name == "" {
		return errors.New("topology name is required")
	}
	if factory == nil {
		return errors.New("topology factory is required")
	}

	topologyRegistry.mu.Lock()
	defer topologyRegistry.mu.Unlock()

	if _, exists := topologyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrTopologyExists, name)
	}
	topologyRegistry.m[name] = factory
	return nil
}

func MustRegister(name string, factory Factory) {
	if err := Register(name, factory); err != nil {
		panic(err)
	}
}

func New(name string, opts Options) (Topology, error) {
	topologyRegistry.mu.RLock()
	factory, ok := topologyRegistry.m[name]
	topologyRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTopologyNotFound, name)
	}
	return factory(opts)
}

func Names() []string {
	topologyRegistry.mu.RLock()
	defer topologyRegistry.mu.RUnlock()

	names := make([]string, 0, len(topologyRegistry.m))
	for name := range topologyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetTopologyRegistryForTests() {
	topologyRegistry.mu.Lock()
	topologyRegistry.m = make(map[string]Factory)
	topologyRegistry.mu.Unlock()
	initializeBuiltInTopologies()
}
