package render

import (
	"sort"
	"sync"

	"github.com/kbukum/framegraph/errors"
)

// Factory builds a fresh root task. Every call must return a new graph.
type Factory func() (*Task, error)

// Registry maps pipeline names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names are unique.
func (r *Registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return errors.DuplicateNode("registry", name)
	}
	r.factories[name] = f
	return nil
}

// Get retrieves a factory by name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// List returns the sorted names of all registered pipelines.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs a new pipeline from the named factory.
func (r *Registry) Build(name string, opts ...Option) (*Pipeline, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, errors.InvalidGraph(name, "no pipeline registered under this name").
			WithDetail("available", r.List())
	}
	root, err := f()
	if err != nil {
		return nil, err
	}
	return NewPipeline(root, opts...)
}
