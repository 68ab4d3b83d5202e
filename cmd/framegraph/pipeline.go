package main

import (
	"fmt"

	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/forward"
	"github.com/kbukum/framegraph/render"
)

// newRegistry registers the pipelines this binary can run. The pointer job
// is shared so the caller can load its cursor.
func newRegistry(pointer *forward.CompositePointer) (*render.Registry, error) {
	r := render.NewRegistry()
	err := r.Register("forward", func() (*render.Task, error) {
		return forward.Build(forward.Deps{Pointer: pointer})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// buildPipeline builds the configured pipeline and applies the profile,
// then the --set overrides.
func buildPipeline(rc config.RenderConfig, pointer *forward.CompositePointer, opts ...render.Option) (*render.Pipeline, error) {
	registry, err := newRegistry(pointer)
	if err != nil {
		return nil, err
	}
	p, err := registry.Build(rc.Pipeline, opts...)
	if err != nil {
		return nil, fmt.Errorf("building pipeline %q: %w", rc.Pipeline, err)
	}

	tree := p.Config()
	if rc.Profile != "" {
		if err := tree.ApplyProfile(rc.Profile, render.NewFileProfileLoader(rc.ProfileDir)); err != nil {
			return nil, fmt.Errorf("applying profile %q: %w", rc.Profile, err)
		}
	}
	if len(rc.Set) > 0 {
		overrides, err := render.ParseOverrides(rc.Set)
		if err != nil {
			return nil, err
		}
		if err := tree.ApplyOverrides(overrides); err != nil {
			return nil, fmt.Errorf("applying overrides: %w", err)
		}
	}
	return p, nil
}
