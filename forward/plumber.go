package forward

import (
	"fmt"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/scene"
)

type variant struct {
	key scene.ShapeKey
	lit bool
}

// ShapePlumber resolves items and picks a pipeline per shape key and
// lighting variant. Pipelines are created on first use and reused.
type ShapePlumber struct {
	pipelines map[variant]*gpu.Pipeline
	failed    map[variant]bool
	log       *logger.Logger
}

// NewShapePlumber creates an empty plumber.
func NewShapePlumber() *ShapePlumber {
	return &ShapePlumber{
		pipelines: make(map[variant]*gpu.Pipeline),
		failed:    make(map[variant]bool),
		log:       logger.Get("forward").WithComponent("plumber"),
	}
}

func stateFor(key scene.ShapeKey) gpu.State {
	switch {
	case key&scene.KeyBackground != 0:
		return gpu.State{ColorWriteOn: true}
	case key.IsTransparent():
		return gpu.State{DepthTest: true, Blend: gpu.BlendAlpha, ColorWriteOn: true}
	}
	return gpu.State{DepthTest: true, DepthWrite: true, CullBack: true, ColorWriteOn: true}
}

func pipelineName(v variant) string {
	kind := "opaque"
	switch {
	case v.key&scene.KeyBackground != 0:
		kind = "background"
	case v.key.IsTransparent():
		kind = "transparent"
	}
	if v.key.IsSkinned() {
		kind += "_skinned"
	}
	if v.lit {
		return kind + "_lit"
	}
	return kind + "_unlit"
}

// Pipeline returns the pipeline for key, creating it on first use. A
// creation failure is remembered and not retried for the plumber's life.
func (p *ShapePlumber) Pipeline(device gpu.Device, key scene.ShapeKey, lit bool) (*gpu.Pipeline, error) {
	v := variant{key: key, lit: lit}
	if pl, ok := p.pipelines[v]; ok {
		return pl, nil
	}
	name := pipelineName(v)
	if p.failed[v] {
		return nil, errors.ResourceMissing("pipeline " + name)
	}
	if device == nil {
		return nil, errors.ResourceMissing("device")
	}
	pl, err := device.NewPipeline(name, stateFor(key))
	if err != nil {
		p.failed[v] = true
		p.log.Warn("pipeline creation failed", logger.ErrorFields("new_pipeline", err))
		return nil, errors.ResourceMissing("pipeline " + name).WithCause(err)
	}
	p.pipelines[v] = pl
	return pl, nil
}

// Render draws up to limit items (-1 for all) and returns how many were
// drawn. Items the scene no longer knows and items whose pipeline is
// unavailable are skipped and counted under "<stat>.skipped".
func (p *ShapePlumber) Render(rc *render.Context, items scene.ItemBounds, limit int, lighting *LightingModel, stat string) int {
	batch := rc.Args.Batch
	sc := rc.Args.Scene
	if batch == nil || sc == nil {
		rc.Stats.Add(stat+".skipped", len(items))
		return 0
	}
	lit := lighting.Lit()
	drawn := 0
	var current *gpu.Pipeline
	for _, ib := range items {
		if limit >= 0 && drawn >= limit {
			break
		}
		item, ok := sc.Item(ib.ID)
		if !ok {
			rc.Stats.Add(stat+".skipped", 1)
			continue
		}
		pl, err := p.Pipeline(rc.Args.Device, item.Key(), lit)
		if err != nil {
			rc.Stats.Add(stat+".skipped", 1)
			continue
		}
		if pl != current {
			batch.SetPipeline(pl)
			current = pl
		}
		item.Render(batch)
		drawn++
	}
	rc.Stats.Add(stat+".drawn", drawn)
	return drawn
}

// Reset forgets every pipeline and remembered failure, e.g. after the
// device was lost.
func (p *ShapePlumber) Reset() {
	clear(p.pipelines)
	clear(p.failed)
}

// Pipelines returns the number of pipelines created so far.
func (p *ShapePlumber) Pipelines() int { return len(p.pipelines) }

func (p *ShapePlumber) String() string {
	return fmt.Sprintf("plumber(%d pipelines)", len(p.pipelines))
}
