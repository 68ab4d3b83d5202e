package forward

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/scene"
)

// DrawConfig limits how many items a pass draws. -1 draws all of them.
type DrawConfig struct {
	MaxDrawn int `mapstructure:"maxDrawn" validate:"gte=-1"`
}

// OpaqueInput is what Draw reads: the items, the lighting and the target.
type OpaqueInput = render.Set3[scene.ItemBounds, *LightingModel, *gpu.Framebuffer]

// TransparentInput is what DrawTransparentDeferred reads.
type TransparentInput = render.Set2[scene.ItemBounds, *LightingModel]

func bindCamera(rc *render.Context, fb *gpu.Framebuffer) {
	batch := rc.Args.Batch
	batch.SetFramebuffer(fb)
	batch.SetViewportTransform(rc.Args.Viewport)
	batch.SetProjectionTransform(rc.Args.Projection)
	batch.SetViewTransform(rc.Args.View)
}

func eyePosition(view mgl32.Mat4) mgl32.Vec3 {
	return view.Inv().Col(3).Vec3()
}

// Draw renders the opaque items into the primary framebuffer and passes
// the framebuffer on.
type Draw struct {
	plumber *ShapePlumber
	cfg     DrawConfig
}

var (
	_ render.IORunner[OpaqueInput, *gpu.Framebuffer] = (*Draw)(nil)
	_ render.Configurable[DrawConfig]               = (*Draw)(nil)
)

// NewDraw creates the opaque pass.
func NewDraw(p *ShapePlumber) *Draw { return &Draw{plumber: p} }

func (j *Draw) DefaultConfig() DrawConfig { return DrawConfig{MaxDrawn: -1} }

func (j *Draw) Configure(c DrawConfig) { j.cfg = c }

func (j *Draw) Run(rc *render.Context, in OpaqueInput, out **gpu.Framebuffer) error {
	items, lighting, fb := in.First, in.Second, in.Third
	if fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	if rc.Args.Batch == nil {
		return errors.ResourceMissing("batch")
	}
	bindCamera(rc, fb)
	j.plumber.Render(rc, items, j.cfg.MaxDrawn, lighting, "opaque")
	*out = fb
	return nil
}

// DrawBackground renders background items behind the scene.
type DrawBackground struct {
	plumber *ShapePlumber
}

var _ render.InputRunner[scene.ItemBounds] = (*DrawBackground)(nil)

// NewDrawBackground creates the background pass.
func NewDrawBackground(p *ShapePlumber) *DrawBackground { return &DrawBackground{plumber: p} }

func (j *DrawBackground) Run(rc *render.Context, items scene.ItemBounds) error {
	fb, ok := render.Fetch[*gpu.Framebuffer](rc, render.KeyPrimaryFramebuffer)
	if !ok || fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	if len(items) == 0 {
		return nil
	}
	bindCamera(rc, fb)
	j.plumber.Render(rc, items, -1, nil, "background")
	return nil
}

// DrawTransparentDeferred renders transparent items back to front after
// the opaque and background passes.
type DrawTransparentDeferred struct {
	plumber *ShapePlumber
	cfg     DrawConfig
	sorted  scene.ItemBounds
}

var (
	_ render.InputRunner[TransparentInput] = (*DrawTransparentDeferred)(nil)
	_ render.Configurable[DrawConfig]     = (*DrawTransparentDeferred)(nil)
)

// NewDrawTransparentDeferred creates the transparent pass.
func NewDrawTransparentDeferred(p *ShapePlumber) *DrawTransparentDeferred {
	return &DrawTransparentDeferred{plumber: p}
}

func (j *DrawTransparentDeferred) DefaultConfig() DrawConfig { return DrawConfig{MaxDrawn: -1} }

func (j *DrawTransparentDeferred) Configure(c DrawConfig) { j.cfg = c }

func (j *DrawTransparentDeferred) Run(rc *render.Context, in TransparentInput) error {
	fb, ok := render.Fetch[*gpu.Framebuffer](rc, render.KeyPrimaryFramebuffer)
	if !ok || fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	if len(in.First) == 0 {
		return nil
	}
	// Sort a private copy; the input belongs to the task.
	j.sorted = append(j.sorted[:0], in.First...)
	j.sorted.SortBackToFront(eyePosition(rc.Args.View))

	bindCamera(rc, fb)
	j.plumber.Render(rc, j.sorted, j.cfg.MaxDrawn, in.Second, "transparent")
	return nil
}
