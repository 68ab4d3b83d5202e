package forward

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/render"
)

// FramebufferConfig controls the primary framebuffer.
type FramebufferConfig struct {
	ClearColor [4]float32 `mapstructure:"clearColor"`
	SRGB       bool       `mapstructure:"srgb"`
}

// PrepareFramebuffer sizes the primary framebuffer to the surface, clears
// it and registers it for the passes that fetch it from the frame context.
// It must be added with render.Setup.
type PrepareFramebuffer struct {
	cfg FramebufferConfig
	fb  *gpu.Framebuffer
}

var (
	_ render.OutputRunner[*gpu.Framebuffer] = (*PrepareFramebuffer)(nil)
	_ render.Configurable[FramebufferConfig] = (*PrepareFramebuffer)(nil)
)

func (j *PrepareFramebuffer) DefaultConfig() FramebufferConfig {
	return FramebufferConfig{ClearColor: [4]float32{0, 0, 0, 1}, SRGB: true}
}

func (j *PrepareFramebuffer) Configure(c FramebufferConfig) {
	if c.SRGB != j.cfg.SRGB {
		j.fb = nil
	}
	j.cfg = c
}

func (j *PrepareFramebuffer) Run(rc *render.Context, out **gpu.Framebuffer) error {
	w, h := rc.Args.Surface.PixelSize()
	if w <= 0 || h <= 0 {
		return errors.ResourceMissing("surface")
	}
	if rc.Args.Device == nil || rc.Args.Batch == nil {
		return errors.ResourceMissing("device")
	}

	if fw, fh := j.fb.Size(); j.fb == nil || fw != w || fh != h {
		format := gpu.FormatRGBA8
		if j.cfg.SRGB {
			format = gpu.FormatSRGBA8
		}
		fb, err := rc.Args.Device.NewFramebuffer("primary", w, h, format)
		if err != nil {
			return errors.ResourceMissing(render.KeyPrimaryFramebuffer).WithCause(err)
		}
		j.fb = fb
		rc.Stats.Add("framebuffer.allocated", 1)
	}

	batch := rc.Args.Batch
	batch.EnableStereo(rc.Args.Stereo)
	batch.SetFramebuffer(j.fb)
	batch.ClearFramebuffer(gpu.ClearAll, mgl32.Vec4(j.cfg.ClearColor), 1, 0)
	if err := rc.Register(render.KeyPrimaryFramebuffer, j.fb); err != nil {
		return err
	}
	*out = j.fb
	return nil
}

// Stencil writes the stencil mask that limits later passes to the visible
// area of the surface.
type Stencil struct {
	pipeline *gpu.Pipeline
}

var _ render.Runner = (*Stencil)(nil)

func (j *Stencil) Run(rc *render.Context) error {
	fb, ok := render.Fetch[*gpu.Framebuffer](rc, render.KeyPrimaryFramebuffer)
	if !ok || fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	if j.pipeline == nil {
		if rc.Args.Device == nil {
			return errors.ResourceMissing("device")
		}
		pl, err := rc.Args.Device.NewPipeline("stencil_mask", gpu.State{
			StencilTest: true,
			StencilRef:  1,
			StencilPass: gpu.StencilReplace,
		})
		if err != nil {
			return errors.ResourceMissing("pipeline stencil_mask").WithCause(err)
		}
		j.pipeline = pl
	}
	batch := rc.Args.Batch
	batch.SetFramebuffer(fb)
	batch.SetViewportTransform(rc.Args.Viewport)
	batch.SetPipeline(j.pipeline)
	batch.Draw(gpu.TriangleStrip, 4, 0)
	return nil
}
