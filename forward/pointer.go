package forward

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/render"
)

// PointerConfig sizes the hand pointer quad in meters.
type PointerConfig struct {
	Scale float32 `mapstructure:"scale" validate:"gt=0,lte=1"`
}

// CompositePointer draws a cursor quad at each active hand, per eye when
// rendering stereo. Without a cursor texture it does nothing.
type CompositePointer struct {
	cfg      PointerConfig
	cursor   *gpu.Texture
	pipeline *gpu.Pipeline
}

var (
	_ render.InputRunner[*gpu.Framebuffer] = (*CompositePointer)(nil)
	_ render.Configurable[PointerConfig]   = (*CompositePointer)(nil)
)

// NewCompositePointer creates a pointer pass with no cursor.
func NewCompositePointer() *CompositePointer { return &CompositePointer{} }

func (j *CompositePointer) DefaultConfig() PointerConfig { return PointerConfig{Scale: 0.05} }

func (j *CompositePointer) Configure(c PointerConfig) { j.cfg = c }

// SetCursor replaces the cursor texture. Call it on the render goroutine,
// normally from a mailbox completion.
func (j *CompositePointer) SetCursor(tex *gpu.Texture) { j.cursor = tex }

// Cursor returns the current cursor texture.
func (j *CompositePointer) Cursor() *gpu.Texture { return j.cursor }

// LoadCursor returns a completion that allocates a size x size cursor
// texture on the frame's device and installs it.
func (j *CompositePointer) LoadCursor(size int) render.Completion {
	return func(rc *render.Context) {
		if rc.Args.Device == nil {
			return
		}
		tex, err := rc.Args.Device.NewTexture("cursor", size, size, gpu.FormatRGBA8)
		if err != nil {
			return
		}
		j.SetCursor(tex)
	}
}

func (j *CompositePointer) Run(rc *render.Context, fb *gpu.Framebuffer) error {
	if j.cursor == nil {
		return nil
	}
	if fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	frame := rc.Args.Frame
	if !frame.HandActive(display.LeftHand) && !frame.HandActive(display.RightHand) {
		return nil
	}
	if j.pipeline == nil {
		if rc.Args.Device == nil {
			return errors.ResourceMissing("device")
		}
		pl, err := rc.Args.Device.NewPipeline("pointer", gpu.State{Blend: gpu.BlendAlpha, ColorWriteOn: true})
		if err != nil {
			return errors.ResourceMissing("pipeline pointer").WithCause(err)
		}
		j.pipeline = pl
	}

	batch := rc.Args.Batch
	batch.SetFramebuffer(fb)
	batch.SetPipeline(j.pipeline)
	batch.SetResourceTexture(0, j.cursor)

	eyes := 1
	if rc.Args.Stereo {
		eyes = 2
	}
	vp := rc.Args.Viewport
	scale := mgl32.Scale3D(j.cfg.Scale, j.cfg.Scale, j.cfg.Scale)
	drawn := 0
	for eye := range eyes {
		if rc.Args.Stereo {
			half := vp.Z() / 2
			batch.SetViewportTransform(mgl32.Vec4{vp.X() + float32(eye)*half, vp.Y(), half, vp.W()})
			batch.SetProjectionTransform(rc.Args.Eyes.Projections[eye])
			batch.SetViewTransform(rc.Args.Eyes.EyeOffsets[eye].Mul4(rc.Args.View))
		} else {
			batch.SetViewportTransform(vp)
			batch.SetProjectionTransform(rc.Args.Projection)
			batch.SetViewTransform(rc.Args.View)
		}
		for _, hand := range []display.Hand{display.LeftHand, display.RightHand} {
			if !frame.HandActive(hand) {
				continue
			}
			batch.SetModelTransform(frame.HandPoses[hand].Mul4(scale))
			batch.Draw(gpu.TriangleStrip, 4, 0)
			drawn++
		}
	}
	rc.Stats.Add("pointer.drawn", drawn)
	return nil
}
