package display

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/logger"
)

// Presenter composites the final framebuffer onto the surface.
type Presenter struct {
	device   gpu.Device
	pipeline *gpu.Pipeline
	log      *logger.Logger
	presents uint64
}

// NewPresenter creates a presenter. Its pipeline is created on first use.
func NewPresenter(device gpu.Device) *Presenter {
	return &Presenter{device: device, log: logger.Get("display")}
}

// Presents returns how many frames were submitted.
func (p *Presenter) Presents() uint64 { return p.presents }

func (p *Presenter) getPipeline() *gpu.Pipeline {
	if p.pipeline == nil {
		pl, err := p.device.NewPipeline("present", gpu.State{ColorWriteOn: true})
		if err != nil {
			p.log.Warn("present pipeline unavailable", logger.ErrorFields("new_pipeline", err))
			return nil
		}
		p.pipeline = pl
	}
	return p.pipeline
}

// Present draws fb's color buffer as a full-surface strip. Without a
// framebuffer or pipeline it records nothing and reports RESOURCE_MISSING.
func (p *Presenter) Present(batch gpu.Batch, fb *gpu.Framebuffer, target Surface) error {
	if fb.RenderBuffer() == nil {
		return errors.ResourceMissing("framebuffer")
	}
	pipeline := p.getPipeline()
	if pipeline == nil {
		return errors.ResourceMissing("present pipeline")
	}

	w, h := target.PixelSize()
	viewport := mgl32.Vec4{0, 0, float32(w), float32(h)}

	batch.EnableStereo(false)
	batch.ResetViewTransform()
	batch.SetViewportTransform(viewport)
	batch.SetStateScissorRect(viewport)
	batch.SetResourceTexture(0, fb.RenderBuffer())
	batch.SetPipeline(pipeline)
	batch.Draw(gpu.TriangleStrip, 4, 0)
	p.presents++
	return nil
}
