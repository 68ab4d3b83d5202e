package forward

import (
	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/render"
)

// Blit presents the finished framebuffer to the surface.
type Blit struct {
	presenter *display.Presenter
}

var _ render.InputRunner[*gpu.Framebuffer] = (*Blit)(nil)

// NewBlit creates the blit job. A nil presenter is created from the first
// frame's device.
func NewBlit(p *display.Presenter) *Blit { return &Blit{presenter: p} }

func (j *Blit) Run(rc *render.Context, fb *gpu.Framebuffer) error {
	if fb == nil {
		return errors.ResourceMissing(render.KeyPrimaryFramebuffer)
	}
	if j.presenter == nil {
		if rc.Args.Device == nil {
			return errors.ResourceMissing("device")
		}
		j.presenter = display.NewPresenter(rc.Args.Device)
	}
	return j.presenter.Present(rc.Args.Batch, fb, rc.Args.Surface)
}
