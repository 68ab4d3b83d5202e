package forward

import (
	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/scene"
)

// Name is the root task name and the configuration path prefix.
const Name = "Forward"

// Inputs is the forward task input.
type Inputs struct {
	Opaques      scene.ItemBounds
	Transparents scene.ItemBounds
	Background   scene.ItemBounds
}

// SelectInputs splits the items of a scene by shape key.
func SelectInputs(s *scene.Static) Inputs {
	return Inputs{
		Opaques: s.Select(func(k scene.ShapeKey) bool {
			return !k.IsTransparent() && k&scene.KeyBackground == 0
		}),
		Transparents: s.Select(func(k scene.ShapeKey) bool {
			return k.IsTransparent() && k&scene.KeyBackground == 0
		}),
		Background: s.Select(func(k scene.ShapeKey) bool {
			return k&scene.KeyBackground != 0
		}),
	}
}

// Deps are the long-lived objects shared with the caller. Nil fields are
// created by Build.
type Deps struct {
	Plumber   *ShapePlumber
	Pointer   *CompositePointer
	Presenter *display.Presenter
}

// Build assembles the forward task. Its output is the rendered primary
// framebuffer.
func Build(deps Deps) (*render.Task, error) {
	if deps.Plumber == nil {
		deps.Plumber = NewShapePlumber()
	}
	if deps.Pointer == nil {
		deps.Pointer = NewCompositePointer()
	}
	p := deps.Plumber

	b := render.NewBuilder(Name)
	in := render.Input[Inputs](b)
	opaques := render.Project(in, "opaques", func(i Inputs) scene.ItemBounds { return i.Opaques })
	transparents := render.Project(in, "transparents", func(i Inputs) scene.ItemBounds { return i.Transparents })
	background := render.Project(in, "background", func(i Inputs) scene.ItemBounds { return i.Background })

	lighting := render.AddJobO[*LightingModel](b, "MakeLightingModel", &MakeLightingModel{})
	primary := render.AddJobO[*gpu.Framebuffer](b, "PrepareFramebuffer", &PrepareFramebuffer{},
		render.Setup(), render.WithSkipPolicy(render.ResetToDefault))
	render.AddJob(b, "Stencil", &Stencil{})
	drawn := render.AddJobIO[OpaqueInput, *gpu.Framebuffer](b, "Draw", NewDraw(p),
		render.Join3(opaques, lighting, primary), render.WithSkipPolicy(render.ResetToDefault))
	render.AddJobI[scene.ItemBounds](b, "DrawBackground", NewDrawBackground(p), background)
	render.AddJobI[TransparentInput](b, "DrawTransparentDeferred", NewDrawTransparentDeferred(p),
		render.Join2(transparents, lighting))
	render.AddJobI[*gpu.Framebuffer](b, "CompositePointer", deps.Pointer, drawn)
	render.AddJobI[*gpu.Framebuffer](b, "Blit", NewBlit(deps.Presenter), drawn)
	render.Output(b, drawn)
	return b.Build()
}

// Register adds the forward pipeline to r under "forward". Each build gets
// its own jobs.
func Register(r *render.Registry) error {
	return r.Register("forward", func() (*render.Task, error) { return Build(Deps{}) })
}
