package forward

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/scene"
)

type fixture struct {
	scene    *scene.Static
	opaques  []scene.ItemID
	near     scene.ItemID
	far      scene.ItemID
	rec      *gpu.Recorder
	plumber  *ShapePlumber
	pointer  *CompositePointer
	pipeline *render.Pipeline
}

func box(z float32) scene.Bound {
	return scene.Bound{Min: mgl32.Vec3{-1, -1, z - 1}, Max: mgl32.Vec3{1, 1, z + 1}}
}

func mesh(name string, key scene.ShapeKey, z float32, vertices int) *scene.Mesh {
	return &scene.Mesh{
		Name:      name,
		ShapeKey:  key,
		Transform: mgl32.Translate3D(0, 0, z),
		Primitive: gpu.Triangles,
		Vertices:  vertices,
	}
}

// newFixture builds a forward pipeline over a scene of three opaque items
// (3 vertices each), a near (6) and a far (9) transparent item and one
// background item (12).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		scene:   scene.NewStatic(),
		rec:     gpu.NewRecorder(),
		plumber: NewShapePlumber(),
		pointer: NewCompositePointer(),
	}
	for i, name := range []string{"wall", "floor", "crate"} {
		z := -float32(i + 2)
		f.opaques = append(f.opaques, f.scene.Add(mesh(name, scene.KeyOpaque, z, 3), box(z)))
	}
	f.near = f.scene.Add(mesh("glass", scene.KeyTransparent, -1, 6), box(-1))
	f.far = f.scene.Add(mesh("window", scene.KeyTransparent, -10, 9), box(-10))
	f.scene.Add(mesh("sky", scene.KeyBackground, -50, 12), box(-50))

	task, err := Build(Deps{Plumber: f.plumber, Pointer: f.pointer})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	p, err := render.NewPipeline(task, render.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	if err := render.Feed(p, SelectInputs(f.scene)); err != nil {
		t.Fatalf("Feed() error: %v", err)
	}
	f.pipeline = p
	return f
}

func (f *fixture) args() render.Args {
	return render.Args{
		Batch:      f.rec,
		Device:     f.rec,
		Scene:      f.scene,
		Surface:    display.Surface{Width: 320, Height: 240, PixelRatio: 1},
		Viewport:   mgl32.Vec4{0, 0, 320, 240},
		View:       mgl32.Ident4(),
		Projection: mgl32.Perspective(mgl32.DegToRad(60), 320.0/240.0, 0.1, 100),
		Frame:      display.NewFrameInfo(0),
	}
}

func (f *fixture) render(t *testing.T, args render.Args) *render.FrameResult {
	t.Helper()
	res, err := f.pipeline.RenderFrame(context.Background(), args)
	if err != nil {
		t.Fatalf("RenderFrame() error: %v", err)
	}
	return res
}

func drawIndex(cmds []gpu.Command, vertices string) int {
	for i, c := range cmds {
		if c.Op == gpu.OpDraw && c.Args == "triangles count="+vertices+" start=0" {
			return i
		}
	}
	return -1
}
