package main

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/scene"
)

// demoScene is a ring of opaque crates around the viewer, three glass
// panes at increasing depth and a sky dome. Every fourth crate is skinned.
func demoScene(crates int) *scene.Static {
	s := scene.NewStatic()
	add := func(name string, key scene.ShapeKey, pos mgl32.Vec3, half float32, prim gpu.Primitive, vertices int) {
		ext := mgl32.Vec3{half, half, half}
		s.Add(&scene.Mesh{
			Name:      name,
			ShapeKey:  key,
			Transform: mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()),
			Primitive: prim,
			Vertices:  vertices,
		}, scene.Bound{Min: pos.Sub(ext), Max: pos.Add(ext)})
	}

	for i := range crates {
		sin, cos := math.Sincos(2 * math.Pi * float64(i) / float64(crates))
		pos := mgl32.Vec3{float32(4 * sin), 0, float32(-4 * cos)}
		key := scene.KeyOpaque
		if i%4 == 3 {
			key |= scene.KeySkinned
		}
		add(fmt.Sprintf("crate-%02d", i), key, pos, 0.5, gpu.Triangles, 36)
	}
	for i, z := range []float32{-2, -6, -9} {
		add(fmt.Sprintf("glass-%d", i), scene.KeyTransparent, mgl32.Vec3{float32(i) - 1, 0.5, z}, 0.8, gpu.TriangleStrip, 4)
	}
	add("sky", scene.KeyBackground, mgl32.Vec3{}, 500, gpu.Triangles, 2880)
	return s
}
