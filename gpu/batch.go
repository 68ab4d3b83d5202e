package gpu

import "github.com/go-gl/mathgl/mgl32"

// Batch records draw state and draw calls for one frame. Implementations
// need not be safe for concurrent use; only the render thread touches a
// batch.
type Batch interface {
	EnableStereo(enabled bool)
	SetFramebuffer(fb *Framebuffer)
	ClearFramebuffer(mask ClearMask, color mgl32.Vec4, depth float32, stencil uint8)
	SetPipeline(p *Pipeline)
	SetResourceTexture(slot int, tex *Texture)
	// SetViewportTransform takes x, y, width, height.
	SetViewportTransform(viewport mgl32.Vec4)
	SetStateScissorRect(rect mgl32.Vec4)
	SetProjectionTransform(m mgl32.Mat4)
	SetViewTransform(m mgl32.Mat4)
	ResetViewTransform()
	SetModelTransform(m mgl32.Mat4)
	Draw(p Primitive, count, start int)
}

// Device creates GPU resources.
type Device interface {
	NewFramebuffer(name string, width, height int, format Format) (*Framebuffer, error)
	NewTexture(name string, width, height int, format Format) (*Texture, error)
	NewPipeline(name string, state State) (*Pipeline, error)
}
