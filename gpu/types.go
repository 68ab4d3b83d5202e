package gpu

import "fmt"

// Primitive selects how vertices are assembled.
type Primitive int

const (
	Triangles Primitive = iota
	TriangleStrip
	Lines
	Points
)

func (p Primitive) String() string {
	switch p {
	case Triangles:
		return "triangles"
	case TriangleStrip:
		return "triangle_strip"
	case Lines:
		return "lines"
	case Points:
		return "points"
	}
	return fmt.Sprintf("primitive(%d)", int(p))
}

// ClearMask selects the buffers ClearFramebuffer touches.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// Format is a texel format.
type Format int

const (
	FormatRGBA8 Format = iota
	FormatSRGBA8
	FormatDepth24Stencil8
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "rgba8"
	case FormatSRGBA8:
		return "srgba8"
	case FormatDepth24Stencil8:
		return "depth24_stencil8"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// BlendMode selects color blending for a pipeline.
type BlendMode int

const (
	BlendOpaque BlendMode = iota
	BlendAlpha
	BlendAdditive
)

// StencilOp is the action taken on the stencil buffer when a test passes.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilReplace
	StencilZero
)

// State is the fixed-function state baked into a Pipeline.
type State struct {
	DepthTest    bool
	DepthWrite   bool
	CullBack     bool
	Blend        BlendMode
	StencilTest  bool
	StencilRef   uint8
	StencilPass  StencilOp
	ColorWriteOn bool
}

// Texture is an image resource.
type Texture struct {
	ID     uint32
	Name   string
	Width  int
	Height int
	Format Format
}

// Framebuffer is a render target with one color attachment and an optional
// depth-stencil attachment.
type Framebuffer struct {
	ID           uint32
	Name         string
	Width        int
	Height       int
	Color        *Texture
	DepthStencil *Texture
}

// Size returns the framebuffer dimensions. A nil framebuffer has size 0x0.
func (f *Framebuffer) Size() (int, int) {
	if f == nil {
		return 0, 0
	}
	return f.Width, f.Height
}

// RenderBuffer returns the color attachment, or nil.
func (f *Framebuffer) RenderBuffer() *Texture {
	if f == nil {
		return nil
	}
	return f.Color
}

func (f *Framebuffer) String() string {
	if f == nil {
		return "fb(nil)"
	}
	return fmt.Sprintf("fb#%d(%s %dx%d)", f.ID, f.Name, f.Width, f.Height)
}

// Pipeline is a compiled program plus its fixed-function State.
type Pipeline struct {
	ID    uint32
	Name  string
	State State
}

func (p *Pipeline) String() string {
	if p == nil {
		return "pipeline(nil)"
	}
	return fmt.Sprintf("pipeline#%d(%s)", p.ID, p.Name)
}

func (t *Texture) String() string {
	if t == nil {
		return "tex(nil)"
	}
	return fmt.Sprintf("tex#%d(%s)", t.ID, t.Name)
}
