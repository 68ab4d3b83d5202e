package gpu

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Op names a recorded call.
type Op string

const (
	OpEnableStereo       Op = "enable_stereo"
	OpSetFramebuffer     Op = "set_framebuffer"
	OpClearFramebuffer   Op = "clear_framebuffer"
	OpSetPipeline        Op = "set_pipeline"
	OpSetResourceTexture Op = "set_resource_texture"
	OpSetViewport        Op = "set_viewport"
	OpSetScissor         Op = "set_scissor"
	OpSetProjection      Op = "set_projection"
	OpSetView            Op = "set_view"
	OpResetView          Op = "reset_view"
	OpSetModel           Op = "set_model"
	OpDraw               Op = "draw"
	OpNewFramebuffer     Op = "new_framebuffer"
	OpNewTexture         Op = "new_texture"
	OpNewPipeline        Op = "new_pipeline"
)

// Command is one recorded call with its arguments rendered as text.
type Command struct {
	Op   Op
	Args string
}

func (c Command) String() string {
	if c.Args == "" {
		return string(c.Op)
	}
	return string(c.Op) + " " + c.Args
}

// Recorder is a headless Batch and Device. Resource IDs are assigned
// sequentially, so two recorders fed the same calls produce equal logs.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	nextID   uint32
	failures map[Op]error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[Op]error)}
}

// FailOn makes every later call of a creation op return err. A nil err
// clears the failure.
func (r *Recorder) FailOn(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, op)
		return
	}
	r.failures[op] = err
}

// Commands returns a copy of the recorded log.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Reset clears the log but keeps ID assignment, so resources created
// earlier stay distinct from later ones.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
}

// Count returns how many recorded commands have op.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Dump renders the log one command per line.
func (r *Recorder) Dump() string {
	var b strings.Builder
	for _, c := range r.Commands() {
		b.WriteString(c.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Recorder) record(op Op, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, Command{Op: op, Args: fmt.Sprintf(format, args...)})
}

func (r *Recorder) allocate(op Op) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failures[op]; err != nil {
		return 0, err
	}
	r.nextID++
	return r.nextID, nil
}

// --- Batch ---

func (r *Recorder) EnableStereo(enabled bool) { r.record(OpEnableStereo, "%t", enabled) }

func (r *Recorder) SetFramebuffer(fb *Framebuffer) { r.record(OpSetFramebuffer, "%s", fb) }

func (r *Recorder) ClearFramebuffer(mask ClearMask, color mgl32.Vec4, depth float32, stencil uint8) {
	r.record(OpClearFramebuffer, "mask=%03b color=%s depth=%g stencil=%d", mask, vec4(color), depth, stencil)
}

func (r *Recorder) SetPipeline(p *Pipeline) { r.record(OpSetPipeline, "%s", p) }

func (r *Recorder) SetResourceTexture(slot int, tex *Texture) {
	r.record(OpSetResourceTexture, "slot=%d %s", slot, tex)
}

func (r *Recorder) SetViewportTransform(viewport mgl32.Vec4) {
	r.record(OpSetViewport, "%s", vec4(viewport))
}

func (r *Recorder) SetStateScissorRect(rect mgl32.Vec4) { r.record(OpSetScissor, "%s", vec4(rect)) }

func (r *Recorder) SetProjectionTransform(m mgl32.Mat4) { r.record(OpSetProjection, "%s", mat4(m)) }

func (r *Recorder) SetViewTransform(m mgl32.Mat4) { r.record(OpSetView, "%s", mat4(m)) }

func (r *Recorder) ResetViewTransform() { r.record(OpResetView, "") }

func (r *Recorder) SetModelTransform(m mgl32.Mat4) { r.record(OpSetModel, "%s", mat4(m)) }

func (r *Recorder) Draw(p Primitive, count, start int) {
	r.record(OpDraw, "%s count=%d start=%d", p, count, start)
}

// --- Device ---

func (r *Recorder) NewFramebuffer(name string, width, height int, format Format) (*Framebuffer, error) {
	id, err := r.allocate(OpNewFramebuffer)
	if err != nil {
		return nil, err
	}
	color, err := r.NewTexture(name+".color", width, height, format)
	if err != nil {
		return nil, err
	}
	depth, err := r.NewTexture(name+".depth", width, height, FormatDepth24Stencil8)
	if err != nil {
		return nil, err
	}
	fb := &Framebuffer{ID: id, Name: name, Width: width, Height: height, Color: color, DepthStencil: depth}
	r.record(OpNewFramebuffer, "%s", fb)
	return fb, nil
}

func (r *Recorder) NewTexture(name string, width, height int, format Format) (*Texture, error) {
	id, err := r.allocate(OpNewTexture)
	if err != nil {
		return nil, err
	}
	tex := &Texture{ID: id, Name: name, Width: width, Height: height, Format: format}
	r.record(OpNewTexture, "%s %dx%d %s", tex, width, height, format)
	return tex, nil
}

func (r *Recorder) NewPipeline(name string, state State) (*Pipeline, error) {
	id, err := r.allocate(OpNewPipeline)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{ID: id, Name: name, State: state}
	r.record(OpNewPipeline, "%s %+v", p, state)
	return p, nil
}

func vec4(v mgl32.Vec4) string {
	return fmt.Sprintf("[%g %g %g %g]", v[0], v[1], v[2], v[3])
}

func mat4(m mgl32.Mat4) string {
	if m.ApproxEqual(mgl32.Ident4()) {
		return "identity"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range m {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.4g", f)
	}
	b.WriteByte(']')
	return b.String()
}

var (
	_ Batch  = (*Recorder)(nil)
	_ Device = (*Recorder)(nil)
)
