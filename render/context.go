package render

import (
	"context"
	"maps"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/scene"
)

// KeyPrimaryFramebuffer is where the framebuffer preparation job registers
// the frame's main color target.
const KeyPrimaryFramebuffer = "primaryFramebuffer"

// Args are the per-frame inputs every job may read.
type Args struct {
	FrameIndex uint64
	Batch      gpu.Batch
	Device     gpu.Device
	Scene      scene.Scene

	Viewport   mgl32.Vec4
	Surface    display.Surface
	Stereo     bool
	Eyes       display.Stereo
	View       mgl32.Mat4
	Projection mgl32.Mat4

	Frame display.FrameInfo
}

// Stats accumulates the counters of one frame.
type Stats struct {
	Frame       uint64         `json:"frame"`
	JobsRun     int            `json:"jobsRun"`
	JobsSkipped int            `json:"jobsSkipped"`
	JobsFailed  int            `json:"jobsFailed"`
	Duration    time.Duration  `json:"duration"`
	Counters    map[string]int `json:"counters,omitempty"`
}

// Add increments a named counter, e.g. the number of items drawn.
func (s *Stats) Add(name string, n int) {
	if s.Counters == nil {
		s.Counters = make(map[string]int)
	}
	s.Counters[name] += n
}

// Counter returns a named counter.
func (s *Stats) Counter(name string) int { return s.Counters[name] }

// CounterNames lists the counters set this frame, sorted.
func (s *Stats) CounterNames() []string {
	names := make([]string, 0, len(s.Counters))
	for k := range s.Counters {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Stats) clone() Stats {
	out := *s
	out.Counters = maps.Clone(s.Counters)
	return out
}

// Context is what a job sees while it runs. It is owned by one pipeline and
// only touched by the render goroutine.
type Context struct {
	Args  Args
	Stats Stats

	ctx       context.Context
	resources map[string]any
	node      string
	canSetup  bool
}

// NewContext creates an empty frame context.
func NewContext() *Context {
	return &Context{ctx: context.Background(), resources: make(map[string]any)}
}

// Context returns the context of the frame, carrying cancellation and the
// active trace span.
func (rc *Context) Context() context.Context { return rc.ctx }

// Node returns the dotted path of the running node.
func (rc *Context) Node() string { return rc.node }

// Register publishes a frame resource. Only jobs built with Setup may call
// it; any other caller gets NOT_PERMITTED.
func (rc *Context) Register(key string, value any) error {
	if !rc.canSetup {
		return errors.NotPermitted(rc.node, "register resource "+key)
	}
	rc.resources[key] = value
	return nil
}

// Fetch returns a frame resource of type T. Resources live for one frame:
// a resource not registered this frame is not found.
func Fetch[T any](rc *Context, key string) (T, bool) {
	v, ok := rc.resources[key].(T)
	return v, ok
}

// reset prepares the context for a new frame.
func (rc *Context) reset(ctx context.Context, args Args) {
	rc.ctx = ctx
	rc.Args = args
	clear(rc.resources)
	clear(rc.Stats.Counters)
	rc.Stats = Stats{Frame: args.FrameIndex, Counters: rc.Stats.Counters}
	rc.node = ""
	rc.canSetup = false
}

func (rc *Context) enter(path string, setup bool) {
	rc.node = path
	rc.canSetup = setup
}

func (rc *Context) leave() {
	rc.node = ""
	rc.canSetup = false
}

func (rc *Context) setContext(ctx context.Context) { rc.ctx = ctx }
