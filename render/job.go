package render

import (
	"reflect"
)

// Runner is a job with no slot input or output. It communicates through
// the frame Context only.
type Runner interface {
	Run(rc *Context) error
}

// InputRunner reads one slot.
type InputRunner[I any] interface {
	Run(rc *Context, in I) error
}

// OutputRunner writes one slot. out holds the slot's current value on
// entry; the engine stores *out only when Run returns nil. Only the slot
// write is discarded on error: if O is a pointer, slice or map, anything
// Run changed through it is already visible to readers, so such runners
// build a new value and assign it to *out.
type OutputRunner[O any] interface {
	Run(rc *Context, out *O) error
}

// IORunner reads one slot and writes another. out follows the
// OutputRunner rules.
type IORunner[I, O any] interface {
	Run(rc *Context, in I, out *O) error
}

// Configurable is implemented by jobs that take parameters. The engine
// calls Configure before the first run and again before the next run
// after every accepted change.
type Configurable[C any] interface {
	Configure(C)
}

// Defaulter supplies the starting parameters of a Configurable job. Without
// it a job starts from the zero value of C.
type Defaulter[C any] interface {
	DefaultConfig() C
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(rc *Context) error

func (f RunnerFunc) Run(rc *Context) error { return f(rc) }

// InputFunc adapts a function to InputRunner.
type InputFunc[I any] func(rc *Context, in I) error

func (f InputFunc[I]) Run(rc *Context, in I) error { return f(rc, in) }

// OutputFunc adapts a function to OutputRunner.
type OutputFunc[O any] func(rc *Context, out *O) error

func (f OutputFunc[O]) Run(rc *Context, out *O) error { return f(rc, out) }

// IOFunc adapts a function to IORunner.
type IOFunc[I, O any] func(rc *Context, in I, out *O) error

func (f IOFunc[I, O]) Run(rc *Context, in I, out *O) error { return f(rc, in, out) }

// NodeKind distinguishes leaves from composites.
type NodeKind string

const (
	KindJob  NodeKind = "job"
	KindTask NodeKind = "task"
)

// Node is a job or a task. Nodes are created detached and bound to exactly
// one Builder by Add.
type Node interface {
	Name() string
	Kind() NodeKind
	base() *nodeBase
}

type nodeBase struct {
	name     string
	path     string
	kind     NodeKind
	disabled bool
	inputs   []Varying
	outputs  []*cell
	owner    *Builder
	cfg      *ConfigNode
}

func (n *nodeBase) Name() string    { return n.name }
func (n *nodeBase) Kind() NodeKind  { return n.kind }
func (n *nodeBase) base() *nodeBase { return n }

// Inputs returns the slots bound at construction.
func (n *nodeBase) Inputs() []Varying { return n.inputs }

// JobOption customizes a job at construction.
type JobOption func(*jobOptions)

type jobOptions struct {
	setup    bool
	disabled bool
	policy   SkipPolicy
	initial  any
}

// Setup grants the job the capability to register frame resources.
func Setup() JobOption {
	return func(o *jobOptions) { o.setup = true }
}

// Disabled makes the job start disabled.
func Disabled() JobOption {
	return func(o *jobOptions) { o.disabled = true }
}

// WithSkipPolicy sets the policy of the job's output slot.
func WithSkipPolicy(p SkipPolicy) JobOption {
	return func(o *jobOptions) { o.policy = p }
}

// WithInitial sets the initial value of the job's output slot. The value
// must have the output type.
func WithInitial(v any) JobOption {
	return func(o *jobOptions) { o.initial = v }
}

// Job is a leaf node wrapping user code.
type Job struct {
	nodeBase
	setup  bool
	runner any
	exec   func(rc *Context) error
	params *paramSpec

	// applied is the config version last handed to Configure.
	applied uint64
}

// Setup reports whether the job may register frame resources.
func (j *Job) Setup() bool { return j.setup }

// Runner returns the user value the job wraps.
func (j *Job) Runner() any { return j.runner }

func collect(opts []JobOption) jobOptions {
	var o jobOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newJob(name string, runner any, o jobOptions) *Job {
	return &Job{
		nodeBase: nodeBase{name: name, kind: KindJob, disabled: o.disabled},
		setup:    o.setup,
		runner:   runner,
		params:   inspectParams(runner),
	}
}

func outputSlot[O any](name string, o jobOptions) Slot[O] {
	var initial O
	if v, ok := o.initial.(O); ok {
		initial = v
	}
	c := newCell(name, initial)
	c.policy = o.policy
	return Slot[O]{v: Varying{c: c}}
}

// NewJob wraps a Runner with no slots.
func NewJob(name string, r Runner, opts ...JobOption) *Job {
	j := newJob(name, r, collect(opts))
	j.exec = r.Run
	return j
}

// NewJobI wraps an InputRunner reading in.
func NewJobI[I any](name string, r InputRunner[I], in Slot[I], opts ...JobOption) *Job {
	j := newJob(name, r, collect(opts))
	j.inputs = []Varying{in.v}
	j.exec = func(rc *Context) error {
		return r.Run(rc, in.Get())
	}
	return j
}

// NewJobO wraps an OutputRunner and returns the slot it produces.
func NewJobO[O any](name string, r OutputRunner[O], opts ...JobOption) (*Job, Slot[O]) {
	o := collect(opts)
	j := newJob(name, r, o)
	out := outputSlot[O](name, o)
	j.outputs = []*cell{out.v.c}
	j.exec = func(rc *Context) error {
		v := out.Get()
		if err := r.Run(rc, &v); err != nil {
			return err
		}
		out.set(v)
		return nil
	}
	return j, out
}

// NewJobIO wraps an IORunner reading in and returns the slot it produces.
func NewJobIO[I, O any](name string, r IORunner[I, O], in Slot[I], opts ...JobOption) (*Job, Slot[O]) {
	o := collect(opts)
	j := newJob(name, r, o)
	out := outputSlot[O](name, o)
	j.inputs = []Varying{in.v}
	j.outputs = []*cell{out.v.c}
	j.exec = func(rc *Context) error {
		v := out.Get()
		if err := r.Run(rc, in.Get(), &v); err != nil {
			return err
		}
		out.set(v)
		return nil
	}
	return j, out
}

// paramSpec describes a Configurable runner found by reflection. The
// method is only called when the config version changes.
type paramSpec struct {
	typ       reflect.Type
	defaults  any
	configure reflect.Value
}

func inspectParams(runner any) *paramSpec {
	rv := reflect.ValueOf(runner)
	if !rv.IsValid() {
		return nil
	}
	m := rv.MethodByName("Configure")
	if !m.IsValid() || m.Type().NumIn() != 1 || m.Type().NumOut() != 0 {
		return nil
	}
	spec := &paramSpec{typ: m.Type().In(0), configure: m}
	spec.defaults = reflect.Zero(spec.typ).Interface()
	if d := rv.MethodByName("DefaultConfig"); d.IsValid() {
		dt := d.Type()
		if dt.NumIn() == 0 && dt.NumOut() == 1 && dt.Out(0) == spec.typ {
			spec.defaults = d.Call(nil)[0].Interface()
		}
	}
	return spec
}

func (p *paramSpec) apply(params any) {
	v := reflect.ValueOf(params)
	if !v.IsValid() {
		v = reflect.Zero(p.typ)
	}
	p.configure.Call([]reflect.Value{v})
}
