package render

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/kbukum/framegraph/errors"
)

// Builder composes one task. Children are added in execution order; a
// child may only read the task input or outputs of siblings added before
// it. Wiring errors fail the Add that caused them and are reported again,
// joined, by Build.
type Builder struct {
	name     string
	input    *cell
	output   *cell
	children []Node
	names    map[string]bool
	errs     []error
	built    bool
}

// NewBuilder starts a task named name. Names must be non-empty and must not
// contain '.', which separates configuration paths.
func NewBuilder(name string) *Builder {
	b := &Builder{name: name, names: make(map[string]bool)}
	if err := checkName(name); err != nil {
		b.errs = append(b.errs, errors.InvalidGraph(name, err.Error()))
	}
	return b
}

// Name returns the name of the task being built.
func (b *Builder) Name() string { return b.name }

// Err returns the joined wiring errors recorded so far.
func (b *Builder) Err() error { return stderrors.Join(b.errs...) }

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("empty node name")
	}
	if strings.ContainsAny(name, ". \t\n") {
		return fmt.Errorf("node name %q contains a separator", name)
	}
	return nil
}

func (b *Builder) fail(err error) error {
	b.errs = append(b.errs, err)
	return err
}

// Input declares the task input. A task has at most one input; pack several
// values into a struct, Set2 or Set3.
func Input[T any](b *Builder) Slot[T] {
	if b.built {
		_ = b.fail(errors.AlreadyBuilt(b.name))
		return Slot[T]{}
	}
	if b.input != nil {
		_ = b.fail(errors.InvalidGraph(b.name, "input declared twice"))
		s, _ := SlotOf[T](Varying{c: b.input})
		return s
	}
	var zero T
	c := newCell(b.name+".input", zero)
	c.owner = b
	c.input = true
	b.input = c
	return Slot[T]{v: Varying{c: c}}
}

func (b *Builder) inScope(c *cell) bool {
	return c == b.input || c.owner == b
}

// Add appends a detached node. Its bindings must all resolve to the task
// input or to outputs of children already added.
func (b *Builder) Add(node Node) error {
	if b.built {
		return b.fail(errors.AlreadyBuilt(b.name))
	}
	if node == nil {
		return b.fail(errors.InvalidGraph(b.name, "nil node"))
	}
	n := node.base()
	if err := checkName(n.name); err != nil {
		return b.fail(errors.InvalidGraph(b.name, err.Error()))
	}
	if b.names[n.name] {
		return b.fail(errors.DuplicateNode(b.name, n.name))
	}
	if n.owner != nil {
		return b.fail(errors.AlreadyBuilt(n.name).WithDetail("reason", "node already bound to "+n.owner.name))
	}

	var task *Task
	if t, ok := node.(*Task); ok {
		task = t
		if t.attached {
			return b.fail(errors.AlreadyBuilt(t.name).WithDetail("reason", "task roots a pipeline"))
		}
		if t.input != nil && !t.bound {
			return b.fail(errors.UnboundInput(t.name, t.input.name))
		}
	}

	var errs []error
	for _, in := range n.inputs {
		if !in.Valid() {
			errs = append(errs, errors.UnboundInput(n.name, in.Name()))
			continue
		}
		for _, c := range in.roots() {
			if !b.inScope(c) {
				errs = append(errs, errors.UnboundInput(n.name, c.name))
			}
		}
	}
	if len(errs) > 0 {
		return b.fail(stderrors.Join(errs...))
	}

	n.owner = b
	for _, c := range n.outputs {
		c.owner = b
	}
	if task != nil && task.output != nil {
		task.output.owner = b
	}
	b.names[n.name] = true
	b.children = append(b.children, node)
	return nil
}

// Output designates the slot the built task exposes. It must be an output
// of one of the task's children, not a derived view.
func Output[T any](b *Builder, s Slot[T]) {
	switch {
	case b.built:
		_ = b.fail(errors.AlreadyBuilt(b.name))
	case b.output != nil:
		_ = b.fail(errors.InvalidGraph(b.name, "output designated twice"))
	case !s.Valid():
		_ = b.fail(errors.UnboundInput(b.name, s.Name()))
	case s.ReadOnly():
		_ = b.fail(errors.InvalidGraph(b.name, "output must be produced by a child, not a derived view"))
	case s.v.c.owner != b || s.v.c.input:
		_ = b.fail(errors.UnboundInput(b.name, s.Name()))
	default:
		b.output = s.v.c
	}
}

// Build finalizes the task. The builder cannot be used afterwards.
func (b *Builder) Build() (*Task, error) {
	if b.built {
		return nil, errors.AlreadyBuilt(b.name)
	}
	b.built = true
	if len(b.errs) > 0 {
		return nil, stderrors.Join(b.errs...)
	}
	return &Task{
		nodeBase: nodeBase{name: b.name, kind: KindTask},
		children: b.children,
		input:    b.input,
		output:   b.output,
	}, nil
}

// AddJob adds a job with no slots. Errors are recorded on b.
func AddJob(b *Builder, name string, r Runner, opts ...JobOption) *Job {
	j := NewJob(name, r, opts...)
	_ = b.Add(j)
	return j
}

// AddJobI adds a job reading in.
func AddJobI[I any](b *Builder, name string, r InputRunner[I], in Slot[I], opts ...JobOption) *Job {
	j := NewJobI(name, r, in, opts...)
	_ = b.Add(j)
	return j
}

// AddJobO adds a job and returns its output slot.
func AddJobO[O any](b *Builder, name string, r OutputRunner[O], opts ...JobOption) Slot[O] {
	j, out := NewJobO(name, r, opts...)
	_ = b.Add(j)
	return out
}

// AddJobIO adds a job reading in and returns its output slot.
func AddJobIO[I, O any](b *Builder, name string, r IORunner[I, O], in Slot[I], opts ...JobOption) Slot[O] {
	j, out := NewJobIO(name, r, in, opts...)
	_ = b.Add(j)
	return out
}

// AddTask nests a built task that has no input.
func AddTask(b *Builder, t *Task) {
	_ = b.Add(t)
}

// AddTaskI binds a built task's input to in and nests it.
func AddTaskI[I any](b *Builder, t *Task, in Slot[I]) {
	if err := BindTask(t, in); err != nil {
		_ = b.fail(err)
		return
	}
	_ = b.Add(t)
}

// AddTaskO nests a built task and returns its designated output.
func AddTaskO[O any](b *Builder, t *Task) Slot[O] {
	out, err := TaskOutput[O](t)
	if err != nil {
		_ = b.fail(err)
		return Slot[O]{}
	}
	_ = b.Add(t)
	return out
}

// AddTaskIO binds, nests and returns the designated output of a task.
func AddTaskIO[I, O any](b *Builder, t *Task, in Slot[I]) Slot[O] {
	out, err := TaskOutput[O](t)
	if err != nil {
		_ = b.fail(err)
		return Slot[O]{}
	}
	AddTaskI(b, t, in)
	return out
}
