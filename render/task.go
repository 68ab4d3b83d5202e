package render

import (
	"reflect"

	"github.com/kbukum/framegraph/errors"
)

// Task is a built composite node: an ordered list of children, an optional
// input and an optional designated output. Tasks come only from
// Builder.Build and cannot be changed afterwards.
type Task struct {
	nodeBase
	children []Node
	input    *cell
	output   *cell
	bound    bool
	// attached is set once the task roots a Pipeline.
	attached bool
}

// Children returns the task's children in declaration order.
func (t *Task) Children() []Node {
	out := make([]Node, len(t.children))
	copy(out, t.children)
	return out
}

// InputType returns the declared input type, or nil.
func (t *Task) InputType() reflect.Type {
	if t.input == nil {
		return nil
	}
	return t.input.typ
}

// OutputType returns the designated output type, or nil.
func (t *Task) OutputType() reflect.Type {
	if t.output == nil {
		return nil
	}
	return t.output.typ
}

// Walk visits t and its descendants in declaration order. Paths are dotted
// from t's own name. A non-nil error from fn stops the walk.
func (t *Task) Walk(fn func(path string, n Node) error) error {
	return walk(t.name, t, fn)
}

func walk(path string, n Node, fn func(string, Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	t, ok := n.(*Task)
	if !ok {
		return nil
	}
	for _, c := range t.children {
		if err := walk(path+"."+c.Name(), c, fn); err != nil {
			return err
		}
	}
	return nil
}

// jobs returns every job in the subtree.
func (t *Task) jobs() []*Job {
	var out []*Job
	_ = t.Walk(func(_ string, n Node) error {
		if j, ok := n.(*Job); ok {
			out = append(out, j)
		}
		return nil
	})
	return out
}

// BindTask binds a built task's input to a slot of the enclosing scope. The
// task then forwards the slot's value to its own input on every run.
func BindTask[I any](t *Task, in Slot[I]) error {
	if t.owner != nil || t.bound || t.attached {
		return errors.AlreadyBuilt(t.name)
	}
	if t.input == nil {
		return errors.InvalidGraph(t.name, "task declares no input")
	}
	if !in.Valid() {
		return errors.UnboundInput(t.name, in.Name())
	}
	if want := reflect.TypeFor[I](); t.input.typ != want {
		return errors.TypeMismatch(in.Name(), t.input.typ.String(), want.String())
	}
	t.inputs = []Varying{in.v}
	t.bound = true
	return nil
}

// TaskOutput returns the designated output of a built task.
func TaskOutput[O any](t *Task) (Slot[O], error) {
	if t.output == nil {
		return Slot[O]{}, errors.InvalidGraph(t.name, "task has no designated output")
	}
	return SlotOf[O](Varying{c: t.output})
}

// forward copies the bound parent value into the task's input cell.
func (t *Task) forward() {
	if t.input != nil && len(t.inputs) == 1 {
		t.input.value = t.inputs[0].load()
	}
}
