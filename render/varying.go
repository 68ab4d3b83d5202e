package render

import (
	"fmt"
	"reflect"

	"github.com/kbukum/framegraph/errors"
)

// SkipPolicy decides what a slot holds after its producer did not run for a
// frame (disabled, skipped with its task, or failed).
type SkipPolicy int

const (
	// RetainLast keeps the last successfully written value, or the
	// initial value if the producer never ran.
	RetainLast SkipPolicy = iota
	// ResetToDefault restores the initial value.
	ResetToDefault
)

func (p SkipPolicy) String() string {
	switch p {
	case RetainLast:
		return "retain_last"
	case ResetToDefault:
		return "reset_to_default"
	}
	return fmt.Sprintf("skip_policy(%d)", int(p))
}

// cell is the storage behind a Varying. Exactly one node writes it.
type cell struct {
	typ     reflect.Type
	name    string
	value   any
	initial any
	policy  SkipPolicy

	// owner is the builder whose scope the cell belongs to. It is set when
	// the producing node is added, so an output is out of scope until then.
	owner *Builder
	input bool
}

func newCell[T any](name string, initial T) *cell {
	return &cell{
		typ:     reflect.TypeFor[T](),
		name:    name,
		value:   initial,
		initial: initial,
	}
}

func (c *cell) skip() {
	if c.policy == ResetToDefault {
		c.value = c.initial
	}
}

// view is a read-only projection of one or more cells.
type view struct {
	typ   reflect.Type
	name  string
	roots []*cell
	load  func() any
}

// Varying is a copyable, type-erased handle to a value cell or a derived
// read-only view. The zero Varying is invalid.
type Varying struct {
	c *cell
	v *view
}

// NewVarying creates a free-standing cell holding initial. Such a cell has
// no producer, so binding it to a node fails at Add.
func NewVarying[T any](initial T) Varying {
	return Varying{c: newCell(fmt.Sprintf("free(%s)", reflect.TypeFor[T]()), initial)}
}

// Valid reports whether v refers to a cell or view.
func (v Varying) Valid() bool { return v.c != nil || v.v != nil }

// Type returns the type the slot was created with, or nil.
func (v Varying) Type() reflect.Type {
	switch {
	case v.c != nil:
		return v.c.typ
	case v.v != nil:
		return v.v.typ
	}
	return nil
}

// Name returns a diagnostic name: the producer for outputs, the task for
// inputs.
func (v Varying) Name() string {
	switch {
	case v.c != nil:
		return v.c.name
	case v.v != nil:
		return v.v.name
	}
	return "<invalid>"
}

// Policy returns the slot's skip policy. Views report RetainLast.
func (v Varying) Policy() SkipPolicy {
	if v.c != nil {
		return v.c.policy
	}
	return RetainLast
}

// ReadOnly reports whether v is a derived view.
func (v Varying) ReadOnly() bool { return v.v != nil }

func (v Varying) roots() []*cell {
	switch {
	case v.c != nil:
		return []*cell{v.c}
	case v.v != nil:
		return v.v.roots
	}
	return nil
}

func (v Varying) load() any {
	switch {
	case v.c != nil:
		return v.c.value
	case v.v != nil:
		return v.v.load()
	}
	return nil
}

func (v Varying) String() string {
	return fmt.Sprintf("%s<%s>", v.Name(), v.Type())
}

func checkType[T any](v Varying) error {
	if !v.Valid() {
		return errors.InvalidGraph("", "use of a zero Varying")
	}
	want := reflect.TypeFor[T]()
	if got := v.Type(); got != want {
		return errors.TypeMismatch(v.Name(), want.String(), got.String())
	}
	return nil
}

// cast converts a stored value; nil stands for the zero value of interface
// and pointer types.
func cast[T any](raw any) T {
	if raw == nil {
		var zero T
		return zero
	}
	return raw.(T)
}

// Get returns the current value. It fails with TYPE_MISMATCH unless T is
// exactly the creation type.
func Get[T any](v Varying) (T, error) {
	if err := checkType[T](v); err != nil {
		var zero T
		return zero, err
	}
	return cast[T](v.load()), nil
}

// MustGet is Get that panics on error.
func MustGet[T any](v Varying) T {
	val, err := Get[T](v)
	if err != nil {
		panic(err)
	}
	return val
}

// Set overwrites the value of a cell. Views are read-only.
func Set[T any](v Varying, value T) error {
	if err := checkType[T](v); err != nil {
		return err
	}
	if v.ReadOnly() {
		return errors.ReadOnlySlot(v.Name())
	}
	v.c.value = value
	return nil
}

// SlotOf converts v to a typed Slot, checking the type once.
func SlotOf[T any](v Varying) (Slot[T], error) {
	if err := checkType[T](v); err != nil {
		return Slot[T]{}, err
	}
	return Slot[T]{v: v}, nil
}
