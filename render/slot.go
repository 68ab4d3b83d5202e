package render

import (
	"fmt"
	"reflect"
)

// Slot is a statically typed handle to a Varying. A Slot obtained from a
// constructor or SlotOf never needs a runtime type check to read.
type Slot[T any] struct {
	v Varying
}

// NewSlot creates a free-standing typed cell. Like NewVarying, it has no
// producer and cannot be bound to a node.
func NewSlot[T any](initial T) Slot[T] {
	return Slot[T]{v: NewVarying(initial)}
}

// Get returns the current value, or the zero value for an invalid slot.
func (s Slot[T]) Get() T { return cast[T](s.v.load()) }

// Varying returns the type-erased handle.
func (s Slot[T]) Varying() Varying { return s.v }

// Name returns the slot's diagnostic name.
func (s Slot[T]) Name() string { return s.v.Name() }

// Valid reports whether s refers to a cell or view.
func (s Slot[T]) Valid() bool { return s.v.Valid() }

// ReadOnly reports whether s is a derived view.
func (s Slot[T]) ReadOnly() bool { return s.v.ReadOnly() }

func (s Slot[T]) String() string { return s.v.String() }

// set is the engine's write path; producers never see it.
func (s Slot[T]) set(value T) {
	if s.v.c != nil {
		s.v.c.value = value
	}
}

// Set2 is a fixed pair of values carried by one slot.
type Set2[A, B any] struct {
	First  A
	Second B
}

// Set3 is a fixed triple of values carried by one slot.
type Set3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func derive[T any](name string, load func() any, sources ...Varying) Slot[T] {
	var roots []*cell
	for _, src := range sources {
		roots = append(roots, src.roots()...)
	}
	return Slot[T]{v: Varying{v: &view{
		typ:   reflect.TypeFor[T](),
		name:  name,
		roots: roots,
		load:  load,
	}}}
}

// Join2 presents two slots as one read-only Set2 slot. Binding the result
// binds both sources.
func Join2[A, B any](a Slot[A], b Slot[B]) Slot[Set2[A, B]] {
	name := fmt.Sprintf("join(%s,%s)", a.Name(), b.Name())
	return derive[Set2[A, B]](name, func() any {
		return Set2[A, B]{First: a.Get(), Second: b.Get()}
	}, a.v, b.v)
}

// Join3 presents three slots as one read-only Set3 slot.
func Join3[A, B, C any](a Slot[A], b Slot[B], c Slot[C]) Slot[Set3[A, B, C]] {
	name := fmt.Sprintf("join(%s,%s,%s)", a.Name(), b.Name(), c.Name())
	return derive[Set3[A, B, C]](name, func() any {
		return Set3[A, B, C]{First: a.Get(), Second: b.Get(), Third: c.Get()}
	}, a.v, b.v, c.v)
}

// Split2 returns read-only views of the elements of a Set2 slot.
func Split2[A, B any](s Slot[Set2[A, B]]) (Slot[A], Slot[B]) {
	first := derive[A](s.Name()+"[0]", func() any { return s.Get().First }, s.v)
	second := derive[B](s.Name()+"[1]", func() any { return s.Get().Second }, s.v)
	return first, second
}

// Split3 returns read-only views of the elements of a Set3 slot.
func Split3[A, B, C any](s Slot[Set3[A, B, C]]) (Slot[A], Slot[B], Slot[C]) {
	first := derive[A](s.Name()+"[0]", func() any { return s.Get().First }, s.v)
	second := derive[B](s.Name()+"[1]", func() any { return s.Get().Second }, s.v)
	third := derive[C](s.Name()+"[2]", func() any { return s.Get().Third }, s.v)
	return first, second, third
}

// Project returns a read-only view computing fn over s on every read.
//
//	opaques := render.Project(in, "opaques", func(i Inputs) scene.ItemBounds { return i.Opaques })
func Project[S, T any](s Slot[S], name string, fn func(S) T) Slot[T] {
	return derive[T](s.Name()+"."+name, func() any { return fn(s.Get()) }, s.v)
}
