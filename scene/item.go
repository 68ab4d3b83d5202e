package scene

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/gpu"
)

// ItemID identifies an item within a Scene.
type ItemID uint32

// Bound is an axis-aligned bounding box in world space.
type Bound struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Center returns the box center.
func (b Bound) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// ItemBound pairs an item with its bound for one frame.
type ItemBound struct {
	ID    ItemID
	Bound Bound
}

// ItemBounds is the culled, ordered item list a draw job renders.
type ItemBounds []ItemBound

// SortFrontToBack orders items by increasing distance from eye.
func (ib ItemBounds) SortFrontToBack(eye mgl32.Vec3) {
	sort.SliceStable(ib, func(i, j int) bool {
		return dist2(ib[i].Bound.Center(), eye) < dist2(ib[j].Bound.Center(), eye)
	})
}

// SortBackToFront orders items by decreasing distance from eye, as blending
// requires.
func (ib ItemBounds) SortBackToFront(eye mgl32.Vec3) {
	sort.SliceStable(ib, func(i, j int) bool {
		return dist2(ib[i].Bound.Center(), eye) > dist2(ib[j].Bound.Center(), eye)
	})
}

func dist2(a, b mgl32.Vec3) float32 {
	d := a.Sub(b)
	return d.Dot(d)
}

// ShapeKey classifies how an item is drawn.
type ShapeKey uint8

const (
	KeyOpaque      ShapeKey = 0
	KeyTransparent ShapeKey = 1 << (iota - 1)
	KeySkinned
	KeyBackground
)

// IsTransparent reports whether the item blends.
func (k ShapeKey) IsTransparent() bool { return k&KeyTransparent != 0 }

// IsSkinned reports whether the item is skinned.
func (k ShapeKey) IsSkinned() bool { return k&KeySkinned != 0 }

// Item is a drawable the render jobs know only through this interface.
type Item interface {
	Key() ShapeKey
	Render(batch gpu.Batch)
}

// Scene resolves item IDs.
type Scene interface {
	Item(id ItemID) (Item, bool)
}

// Mesh is a minimal Item: a transform and a vertex range.
type Mesh struct {
	Name      string
	ShapeKey  ShapeKey
	Transform mgl32.Mat4
	Primitive gpu.Primitive
	Vertices  int
}

func (m *Mesh) Key() ShapeKey { return m.ShapeKey }

func (m *Mesh) Render(batch gpu.Batch) {
	batch.SetModelTransform(m.Transform)
	batch.Draw(m.Primitive, m.Vertices, 0)
}

// Static is an in-memory Scene. IDs start at 1 and increase in insertion
// order.
type Static struct {
	mu     sync.RWMutex
	items  map[ItemID]Item
	bounds map[ItemID]Bound
	next   ItemID
}

// NewStatic creates an empty scene.
func NewStatic() *Static {
	return &Static{items: make(map[ItemID]Item), bounds: make(map[ItemID]Bound)}
}

// Add inserts an item and returns its ID.
func (s *Static) Add(item Item, bound Bound) ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.items[s.next] = item
	s.bounds[s.next] = bound
	return s.next
}

// Remove drops an item. Later lookups of id fail.
func (s *Static) Remove(id ItemID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	delete(s.bounds, id)
}

// Item implements Scene.
func (s *Static) Item(id ItemID) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	return it, ok
}

// Select returns the bounds of every item whose key satisfies match, in ID
// order.
func (s *Static) Select(match func(ShapeKey) bool) ItemBounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(ItemBounds, 0, len(s.items))
	for id := ItemID(1); id <= s.next; id++ {
		it, ok := s.items[id]
		if !ok || !match(it.Key()) {
			continue
		}
		out = append(out, ItemBound{ID: id, Bound: s.bounds[id]})
	}
	return out
}
