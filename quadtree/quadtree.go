// Package quadtree implements a region quadtree over axis-aligned bounding
// boxes. Items spanning several children are inserted into every child they
// overlap, so queries may report an item more than once; callers that need
// set semantics deduplicate on their own key.
package quadtree

import (
	"honnef.co/go/curve"
	"honnef.co/go/layview/lmath"
)

const (
	DefaultCapacity = 16
	DefaultMaxDepth = 8
)

// Tree is a quadtree over items of type T. The zero value is not usable;
// construct with New.
type Tree[T any] struct {
	root     *node[T]
	bounds   lmath.BBox
	capacity int
	maxDepth int
	count    int
}

type entry[T any] struct {
	item   T
	bounds lmath.BBox
}

type node[T any] struct {
	bounds   lmath.BBox
	entries  []entry[T]
	children *[4]node[T]
	depth    int
}

// New returns a tree covering bounds. A non-positive capacity or maxDepth
// falls back to the default.
func New[T any](bounds lmath.BBox, capacity, maxDepth int) *Tree[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree[T]{
		root:     &node[T]{bounds: bounds},
		bounds:   bounds,
		capacity: capacity,
		maxDepth: maxDepth,
	}
}

// Insert adds an item with the given bounds. Items that do not intersect the
// tree's region are kept at the root so they are never lost, merely
// unaccelerated.
func (t *Tree[T]) Insert(item T, bounds lmath.BBox) {
	if bounds.IsEmpty() {
		return
	}
	t.count++
	if !t.bounds.Intersects(bounds) {
		t.root.entries = append(t.root.entries, entry[T]{item: item, bounds: bounds})
		return
	}
	t.root.insert(entry[T]{item: item, bounds: bounds}, t.capacity, t.maxDepth)
}

// Query appends every item whose bounds intersect region to dst and returns
// the result. Items straddling child boundaries can appear more than once.
func (t *Tree[T]) Query(region lmath.BBox, dst []T) []T {
	return t.root.query(region, dst)
}

// QueryPoint appends every item whose bounds contain p to dst.
func (t *Tree[T]) QueryPoint(p curve.Point, dst []T) []T {
	return t.root.queryPoint(p, dst)
}

// Len returns the number of inserted items, counting each item once
// regardless of how many nodes hold it.
func (t *Tree[T]) Len() int {
	return t.count
}

// Bounds returns the region the tree covers.
func (t *Tree[T]) Bounds() lmath.BBox {
	return t.bounds
}

// Clear removes all items, keeping the region and tuning parameters.
func (t *Tree[T]) Clear() {
	t.root = &node[T]{bounds: t.bounds}
	t.count = 0
}

// Stats describes the shape of the tree.
type Stats struct {
	Nodes    int
	Leaves   int
	MaxDepth int
	Items    int
}

func (t *Tree[T]) Stats() Stats {
	var s Stats
	t.root.stats(&s)
	s.Items = t.count
	return s
}

func (n *node[T]) insert(e entry[T], capacity, maxDepth int) {
	if n.children == nil {
		if len(n.entries) < capacity || n.depth >= maxDepth {
			n.entries = append(n.entries, e)
			return
		}
		n.subdivide(capacity, maxDepth)
	}
	n.place(e, capacity, maxDepth)
}

// place routes an entry into every overlapping child; entries overlapping no
// child (degenerate node geometry) stay on this node.
func (n *node[T]) place(e entry[T], capacity, maxDepth int) {
	hit := false
	for i := range n.children {
		if n.children[i].bounds.Intersects(e.bounds) {
			n.children[i].insert(e, capacity, maxDepth)
			hit = true
		}
	}
	if !hit {
		n.entries = append(n.entries, e)
	}
}

func (n *node[T]) subdivide(capacity, maxDepth int) {
	cx := (n.bounds.MinX + n.bounds.MaxX) / 2
	cy := (n.bounds.MinY + n.bounds.MaxY) / 2
	n.children = &[4]node[T]{
		{bounds: lmath.BBox{MinX: n.bounds.MinX, MinY: n.bounds.MinY, MaxX: cx, MaxY: cy}, depth: n.depth + 1},
		{bounds: lmath.BBox{MinX: cx, MinY: n.bounds.MinY, MaxX: n.bounds.MaxX, MaxY: cy}, depth: n.depth + 1},
		{bounds: lmath.BBox{MinX: n.bounds.MinX, MinY: cy, MaxX: cx, MaxY: n.bounds.MaxY}, depth: n.depth + 1},
		{bounds: lmath.BBox{MinX: cx, MinY: cy, MaxX: n.bounds.MaxX, MaxY: n.bounds.MaxY}, depth: n.depth + 1},
	}
	old := n.entries
	n.entries = nil
	for _, e := range old {
		n.place(e, capacity, maxDepth)
	}
}

func (n *node[T]) query(region lmath.BBox, dst []T) []T {
	for _, e := range n.entries {
		if e.bounds.Intersects(region) {
			dst = append(dst, e.item)
		}
	}
	if n.children != nil {
		for i := range n.children {
			if n.children[i].bounds.Intersects(region) {
				dst = n.children[i].query(region, dst)
			}
		}
	}
	return dst
}

func (n *node[T]) queryPoint(p curve.Point, dst []T) []T {
	for _, e := range n.entries {
		if e.bounds.Contains(p) {
			dst = append(dst, e.item)
		}
	}
	if n.children != nil {
		for i := range n.children {
			if n.children[i].bounds.Contains(p) {
				dst = n.children[i].queryPoint(p, dst)
			}
		}
	}
	return dst
}

func (n *node[T]) stats(s *Stats) {
	s.Nodes++
	if n.depth > s.MaxDepth {
		s.MaxDepth = n.depth
	}
	if n.children == nil {
		s.Leaves++
		return
	}
	for i := range n.children {
		n.children[i].stats(s)
	}
}
