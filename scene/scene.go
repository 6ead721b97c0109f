// Package scene turns a flattened layout into a queryable scene graph: a
// spatial index over world-space elements plus per-layer membership and
// visibility.
package scene

import (
	"strconv"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/lmath"
	"honnef.co/go/layview/quadtree"
	"honnef.co/go/layview/resolve"
)

// Element is one flattened, world-space element in the scene. ID is unique
// across the scene and stable for the lifetime of the graph; it identifies
// the element across the duplicates a spatial query can report.
type Element struct {
	Element gds.Element
	Bounds  lmath.BBox

	// Structure is the name of the structure that directly contains the
	// element; ID is the element's position in flatten order. Repeated
	// placements of the same structure get distinct IDs.
	Structure string
	ID        int
}

// Key returns a string identity for deduplication and debugging.
func (e *Element) Key() string {
	return e.Structure + "_" + strconv.Itoa(e.ID)
}

// layer holds one drawing layer's elements and visibility.
type layer struct {
	elements []*Element
	visible  bool
}

// Options tunes scene graph construction.
type Options struct {
	// QuadtreeCapacity and QuadtreeMaxDepth tune the spatial index; zero
	// selects the quadtree package defaults.
	QuadtreeCapacity int
	QuadtreeMaxDepth int
}

// Graph is the queryable scene: all flattened elements, indexed spatially
// and grouped by layer. Construction is done once per library/top pair;
// visibility toggles never rebuild the graph.
type Graph struct {
	elements []*Element
	index    *quadtree.Tree[*Element]
	layers   sortedMap[uint64, *layer]
	bounds   lmath.BBox
	cycles   [][]string
}

// Build flattens the named top structure of lib and constructs the scene
// graph over the result. All layers start visible.
func Build(lib *gds.Library, top string, opts Options) *Graph {
	resolver := resolve.NewResolver(lib)
	flat := resolver.Flatten(top, lmath.Identity)

	g := &Graph{
		elements: make([]*Element, 0, len(flat)),
		cycles:   resolver.Cycles(),
	}

	bounds := lmath.Empty()
	for i, res := range flat {
		el := &Element{
			Element:   res.Element,
			Bounds:    gds.Bounds(res.Element),
			Structure: res.Structure,
			ID:        i,
		}
		g.elements = append(g.elements, el)
		bounds = bounds.Union(el.Bounds)
	}
	if bounds.IsEmpty() {
		// A degenerate zero box keeps the index constructible for empty
		// scenes.
		bounds = lmath.BBox{}
	}
	g.bounds = bounds

	g.index = quadtree.New[*Element](bounds, opts.QuadtreeCapacity, opts.QuadtreeMaxDepth)
	for _, el := range g.elements {
		if el.Bounds.IsEmpty() {
			continue
		}
		g.index.Insert(el, el.Bounds)

		ord := gds.Key(el.Element).Ord()
		l, ok := g.layers.Get(ord)
		if !ok {
			l = &layer{visible: true}
			g.layers.Insert(ord, l)
		}
		l.elements = append(l.elements, el)
	}

	xlog.Get().Debug("scene graph built",
		"top", top,
		"elements", len(g.elements),
		"layers", g.layers.Len(),
		"cycles", len(g.cycles))
	return g
}

// Bounds returns the union of all element bounds, or a zero box for an
// empty scene.
func (g *Graph) Bounds() lmath.BBox {
	return g.bounds
}

// Total returns the number of elements in the scene.
func (g *Graph) Total() int {
	return len(g.elements)
}

// Cycles returns the cyclic reference paths found while flattening.
func (g *Graph) Cycles() [][]string {
	return g.cycles
}

// QueryRegion returns the elements intersecting region, each exactly once,
// restricted to visible layers. Order follows the spatial index walk.
func (g *Graph) QueryRegion(region lmath.BBox) []*Element {
	raw := g.index.Query(region, nil)
	return g.dedup(raw)
}

// QueryPoint returns the elements whose bounds contain p, each exactly
// once, restricted to visible layers.
func (g *Graph) QueryPoint(p curve.Point) []*Element {
	raw := g.index.QueryPoint(p, nil)
	return g.dedup(raw)
}

// dedup keeps the first occurrence of each element and drops elements on
// hidden layers. The index multi-inserts spanning items, so raw results
// can repeat.
func (g *Graph) dedup(raw []*Element) []*Element {
	seen := make(map[*Element]bool, len(raw))
	out := raw[:0]
	for _, el := range raw {
		if seen[el] {
			continue
		}
		seen[el] = true
		if !g.layerVisible(gds.Key(el.Element)) {
			continue
		}
		out = append(out, el)
	}
	return out
}

// Layers returns all layer keys present in the scene, in ascending
// (layer, datatype) order.
func (g *Graph) Layers() []gds.LayerKey {
	out := make([]gds.LayerKey, 0, g.layers.Len())
	for ord := range g.layers.Keys() {
		out = append(out, gds.LayerKey{
			Layer:    int32(ord >> 32),
			DataType: int32(ord & 0xffffffff),
		})
	}
	return out
}

// Members returns the elements on one layer, in flatten order. The slice
// is owned by the graph and must not be modified.
func (g *Graph) Members(key gds.LayerKey) []*Element {
	l, ok := g.layers.Get(key.Ord())
	if !ok {
		return nil
	}
	return l.elements
}

// SetLayerVisible toggles a layer without touching the index or the layer
// table's membership. Unknown layers are ignored.
func (g *Graph) SetLayerVisible(key gds.LayerKey, visible bool) {
	if l, ok := g.layers.Get(key.Ord()); ok {
		l.visible = visible
	}
}

// LayerVisible reports whether the layer is visible. Layers absent from
// the scene report false.
func (g *Graph) LayerVisible(key gds.LayerKey) bool {
	return g.layerVisible(key)
}

func (g *Graph) layerVisible(key gds.LayerKey) bool {
	l, ok := g.layers.Get(key.Ord())
	return ok && l.visible
}

// IndexStats exposes the shape of the spatial index.
func (g *Graph) IndexStats() quadtree.Stats {
	return g.index.Stats()
}
