// Package resolve flattens a structure hierarchy into world-space geometry.
//
// A placement of a structure composes the parent's accumulated transform
// with the instance transform built from the reference's orientation and
// position. Each structure's fully flattened geometry is cached once, in
// the structure's own coordinate space; the caller's transform is applied
// on every use. Caching post-transform results under the structure name
// alone would return wrong geometry whenever the same structure is placed
// with two different transforms.
package resolve

import (
	"slices"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/lmath"
)

// Resolved is one world-space geometry element produced by flattening,
// together with the structure that directly contains it and the element's
// index within that structure.
type Resolved struct {
	Element   gds.Element
	Structure string
	Index     int
}

// Resolver flattens structures of a single library. It is not safe for
// concurrent use.
type Resolver struct {
	lib *gds.Library

	// local caches each structure's flattened elements in the structure's
	// own coordinate space (identity transform).
	local map[string][]Resolved

	// resolving tracks structures on the current flattening path; a name
	// reappearing here is a cyclic reference.
	resolving map[string]bool
	path      []string
	cycles    [][]string
}

func NewResolver(lib *gds.Library) *Resolver {
	return &Resolver{
		lib:       lib,
		local:     make(map[string][]Resolved),
		resolving: make(map[string]bool),
	}
}

// Flatten resolves the named structure and everything it places,
// transitively, into a flat list of world-space geometry elements. Missing
// references contribute nothing; cyclic references terminate their branch.
// Both are recorded, not raised. The result is always finite.
func (r *Resolver) Flatten(start string, tf lmath.Transform) []Resolved {
	st, ok := r.lib.Structure(start)
	if !ok {
		xlog.Get().Warn("structure not found", "structure", start)
		return nil
	}
	local := r.resolveLocal(st)
	if tf.IsIdentity() {
		return slices.Clone(local)
	}
	out := make([]Resolved, len(local))
	for i, res := range local {
		out[i] = Resolved{
			Element:   gds.Transformed(res.Element, tf),
			Structure: res.Structure,
			Index:     res.Index,
		}
	}
	return out
}

// Cycles returns the cyclic reference paths encountered so far, each as the
// sequence of structure names ending in the repeated name, e.g. [A B A].
func (r *Resolver) Cycles() [][]string {
	return r.cycles
}

// resolveLocal flattens one structure in its own coordinate space. Results
// are cached per structure; a structure fully resolved once is never
// re-walked. Recursion depth is bounded by the number of distinct
// structures because the resolving set cuts every cycle, so cyclic data
// cannot overflow the stack.
//
// A structure whose resolution was truncated by a cycle cut is not cached:
// its contents depend on the path that reached it, so caching would return
// first-path results to later, differently-rooted resolutions.
func (r *Resolver) resolveLocal(st *gds.Structure) []Resolved {
	if cached, ok := r.local[st.Name]; ok {
		return cached
	}

	r.resolving[st.Name] = true
	r.path = append(r.path, st.Name)
	defer func() {
		delete(r.resolving, st.Name)
		r.path = r.path[:len(r.path)-1]
	}()

	cyclesBefore := len(r.cycles)
	var out []Resolved
	for i, e := range st.Elements {
		switch e := e.(type) {
		case *gds.SRef:
			for _, pos := range e.Positions {
				out = r.place(out, e.StructureName, e.Strans.Transform(pos))
			}
		case *gds.ARef:
			out = r.expandGrid(out, e)
		default:
			res := gds.Transformed(e, lmath.Identity)
			out = append(out, Resolved{Element: res, Structure: st.Name, Index: i})
		}
	}

	if len(r.cycles) == cyclesBefore {
		r.local[st.Name] = out
	}
	return out
}

// place appends the referenced structure's flattened elements, transformed
// by the instance transform, to out.
func (r *Resolver) place(out []Resolved, name string, instance lmath.Transform) []Resolved {
	if r.resolving[name] {
		idx := slices.Index(r.path, name)
		cycle := append(slices.Clone(r.path[idx:]), name)
		r.cycles = append(r.cycles, cycle)
		xlog.Get().Warn("cyclic structure reference", "cycle", cycle)
		return out
	}
	child, ok := r.lib.Structure(name)
	if !ok {
		xlog.Get().Warn("reference to unknown structure", "structure", name)
		return out
	}
	for _, res := range r.resolveLocal(child) {
		out = append(out, Resolved{
			Element:   gds.Transformed(res.Element, instance),
			Structure: res.Structure,
			Index:     res.Index,
		})
	}
	return out
}

// expandGrid expands an array reference into rows×columns placements. The
// three corners define the grid: spacing is the column corner minus the
// origin divided by the column count, and likewise for rows.
func (r *Resolver) expandGrid(out []Resolved, e *gds.ARef) []Resolved {
	if e.Columns <= 0 || e.Rows <= 0 {
		xlog.Get().Warn("array reference with empty grid",
			"structure", e.StructureName, "columns", e.Columns, "rows", e.Rows)
		return out
	}
	origin := e.Corners[0]
	colStep := curve.Vec(
		(e.Corners[1].X-origin.X)/float64(e.Columns),
		(e.Corners[1].Y-origin.Y)/float64(e.Columns),
	)
	rowStep := curve.Vec(
		(e.Corners[2].X-origin.X)/float64(e.Rows),
		(e.Corners[2].Y-origin.Y)/float64(e.Rows),
	)
	for row := 0; row < e.Rows; row++ {
		for col := 0; col < e.Columns; col++ {
			pos := curve.Point{
				X: origin.X + float64(col)*colStep.X + float64(row)*rowStep.X,
				Y: origin.Y + float64(col)*colStep.Y + float64(row)*rowStep.Y,
			}
			out = r.place(out, e.StructureName, e.Strans.Transform(pos))
		}
	}
	return out
}
