package gds

import (
	"slices"

	"honnef.co/go/curve"
	"honnef.co/go/layview/lmath"
)

// Element is the closed union of element kinds. Boundary, Path, Box, Node,
// and Text carry geometry on a layer; SRef and ARef place another structure.
type Element interface {
	isElement()
}

func (*Boundary) isElement() {}
func (*Path) isElement()     {}
func (*Box) isElement()      {}
func (*Node) isElement()     {}
func (*Text) isElement()     {}
func (*SRef) isElement()     {}
func (*ARef) isElement()     {}

// Strans describes the orientation part of a placement: reflect about the x
// axis, then rotate counter-clockwise by Angle degrees, then scale by Mag.
// A Mag of zero means one.
type Strans struct {
	Reflect bool
	Angle   float64
	Mag     float64
}

// Transform returns the placement transform for this orientation at pos.
func (s Strans) Transform(pos curve.Point) lmath.Transform {
	return lmath.Placement(s.Reflect, s.Angle, s.Mag, pos)
}

// PathType selects the path end style.
type PathType uint16

const (
	PathButt   PathType = 0
	PathRound  PathType = 1
	PathSquare PathType = 2
)

// Boundary is a closed polygon.
type Boundary struct {
	LayerKey
	Points []curve.Point
	Bounds *lmath.BBox
}

// Path is an open polyline with a width.
type Path struct {
	LayerKey
	Points   []curve.Point
	Width    float64
	Type     PathType
	BeginExt float64
	EndExt   float64
	Bounds   *lmath.BBox
}

// Box is a four-corner rectangle element.
type Box struct {
	LayerKey
	Points []curve.Point
	Bounds *lmath.BBox
}

// Node is an electrical point marker.
type Node struct {
	LayerKey
	Points []curve.Point
	Bounds *lmath.BBox
}

// Justify selects text anchor alignment.
type Justify uint16

const (
	JustifyLeft   Justify = 0
	JustifyCenter Justify = 1
	JustifyRight  Justify = 2

	JustifyTop    Justify = 0
	JustifyMiddle Justify = 1
	JustifyBottom Justify = 2
)

// Text is a string anchored at a point.
type Text struct {
	LayerKey
	String   string
	Anchor   curve.Point
	HJustify Justify
	VJustify Justify
	Strans   Strans
	Bounds   *lmath.BBox
}

// SRef places the named structure at each of one or more positions, all
// sharing the same orientation.
type SRef struct {
	StructureName string
	Positions     []curve.Point
	Strans        Strans
}

// ARef places the named structure on a rows×columns grid. Corners holds the
// grid origin, the point reached after advancing all columns, and the point
// reached after advancing all rows, in that order.
type ARef struct {
	StructureName string
	Corners       [3]curve.Point
	Columns       int
	Rows          int
	Strans        Strans
}

// Key returns the element's layer key. References have no layer; the zero
// key is returned for them.
func Key(e Element) LayerKey {
	switch e := e.(type) {
	case *Boundary:
		return e.LayerKey
	case *Path:
		return e.LayerKey
	case *Box:
		return e.LayerKey
	case *Node:
		return e.LayerKey
	case *Text:
		return e.LayerKey
	case *SRef, *ARef:
		return LayerKey{}
	default:
		panic("unhandled element kind")
	}
}

// Bounds returns the element's cached bounding box, or the empty box when
// none is set. References carry no bounds of their own.
func Bounds(e Element) lmath.BBox {
	var b *lmath.BBox
	switch e := e.(type) {
	case *Boundary:
		b = e.Bounds
	case *Path:
		b = e.Bounds
	case *Box:
		b = e.Bounds
	case *Node:
		b = e.Bounds
	case *Text:
		b = e.Bounds
	case *SRef, *ARef:
	default:
		panic("unhandled element kind")
	}
	if b == nil {
		return lmath.Empty()
	}
	return *b
}

func transformPoints(t lmath.Transform, pts []curve.Point) []curve.Point {
	out := make([]curve.Point, len(pts))
	for i, p := range pts {
		out[i] = t.Apply(p)
	}
	return out
}

// boundsOf recomputes a cached bounding box from transformed coordinates,
// returning nil when there is no valid extent. A nil result must stay nil
// so that downstream aggregation skips the element instead of widening to
// an infinity box.
func boundsOf(pts []curve.Point) *lmath.BBox {
	b := lmath.BoundsOf(pts)
	if b.IsEmpty() {
		return nil
	}
	return &b
}

// Transformed returns a new copy of a geometry element with all coordinates
// transformed by t and the bounding box recomputed. The input is never
// mutated. Reference elements cannot be transformed this way; expanding
// them is the resolver's job, and passing one is a programming error.
func Transformed(e Element, t lmath.Transform) Element {
	switch e := e.(type) {
	case *Boundary:
		c := *e
		c.Points = transformPoints(t, e.Points)
		c.Bounds = boundsOf(c.Points)
		return &c
	case *Path:
		c := *e
		c.Points = transformPoints(t, e.Points)
		scale := t.Scale()
		c.Width = e.Width * scale
		c.BeginExt = e.BeginExt * scale
		c.EndExt = e.EndExt * scale
		if b := boundsOf(c.Points); b != nil {
			// Widen by the half-width so strokes are not culled at the
			// viewport edge.
			w := *b
			w = w.Expand(c.Width / 2)
			c.Bounds = &w
		} else {
			c.Bounds = nil
		}
		return &c
	case *Box:
		c := *e
		c.Points = transformPoints(t, e.Points)
		c.Bounds = boundsOf(c.Points)
		return &c
	case *Node:
		c := *e
		c.Points = transformPoints(t, e.Points)
		c.Bounds = boundsOf(c.Points)
		return &c
	case *Text:
		c := *e
		c.Anchor = t.Apply(e.Anchor)
		// The text's own orientation survives flattening; its
		// magnification scales with the transform like path widths do.
		if c.Strans.Mag == 0 {
			c.Strans.Mag = 1
		}
		c.Strans.Mag *= t.Scale()
		c.Bounds = boundsOf([]curve.Point{c.Anchor})
		return &c
	default:
		panic("cannot transform a reference element")
	}
}

// Clone returns a deep copy of a geometry element. Reference elements are
// not cloned; the resolver never emits them.
func Clone(e Element) Element {
	switch e := e.(type) {
	case *Boundary:
		c := *e
		c.Points = slices.Clone(e.Points)
		return &c
	case *Path:
		c := *e
		c.Points = slices.Clone(e.Points)
		return &c
	case *Box:
		c := *e
		c.Points = slices.Clone(e.Points)
		return &c
	case *Node:
		c := *e
		c.Points = slices.Clone(e.Points)
		return &c
	case *Text:
		c := *e
		return &c
	default:
		panic("cannot clone a reference element")
	}
}
