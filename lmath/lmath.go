// Package lmath provides the affine transform and bounding box math used
// throughout layview. Coordinates are database units in world space unless
// noted otherwise.
package lmath

import (
	"math"

	"honnef.co/go/curve"
)

// Transform is a 2D affine transform.
//
//	x' = Matrix[0]*x + Matrix[2]*y + Translation[0]
//	y' = Matrix[1]*x + Matrix[3]*y + Translation[1]
type Transform struct {
	Matrix      [4]float64
	Translation [2]float64
}

var Identity = Transform{
	Matrix: [4]float64{1, 0, 0, 1},
}

// Mul composes two transforms; the result applies other first, then t.
func (t Transform) Mul(other Transform) Transform {
	return Transform{
		Matrix: [4]float64{
			t.Matrix[0]*other.Matrix[0] + t.Matrix[2]*other.Matrix[1],
			t.Matrix[1]*other.Matrix[0] + t.Matrix[3]*other.Matrix[1],
			t.Matrix[0]*other.Matrix[2] + t.Matrix[2]*other.Matrix[3],
			t.Matrix[1]*other.Matrix[2] + t.Matrix[3]*other.Matrix[3],
		},
		Translation: [2]float64{
			t.Matrix[0]*other.Translation[0] +
				t.Matrix[2]*other.Translation[1] +
				t.Translation[0],
			t.Matrix[1]*other.Translation[0] +
				t.Matrix[3]*other.Translation[1] +
				t.Translation[1],
		},
	}
}

func (t Transform) Apply(p curve.Point) curve.Point {
	return curve.Point{
		X: t.Matrix[0]*p.X + t.Matrix[2]*p.Y + t.Translation[0],
		Y: t.Matrix[1]*p.X + t.Matrix[3]*p.Y + t.Translation[1],
	}
}

// ApplyVec transforms a direction, ignoring translation.
func (t Transform) ApplyVec(v curve.Vec2) curve.Vec2 {
	return curve.Vec(
		t.Matrix[0]*v.X+t.Matrix[2]*v.Y,
		t.Matrix[1]*v.X+t.Matrix[3]*v.Y,
	)
}

func (t Transform) Determinant() float64 {
	return t.Matrix[0]*t.Matrix[3] - t.Matrix[1]*t.Matrix[2]
}

// Scale returns the uniform scale factor of the transform, i.e. the factor
// by which it scales areas, square-rooted. Reflections do not contribute a
// sign.
func (t Transform) Scale() float64 {
	return math.Sqrt(math.Abs(t.Determinant()))
}

func (t Transform) IsIdentity() bool {
	const eps = 1e-12
	return math.Abs(t.Matrix[0]-1) < eps &&
		math.Abs(t.Matrix[1]) < eps &&
		math.Abs(t.Matrix[2]) < eps &&
		math.Abs(t.Matrix[3]-1) < eps &&
		math.Abs(t.Translation[0]) < eps &&
		math.Abs(t.Translation[1]) < eps
}

func Translate(v curve.Vec2) Transform {
	return Transform{
		Matrix:      [4]float64{1, 0, 0, 1},
		Translation: [2]float64{v.X, v.Y},
	}
}

// Rotate returns a counter-clockwise rotation by the given angle in degrees.
func Rotate(degrees float64) Transform {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Transform{
		Matrix: [4]float64{cos, sin, -sin, cos},
	}
}

func Scaling(s float64) Transform {
	return Transform{
		Matrix: [4]float64{s, 0, 0, s},
	}
}

// ReflectX mirrors about the x axis (y becomes -y).
func ReflectX() Transform {
	return Transform{
		Matrix: [4]float64{1, 0, 0, -1},
	}
}

// Placement builds the instance transform for a structure placement:
// reflect about the x axis, rotate counter-clockwise by angle degrees,
// magnify, then translate to pos. A magnification of zero is treated as
// one, matching decoders that leave the field unset.
func Placement(reflect bool, degrees, mag float64, pos curve.Point) Transform {
	if mag == 0 {
		mag = 1
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	m := Transform{
		Matrix:      [4]float64{cos * mag, sin * mag, -sin * mag, cos * mag},
		Translation: [2]float64{pos.X, pos.Y},
	}
	if reflect {
		// Reflection applies before rotation: negate the second column.
		m.Matrix[2] = -m.Matrix[2]
		m.Matrix[3] = -m.Matrix[3]
	}
	return m
}

// BBox is an axis-aligned bounding box. The empty box (no geometry) is
// distinct from a degenerate box with min == max; use Empty to construct it
// and IsEmpty to test for it. Aggregation helpers skip empty boxes, so an
// infinity box never escapes to callers.
type BBox struct {
	MinX, MinY, MaxX, MaxY float64
}

// Empty returns the box that contains nothing.
func Empty() BBox {
	return BBox{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
}

func (b BBox) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

func (b BBox) Width() float64  { return b.MaxX - b.MinX }
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

func (b BBox) Center() curve.Point {
	return curve.Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Union returns the smallest box containing both boxes. Empty operands are
// ignored.
func (b BBox) Union(other BBox) BBox {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return BBox{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}

// Add extends the box to contain p.
func (b BBox) Add(p curve.Point) BBox {
	if b.IsEmpty() {
		return BBox{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
	}
	return BBox{
		MinX: min(b.MinX, p.X),
		MinY: min(b.MinY, p.Y),
		MaxX: max(b.MaxX, p.X),
		MaxY: max(b.MaxY, p.Y),
	}
}

// Expand grows the box by d on every side.
func (b BBox) Expand(d float64) BBox {
	if b.IsEmpty() {
		return b
	}
	return BBox{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

func (b BBox) Intersects(other BBox) bool {
	if b.IsEmpty() || other.IsEmpty() {
		return false
	}
	return b.MinX <= other.MaxX && b.MaxX >= other.MinX &&
		b.MinY <= other.MaxY && b.MaxY >= other.MinY
}

func (b BBox) Contains(p curve.Point) bool {
	if b.IsEmpty() {
		return false
	}
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// BoundsOf computes the bounding box of a point list. It returns the empty
// box when pts is empty or contains no finite points.
func BoundsOf(pts []curve.Point) BBox {
	b := Empty()
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		b = b.Add(p)
	}
	return b
}

// TransformBBox transforms all four corners of b and returns their bounding
// box. The empty box transforms to itself.
func TransformBBox(t Transform, b BBox) BBox {
	if b.IsEmpty() {
		return b
	}
	out := Empty()
	out = out.Add(t.Apply(curve.Point{X: b.MinX, Y: b.MinY}))
	out = out.Add(t.Apply(curve.Point{X: b.MaxX, Y: b.MinY}))
	out = out.Add(t.Apply(curve.Point{X: b.MaxX, Y: b.MaxY}))
	out = out.Add(t.Apply(curve.Point{X: b.MinX, Y: b.MaxY}))
	return out
}
