package wgpuengine

import (
	"math"
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
)

func meshArea(m Mesh) float64 {
	var area float64
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := curve.Point{X: float64(m.Vertices[m.Indices[i]*2]), Y: float64(m.Vertices[m.Indices[i]*2+1])}
		b := curve.Point{X: float64(m.Vertices[m.Indices[i+1]*2]), Y: float64(m.Vertices[m.Indices[i+1]*2+1])}
		c := curve.Point{X: float64(m.Vertices[m.Indices[i+2]*2]), Y: float64(m.Vertices[m.Indices[i+2]*2+1])}
		area += math.Abs(cross(a, b, c)) / 2
	}
	return area
}

func TestTriangulateSquare(t *testing.T) {
	var m Mesh
	m.AddPolygon([]curve.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	})
	if got := len(m.Indices); got != 6 {
		t.Errorf("square produced %d indices, want 6", got)
	}
	if got := meshArea(m); math.Abs(got-100) > 1e-6 {
		t.Errorf("triangulated area = %g, want 100", got)
	}
}

func TestTriangulateClockwise(t *testing.T) {
	// Winding must not matter; the clipper normalizes it.
	var m Mesh
	m.AddPolygon([]curve.Point{
		{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0},
	})
	if got := meshArea(m); math.Abs(got-100) > 1e-6 {
		t.Errorf("clockwise area = %g, want 100", got)
	}
}

func TestTriangulateConcave(t *testing.T) {
	// L shape: 10x10 square with a 5x5 bite out of the top right corner.
	var m Mesh
	m.AddPolygon([]curve.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5},
		{X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	})
	if got := len(m.Indices); got != 12 {
		t.Errorf("L shape produced %d indices, want 12", got)
	}
	if got := meshArea(m); math.Abs(got-75) > 1e-6 {
		t.Errorf("L shape area = %g, want 75", got)
	}
}

func TestTriangulateClosedRing(t *testing.T) {
	// A duplicated closing vertex is stripped, not triangulated.
	var m Mesh
	m.AddPolygon([]curve.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0},
	})
	if got := len(m.Vertices) / 2; got != 4 {
		t.Errorf("closed ring kept %d vertices, want 4", got)
	}
	if got := meshArea(m); math.Abs(got-100) > 1e-6 {
		t.Errorf("closed ring area = %g, want 100", got)
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	cases := [][]curve.Point{
		nil,
		{{X: 0, Y: 0}},
		{{X: 0, Y: 0}, {X: 1, Y: 1}},
		{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}}, // collinear, zero area
		{{X: 0, Y: 0}, {X: math.NaN(), Y: 0}, {X: 1, Y: 1}},
		{{X: 0, Y: 0}, {X: math.Inf(1), Y: 0}, {X: 1, Y: 1}},
	}
	for i, pts := range cases {
		var m Mesh
		m.AddPolygon(pts)
		if len(m.Indices) != 0 || len(m.Vertices) != 0 {
			t.Errorf("case %d: degenerate input produced geometry", i)
		}
	}
}

func TestAddPath(t *testing.T) {
	var m Mesh
	m.AddPath(&gds.Path{
		Points: []curve.Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Width:  2,
	})
	// One segment, one quad, two triangles.
	if got := len(m.Indices); got != 6 {
		t.Errorf("segment produced %d indices, want 6", got)
	}
	if got := meshArea(m); math.Abs(got-20) > 1e-6 {
		t.Errorf("stroke area = %g, want 20", got)
	}
}

func TestAddPathSquareEnds(t *testing.T) {
	var m Mesh
	m.AddPath(&gds.Path{
		Points: []curve.Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Width:  2,
		Type:   gds.PathSquare,
	})
	// Square ends extend each end by the half width: 12 long, 2 wide.
	if got := meshArea(m); math.Abs(got-24) > 1e-6 {
		t.Errorf("square-ended stroke area = %g, want 24", got)
	}
}

func TestAddPathDegenerateEndsKeepExtensions(t *testing.T) {
	// Degenerate leading and trailing segments must not swallow the end
	// extensions; they apply to the first and last real segment.
	var m Mesh
	m.AddPath(&gds.Path{
		Points: []curve.Point{
			{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 0},
		},
		Width: 2,
		Type:  gds.PathSquare,
	})
	// Square ends extend both ends by the half width: 12 long, 2 wide.
	if got := meshArea(m); math.Abs(got-24) > 1e-6 {
		t.Errorf("extended stroke area = %g, want 24", got)
	}
}

func TestAddPathAllDegenerate(t *testing.T) {
	var m Mesh
	m.AddPath(&gds.Path{
		Points: []curve.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}},
		Width:  2,
	})
	if len(m.Indices) != 0 {
		t.Errorf("all-degenerate path produced %d indices", len(m.Indices))
	}
}

func TestAddPathZeroLengthSegment(t *testing.T) {
	var m Mesh
	m.AddPath(&gds.Path{
		Points: []curve.Point{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}},
		Width:  2,
	})
	// The zero-length segment contributes nothing; the real one remains.
	if got := len(m.Indices); got != 6 {
		t.Errorf("path produced %d indices, want 6", got)
	}
}

func TestMeshIndexOffsets(t *testing.T) {
	var m Mesh
	m.AddPolygon([]curve.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	m.AddPolygon([]curve.Point{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 6}})
	if got := len(m.Vertices) / 2; got != 6 {
		t.Fatalf("mesh has %d vertices, want 6", got)
	}
	for _, ix := range m.Indices[3:] {
		if ix < 3 {
			t.Fatalf("second polygon indexes first polygon's vertices: %v", m.Indices)
		}
	}
}
