package wgpuengine

import (
	"math"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/internal/xlog"
)

// Mesh is triangulated geometry in world coordinates, ready for upload:
// interleaved x,y vertex pairs plus triangle indices.
type Mesh struct {
	Vertices []float32
	Indices  []uint32
}

func (m *Mesh) vertexCount() uint32 {
	return uint32(len(m.Vertices) / 2)
}

func (m *Mesh) addVertex(p curve.Point) {
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y))
}

// AddPolygon triangulates a simple polygon and appends it. Degenerate input
// contributes nothing.
func (m *Mesh) AddPolygon(pts []curve.Point) {
	pts = sanitize(pts)
	if pts == nil {
		return
	}
	tris := earClip(pts)
	if tris == nil {
		return
	}
	base := m.vertexCount()
	for _, p := range pts {
		m.addVertex(p)
	}
	for _, ix := range tris {
		m.Indices = append(m.Indices, base+ix)
	}
}

// AddQuad appends a convex quad without running the ear clipper.
func (m *Mesh) AddQuad(a, b, c, d curve.Point) {
	base := m.vertexCount()
	m.addVertex(a)
	m.addVertex(b)
	m.addVertex(c)
	m.addVertex(d)
	m.Indices = append(m.Indices,
		base, base+1, base+2,
		base, base+2, base+3)
}

// AddPath appends a widened polyline as one quad per segment, with end
// extensions applied to the first and last segment.
func (m *Mesh) AddPath(p *gds.Path) {
	if len(p.Points) < 2 || p.Width <= 0 {
		return
	}
	halfW := p.Width / 2
	begin, end := p.BeginExt, p.EndExt
	if p.Type != gds.PathButt {
		if begin == 0 {
			begin = halfW
		}
		if end == 0 {
			end = halfW
		}
	}
	// Extensions belong to the first and last segments with actual length;
	// a degenerate leading or trailing segment must not swallow them.
	first, last := -1, -1
	for i := 0; i < len(p.Points)-1; i++ {
		if p.Points[i] == p.Points[i+1] {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return
	}
	for i := first; i <= last; i++ {
		a, b := p.Points[i], p.Points[i+1]
		d := b.Sub(a)
		length := d.Hypot()
		if length == 0 {
			continue
		}
		ux, uy := d.X/length, d.Y/length
		if i == first {
			a = curve.Point{X: a.X - ux*begin, Y: a.Y - uy*begin}
		}
		if i == last {
			b = curve.Point{X: b.X + ux*end, Y: b.Y + uy*end}
		}
		nx, ny := -uy*halfW, ux*halfW
		m.AddQuad(
			curve.Point{X: a.X + nx, Y: a.Y + ny},
			curve.Point{X: b.X + nx, Y: b.Y + ny},
			curve.Point{X: b.X - nx, Y: b.Y - ny},
			curve.Point{X: a.X - nx, Y: a.Y - ny},
		)
	}
}

// sanitize strips a duplicated closing vertex and rejects polygons that
// cannot be triangulated. Rejections are logged and skipped so one bad
// element never takes down the batch.
func sanitize(pts []curve.Point) []curve.Point {
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			xlog.Get().Warn("skipping polygon with non-finite vertex")
			return nil
		}
	}
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil
	}
	return pts
}

// earClip triangulates a simple polygon by ear clipping and returns indices
// into pts. The polygon may wind either way. Returns nil for zero-area
// input.
func earClip(pts []curve.Point) []uint32 {
	n := len(pts)
	if n < 3 {
		return nil
	}
	if n == 3 {
		return []uint32{0, 1, 2}
	}

	area := signedArea(pts)
	if area == 0 {
		return nil
	}
	// Work on a CCW index ring; reverse the ring, not the points, so the
	// returned indices still address the caller's order.
	ring := make([]uint32, n)
	for i := range ring {
		ring[i] = uint32(i)
	}
	if area < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}

	tris := make([]uint32, 0, (n-2)*3)
	// Each pass either clips an ear or, for pathological input, bails by
	// clipping the current candidate anyway. The ring shrinks every
	// iteration, so termination is unconditional.
	for len(ring) > 3 {
		clipped := false
		for i := 0; i < len(ring); i++ {
			prev := ring[(i+len(ring)-1)%len(ring)]
			cur := ring[i]
			next := ring[(i+1)%len(ring)]
			if !isEar(pts, ring, prev, cur, next) {
				continue
			}
			tris = append(tris, prev, cur, next)
			ring = append(ring[:i], ring[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// Self-intersecting or collinear leftovers; emit the first
			// candidate to guarantee progress.
			tris = append(tris, ring[len(ring)-1], ring[0], ring[1])
			ring = append(ring[:0], ring[1:]...)
		}
	}
	tris = append(tris, ring[0], ring[1], ring[2])
	return tris
}

func signedArea(pts []curve.Point) float64 {
	var area float64
	for i := range pts {
		j := (i + 1) % len(pts)
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return area / 2
}

func isEar(pts []curve.Point, ring []uint32, prev, cur, next uint32) bool {
	a, b, c := pts[prev], pts[cur], pts[next]
	if cross(a, b, c) <= 0 {
		// Reflex or collinear corner.
		return false
	}
	for _, ix := range ring {
		if ix == prev || ix == cur || ix == next {
			continue
		}
		if pointInTriangle(pts[ix], a, b, c) {
			return false
		}
	}
	return true
}

func cross(a, b, c curve.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func pointInTriangle(p, a, b, c curve.Point) bool {
	d1 := cross(a, b, p)
	d2 := cross(b, c, p)
	d3 := cross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}
