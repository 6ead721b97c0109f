// Package softengine is the CPU backend: it rasterizes each visible
// element directly into an RGBA image using a scanline rasterizer. There is
// no caching; every frame draws the culled element set from scratch, which
// keeps the backend trivially correct and makes it the reference the GPU
// backend is checked against.
package softengine

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"
	"honnef.co/go/curve"
	"honnef.co/go/layview"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/lmath"
)

// markerSize is the screen-space half-extent, in pixels, of the marker
// drawn for texts and degenerate nodes.
const markerSize = 3

// Engine implements layview.Backend on the CPU.
type Engine struct {
	dst   *image.RGBA
	ras   *vector.Rasterizer
	ready bool
}

var _ layview.Backend = (*Engine)(nil)

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Init() error {
	e.ras = &vector.Rasterizer{}
	e.ready = true
	return nil
}

func (e *Engine) Ready() bool {
	return e.ready
}

// Image returns the most recently drawn frame. The image is reused across
// frames of the same size.
func (e *Engine) Image() *image.RGBA {
	return e.dst
}

// InvalidateScene is a no-op: the CPU backend caches nothing.
func (e *Engine) InvalidateScene() {}

func (e *Engine) Close() {
	e.dst = nil
	e.ras = nil
	e.ready = false
}

func (e *Engine) Draw(frame *layview.Frame) (int, error) {
	w, h := frame.Viewport.Width, frame.Viewport.Height
	if e.dst == nil || e.dst.Bounds().Dx() != w || e.dst.Bounds().Dy() != h {
		e.dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.Draw(e.dst, e.dst.Bounds(), image.NewUniform(frame.Background.NRGBA()), image.Point{}, draw.Src)

	calls := 0
	for _, ld := range frame.Layers {
		src := image.NewUniform(ld.Style.Color.WithAlpha(ld.Style.Opacity).NRGBA())
		for _, el := range ld.Elements {
			if e.drawElement(el.Element, frame, src) {
				calls++
			}
		}
	}
	return calls, nil
}

func (e *Engine) drawElement(el gds.Element, frame *layview.Frame, src image.Image) bool {
	switch el := el.(type) {
	case *gds.Boundary:
		return e.fillPolygon(el.Points, frame.View, src)
	case *gds.Box:
		return e.fillPolygon(el.Points, frame.View, src)
	case *gds.Path:
		return e.strokePath(el, frame, src)
	case *gds.Node:
		if len(el.Points) >= 3 {
			return e.fillPolygon(el.Points, frame.View, src)
		}
		drew := false
		for _, p := range el.Points {
			drew = e.fillMarker(frame.View.Apply(p), markerSize, src) || drew
		}
		return drew
	case *gds.Text:
		return e.drawTextMarker(el, frame, src)
	default:
		return false
	}
}

// fillPolygon rasterizes a closed polygon given in world coordinates.
func (e *Engine) fillPolygon(pts []curve.Point, view lmath.Transform, src image.Image) bool {
	if len(pts) < 3 {
		return false
	}
	b := e.dst.Bounds()
	e.ras.Reset(b.Dx(), b.Dy())
	first := view.Apply(pts[0])
	e.ras.MoveTo(float32(first.X), float32(first.Y))
	for _, p := range pts[1:] {
		sp := view.Apply(p)
		e.ras.LineTo(float32(sp.X), float32(sp.Y))
	}
	e.ras.ClosePath()
	e.ras.Draw(e.dst, b, src, image.Point{})
	return true
}

// strokePath draws a widened polyline as one quad per segment. End caps
// extend the first and last segment: square and custom path types extend by
// the half width or the explicit extension, round is approximated the same
// way.
func (e *Engine) strokePath(p *gds.Path, frame *layview.Frame, src image.Image) bool {
	if len(p.Points) < 2 {
		return false
	}
	zoom := frame.Viewport.Zoom
	halfW := p.Width * zoom / 2
	if halfW < 0.5 {
		// Hairline floor keeps thin wires visible when zoomed out.
		halfW = 0.5
	}

	begin, end := p.BeginExt*zoom, p.EndExt*zoom
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
	first, last := usableSegments(p.Points)
	if first < 0 {
		return false
	}

	drew := false
	for i := first; i <= last; i++ {
		a := frame.View.Apply(p.Points[i])
		b := frame.View.Apply(p.Points[i+1])
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
		// Perpendicular offset by the half width.
		nx, ny := -uy*halfW, ux*halfW
		quad := []curve.Point{
			{X: a.X + nx, Y: a.Y + ny},
			{X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny},
			{X: a.X - nx, Y: a.Y - ny},
		}
		drew = e.fillScreenPolygon(quad, src) || drew
	}
	return drew
}

// usableSegments returns the indices of the first and last segment of pts
// with nonzero length, or (-1, -1) when every segment is degenerate.
func usableSegments(pts []curve.Point) (int, int) {
	first, last := -1, -1
	for i := 0; i < len(pts)-1; i++ {
		if pts[i] == pts[i+1] {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last
}

// drawTextMarker draws the anchor marker for a text element. The marker is
// sized by the text magnification and offset by the justification so the
// anchor sits on the named edge of the marker; the offset direction follows
// the text's orientation.
func (e *Engine) drawTextMarker(t *gds.Text, frame *layview.Frame, src image.Image) bool {
	mag := t.Strans.Mag
	if mag == 0 {
		mag = 1
	}
	half := markerSize * mag
	off := justifyOffset(t.HJustify, t.VJustify, half)
	off = lmath.Placement(t.Strans.Reflect, t.Strans.Angle, 1, curve.Point{}).ApplyVec(off)
	world := curve.Point{
		X: t.Anchor.X + off.X/frame.Viewport.Zoom,
		Y: t.Anchor.Y + off.Y/frame.Viewport.Zoom,
	}
	return e.fillMarker(frame.View.Apply(world), half, src)
}

// justifyOffset returns the world-direction offset, in pixels, from the
// anchor to the marker center. Left justification puts the anchor on the
// marker's left edge, top justification on its top edge.
func justifyOffset(h, v gds.Justify, half float64) curve.Vec2 {
	var off curve.Vec2
	switch h {
	case gds.JustifyLeft:
		off.X = half
	case gds.JustifyRight:
		off.X = -half
	}
	switch v {
	case gds.JustifyTop:
		off.Y = -half
	case gds.JustifyBottom:
		off.Y = half
	}
	return off
}

func (e *Engine) fillMarker(center curve.Point, half float64, src image.Image) bool {
	quad := []curve.Point{
		{X: center.X - half, Y: center.Y - half},
		{X: center.X + half, Y: center.Y - half},
		{X: center.X + half, Y: center.Y + half},
		{X: center.X - half, Y: center.Y + half},
	}
	return e.fillScreenPolygon(quad, src)
}

// fillScreenPolygon rasterizes a polygon already in screen coordinates.
func (e *Engine) fillScreenPolygon(pts []curve.Point, src image.Image) bool {
	b := e.dst.Bounds()
	e.ras.Reset(b.Dx(), b.Dy())
	e.ras.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		e.ras.LineTo(float32(p.X), float32(p.Y))
	}
	e.ras.ClosePath()
	e.ras.Draw(e.dst, b, src, image.Point{})
	return true
}
