// Package layview renders hierarchical 2D layout libraries: it flattens a
// structure hierarchy into a spatially indexed scene graph and draws the
// visible portion through a pluggable backend. Two backends ship with the
// module: a CPU rasterizer and a GPU engine that batches geometry per layer.
package layview

import (
	"log/slog"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/gfx"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/lmath"
	"honnef.co/go/layview/scene"
)

// SetLogger sets the logger used by layview and its subpackages. Passing
// nil restores the default silent logger.
func SetLogger(l *slog.Logger) {
	xlog.Set(l)
}

// Viewport describes what part of the world is on screen: the world-space
// center, the output size in pixels, and the zoom factor in pixels per
// world unit.
type Viewport struct {
	Center curve.Point
	Width  int
	Height int
	Zoom   float64
}

// WorldRect returns the world-space region the viewport shows.
func (v Viewport) WorldRect() lmath.BBox {
	halfW := float64(v.Width) / (2 * v.Zoom)
	halfH := float64(v.Height) / (2 * v.Zoom)
	return lmath.BBox{
		MinX: v.Center.X - halfW,
		MinY: v.Center.Y - halfH,
		MaxX: v.Center.X + halfW,
		MaxY: v.Center.Y + halfH,
	}
}

// WorldToScreen returns the world-to-screen transform for the viewport.
// Screen y grows downward, so the world y axis is flipped.
func (v Viewport) WorldToScreen() lmath.Transform {
	return lmath.Transform{
		Matrix: [4]float64{v.Zoom, 0, 0, -v.Zoom},
		Translation: [2]float64{
			float64(v.Width)/2 - v.Center.X*v.Zoom,
			float64(v.Height)/2 + v.Center.Y*v.Zoom,
		},
	}
}

// ScreenToWorld maps a screen pixel back to world coordinates.
func (v Viewport) ScreenToWorld(p curve.Point) curve.Point {
	return curve.Point{
		X: v.Center.X + (p.X-float64(v.Width)/2)/v.Zoom,
		Y: v.Center.Y - (p.Y-float64(v.Height)/2)/v.Zoom,
	}
}

// Stats reports what the last frame did.
type Stats struct {
	FPS              float64
	FrameTime        float64
	ElementsRendered int
	ElementsCulled   int
	DrawCalls        int
}

// LayerStyle controls how one layer is drawn.
type LayerStyle struct {
	Color   gfx.RGBA
	Opacity float64
}

// LayerDraw is one visible layer's contribution to a frame: its style plus
// the elements of the layer that survived viewport culling. Backends that
// cache whole-layer geometry consult Frame.Graph instead.
type LayerDraw struct {
	Key      gds.LayerKey
	Style    LayerStyle
	Elements []*scene.Element
}

// Frame is everything a backend needs to draw once. Layers appear in
// ascending (layer, datatype) order; later layers draw on top.
type Frame struct {
	Viewport   Viewport
	View       lmath.Transform
	Background gfx.RGBA
	Layers     []LayerDraw

	// Graph is the full scene, for backends whose cached batches cover
	// complete layer membership rather than the culled query set.
	Graph *scene.Graph
}

// Backend draws frames. Implementations are not safe for concurrent use;
// the renderer serializes access.
type Backend interface {
	// Init acquires the backend's resources. It must be called before the
	// first Draw.
	Init() error
	// Ready reports whether the backend can draw.
	Ready() bool
	// Draw renders one frame and returns the number of draw calls issued.
	Draw(frame *Frame) (int, error)
	// InvalidateScene discards any cached geometry derived from the scene
	// graph. The renderer calls it when the graph is replaced; viewport
	// changes alone never trigger it.
	InvalidateScene()
	// Close releases all resources. The backend is unusable afterwards.
	Close()
}

// RendererOptions configures a Renderer.
type RendererOptions struct {
	// UseCPU selects the software rasterizer instead of the GPU engine.
	UseCPU bool

	// Background fills the frame before any layer draws. The zero value
	// means the default dark background.
	Background gfx.RGBA

	// QuadtreeCapacity and QuadtreeMaxDepth tune the scene graph's spatial
	// index; zero selects the defaults.
	QuadtreeCapacity int
	QuadtreeMaxDepth int
}

var defaultBackground = gfx.RGBA{R: 0.086, G: 0.086, B: 0.11, A: 1}
