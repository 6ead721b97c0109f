package layview

import (
	"fmt"
	"time"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/gfx"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/lmath"
	"honnef.co/go/layview/scene"
)

// Renderer ties a scene graph to a backend. It owns the viewport, layer
// styles, and frame statistics; all drawing goes through Render. Renderer
// is not safe for concurrent use.
type Renderer struct {
	backend Backend
	opts    RendererOptions

	lib   *gds.Library
	graph *scene.Graph

	viewport Viewport
	styles   map[gds.LayerKey]LayerStyle

	stats     Stats
	lastFrame time.Time
}

// New returns a renderer drawing through the given backend. The backend's
// Init is not called; call Renderer.Init once the output target exists.
func New(backend Backend, opts RendererOptions) *Renderer {
	if opts.Background == (gfx.RGBA{}) {
		opts.Background = defaultBackground
	}
	return &Renderer{
		backend: backend,
		opts:    opts,
		styles:  make(map[gds.LayerKey]LayerStyle),
		viewport: Viewport{
			Width:  800,
			Height: 600,
			Zoom:   1,
		},
	}
}

func (r *Renderer) Init() error {
	if err := r.backend.Init(); err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}
	return nil
}

// Ready reports whether the backend can draw.
func (r *Renderer) Ready() bool {
	return r.backend.Ready()
}

// SetBackend swaps the drawing backend. The old backend is closed first;
// the scene graph is kept and re-attaches without a rebuild, the new
// backend simply starts with cold caches.
func (r *Renderer) SetBackend(b Backend) error {
	r.backend.Close()
	r.backend = b
	if err := b.Init(); err != nil {
		return fmt.Errorf("initializing backend: %w", err)
	}
	return nil
}

// SetLibrary replaces the library and rebuilds the scene graph from its
// top structure.
func (r *Renderer) SetLibrary(lib *gds.Library) {
	r.lib = lib
	r.UpdateSceneGraph(lib.TopStructure())
}

// UpdateSceneGraph rebuilds the scene graph from the named structure of
// the current library and invalidates backend caches. Layer styles and
// visibility of layers that persist across the rebuild are kept.
func (r *Renderer) UpdateSceneGraph(top string) {
	if r.lib == nil {
		return
	}
	visible := make(map[gds.LayerKey]bool)
	if r.graph != nil {
		for _, key := range r.graph.Layers() {
			visible[key] = r.graph.LayerVisible(key)
		}
	}

	start := time.Now()
	r.graph = scene.Build(r.lib, top, scene.Options{
		QuadtreeCapacity: r.opts.QuadtreeCapacity,
		QuadtreeMaxDepth: r.opts.QuadtreeMaxDepth,
	})
	for key, vis := range visible {
		r.graph.SetLayerVisible(key, vis)
	}
	r.backend.InvalidateScene()

	xlog.Get().Info("scene graph updated",
		"top", top,
		"elements", r.graph.Total(),
		"took", time.Since(start))
}

// ClearScene drops the scene graph and library.
func (r *Renderer) ClearScene() {
	r.lib = nil
	r.graph = nil
	r.backend.InvalidateScene()
}

// SceneGraph returns the current scene graph, or nil when none is loaded.
func (r *Renderer) SceneGraph() *scene.Graph {
	return r.graph
}

// SetViewport replaces the viewport. A non-positive zoom is clamped to a
// minimum so the view transform stays invertible.
func (r *Renderer) SetViewport(v Viewport) {
	if v.Zoom <= 0 {
		v.Zoom = 1e-9
	}
	r.viewport = v
}

func (r *Renderer) Viewport() Viewport {
	return r.viewport
}

// ZoomToFit centers the viewport on the scene and picks the zoom that fits
// the whole scene with a small margin.
func (r *Renderer) ZoomToFit() {
	if r.graph == nil {
		return
	}
	b := r.graph.Bounds()
	if b.Width() <= 0 && b.Height() <= 0 {
		return
	}
	const margin = 0.9
	zx := float64(r.viewport.Width) / b.Width()
	zy := float64(r.viewport.Height) / b.Height()
	r.viewport.Center = b.Center()
	r.viewport.Zoom = min(zx, zy) * margin
}

// Render draws one frame synchronously and returns its statistics. With no
// scene loaded it clears to the background only.
func (r *Renderer) Render() (Stats, error) {
	start := time.Now()

	frame := &Frame{
		Viewport:   r.viewport,
		View:       r.viewport.WorldToScreen(),
		Background: r.opts.Background,
		Graph:      r.graph,
	}

	rendered := 0
	total := 0
	if r.graph != nil {
		total = r.graph.Total()
		visible := r.graph.QueryRegion(r.viewport.WorldRect())
		rendered = len(visible)

		byLayer := make(map[gds.LayerKey][]*scene.Element)
		for _, el := range visible {
			key := gds.Key(el.Element)
			byLayer[key] = append(byLayer[key], el)
		}
		// Ascending layer order; later layers draw on top.
		for _, key := range r.graph.Layers() {
			els := byLayer[key]
			if len(els) == 0 {
				continue
			}
			frame.Layers = append(frame.Layers, LayerDraw{
				Key:      key,
				Style:    r.LayerStyle(key),
				Elements: els,
			})
		}
	}

	calls, err := r.backend.Draw(frame)
	if err != nil {
		return Stats{}, fmt.Errorf("drawing frame: %w", err)
	}

	elapsed := time.Since(start)
	r.stats = Stats{
		FrameTime:        elapsed.Seconds() * 1000,
		ElementsRendered: rendered,
		ElementsCulled:   total - rendered,
		DrawCalls:        calls,
	}
	if !r.lastFrame.IsZero() {
		if dt := start.Sub(r.lastFrame).Seconds(); dt > 0 {
			r.stats.FPS = 1 / dt
		}
	}
	r.lastFrame = start
	return r.stats, nil
}

// Statistics returns the statistics of the most recent frame.
func (r *Renderer) Statistics() Stats {
	return r.stats
}

// Pick returns the elements under a screen pixel, front layer first within
// the index walk order. Hidden layers never match.
func (r *Renderer) Pick(screen curve.Point) []*scene.Element {
	if r.graph == nil {
		return nil
	}
	return r.graph.QueryPoint(r.viewport.ScreenToWorld(screen))
}

// ElementsInRegion returns the visible elements intersecting a world-space
// region.
func (r *Renderer) ElementsInRegion(region lmath.BBox) []*scene.Element {
	if r.graph == nil {
		return nil
	}
	return r.graph.QueryRegion(region)
}

// SetLayerVisible toggles a layer. The scene graph and backend caches are
// untouched; the next frame simply includes or omits the layer.
func (r *Renderer) SetLayerVisible(key gds.LayerKey, visible bool) {
	if r.graph == nil {
		return
	}
	r.graph.SetLayerVisible(key, visible)
}

// SetLayerStyle overrides the style for one layer.
func (r *Renderer) SetLayerStyle(key gds.LayerKey, style LayerStyle) {
	r.styles[key] = style
}

// LayerStyle returns the style for a layer. Layers without an explicit
// style get a deterministic palette color based on the layer's position in
// the scene's layer order.
func (r *Renderer) LayerStyle(key gds.LayerKey) LayerStyle {
	if s, ok := r.styles[key]; ok {
		return s
	}
	idx := 0
	if r.graph != nil {
		for i, k := range r.graph.Layers() {
			if k == key {
				idx = i
				break
			}
		}
	}
	return LayerStyle{Color: gfx.Palette(idx), Opacity: 1}
}

// ScreenToWorld maps a screen pixel to world coordinates under the current
// viewport.
func (r *Renderer) ScreenToWorld(p curve.Point) curve.Point {
	return r.viewport.ScreenToWorld(p)
}

// WorldToScreen maps a world point to screen coordinates under the current
// viewport.
func (r *Renderer) WorldToScreen(p curve.Point) curve.Point {
	return r.viewport.WorldToScreen().Apply(p)
}

// Close releases the backend.
func (r *Renderer) Close() {
	r.backend.Close()
}
