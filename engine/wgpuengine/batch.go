package wgpuengine

import (
	"slices"

	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/internal/xlog"
	"honnef.co/go/layview/scene"
)

// layerBatch is one layer's complete triangulated geometry. Batches hold
// full layer membership, not the culled query set: culling happens on the
// GPU via the view transform, so panning and zooming reuse batches as-is.
type layerBatch struct {
	key     gds.LayerKey
	members []*scene.Element
	mesh    Mesh
}

// batchSet maintains per-layer batches against a scene graph. Rebuilds
// happen only when a layer's membership changes; view changes never touch
// it. The struct is pure CPU state, which keeps the dirtying rules testable
// without a device.
type batchSet struct {
	batches  []*layerBatch
	rebuilds int
}

// sync brings the batch list in line with the graph, tessellating only
// layers whose membership changed. It returns the batches whose geometry
// was rebuilt this call.
func (s *batchSet) sync(graph *scene.Graph) []*layerBatch {
	if graph == nil {
		s.batches = nil
		return nil
	}
	var dirty []*layerBatch
	keys := graph.Layers()
	next := make([]*layerBatch, 0, len(keys))
	for _, key := range keys {
		members := graph.Members(key)
		b := s.find(key)
		if b == nil || !slices.Equal(b.members, members) {
			b = &layerBatch{key: key, members: members}
			b.mesh = tessellateLayer(members)
			s.rebuilds++
			dirty = append(dirty, b)
		}
		next = append(next, b)
	}
	s.batches = next
	if len(dirty) > 0 {
		xlog.Get().Debug("layer batches rebuilt", "layers", len(dirty))
	}
	return dirty
}

func (s *batchSet) find(key gds.LayerKey) *layerBatch {
	for _, b := range s.batches {
		if b.key == key {
			return b
		}
	}
	return nil
}

// invalidate drops all batches; the next sync rebuilds from scratch.
func (s *batchSet) invalidate() {
	s.batches = nil
}

// tessellateLayer triangulates every element of a layer into one mesh.
// Texts and point-like nodes have no area and are left to the overlay the
// CPU backend draws; the GPU batch carries filled geometry only.
func tessellateLayer(members []*scene.Element) Mesh {
	var m Mesh
	for _, el := range members {
		switch e := el.Element.(type) {
		case *gds.Boundary:
			m.AddPolygon(e.Points)
		case *gds.Box:
			m.AddPolygon(e.Points)
		case *gds.Path:
			m.AddPath(e)
		case *gds.Node:
			if len(e.Points) >= 3 {
				m.AddPolygon(e.Points)
			}
		}
	}
	return m
}
