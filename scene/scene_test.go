package scene

import (
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/layview/gds"
	"honnef.co/go/layview/lmath"
)

func rect(layer int32, minX, minY, maxX, maxY float64) *gds.Boundary {
	return &gds.Boundary{
		LayerKey: gds.LayerKey{Layer: layer},
		Points: []curve.Point{
			{X: minX, Y: minY},
			{X: maxX, Y: minY},
			{X: maxX, Y: maxY},
			{X: minX, Y: maxY},
		},
	}
}

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	lib := &gds.Library{
		Structures: []*gds.Structure{
			{Name: "top", Elements: []gds.Element{
				rect(1, 0, 0, 10, 10),
				rect(2, 5, 5, 8, 8),
				&gds.SRef{StructureName: "cell", Positions: []curve.Point{{X: 20, Y: 0}}},
			}},
			{Name: "cell", Elements: []gds.Element{
				rect(1, 0, 0, 2, 2),
			}},
		},
	}
	return Build(lib, "top", Options{})
}

func TestBuild(t *testing.T) {
	g := buildTestGraph(t)
	if g.Total() != 3 {
		t.Errorf("Total() = %d, want 3", g.Total())
	}
	want := lmath.BBox{MinX: 0, MinY: 0, MaxX: 22, MaxY: 10}
	if g.Bounds() != want {
		t.Errorf("Bounds() = %+v, want %+v", g.Bounds(), want)
	}
	layers := g.Layers()
	if len(layers) != 2 || layers[0].Layer != 1 || layers[1].Layer != 2 {
		t.Errorf("Layers() = %v, want layers 1, 2 ascending", layers)
	}
}

func TestQueryRegionDedup(t *testing.T) {
	g := buildTestGraph(t)
	got := g.QueryRegion(lmath.BBox{MinX: 0, MinY: 0, MaxX: 30, MaxY: 30})
	seen := make(map[string]int)
	for _, el := range got {
		seen[el.Key()]++
	}
	if len(got) != 3 {
		t.Errorf("full-region query returned %d elements, want 3", len(got))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("element %s reported %d times", k, n)
		}
	}
}

func TestQueryRegionCulls(t *testing.T) {
	g := buildTestGraph(t)
	got := g.QueryRegion(lmath.BBox{MinX: 15, MinY: 0, MaxX: 30, MaxY: 10})
	if len(got) != 1 || got[0].Structure != "cell" {
		t.Errorf("query = %v, want only the placed cell", got)
	}
	culled := g.Total() - len(got)
	if culled < 0 {
		t.Errorf("culled = %d, must be non-negative", culled)
	}
}

func TestQueryPoint(t *testing.T) {
	g := buildTestGraph(t)
	got := g.QueryPoint(curve.Point{X: 6, Y: 6})
	if len(got) != 2 {
		t.Fatalf("QueryPoint hit %d elements, want 2", len(got))
	}
	if got := g.QueryPoint(curve.Point{X: 50, Y: 50}); len(got) != 0 {
		t.Errorf("QueryPoint outside scene = %v", got)
	}
}

func TestLayerVisibility(t *testing.T) {
	g := buildTestGraph(t)
	l2 := gds.LayerKey{Layer: 2}
	if !g.LayerVisible(l2) {
		t.Fatal("layer 2 not visible initially")
	}
	g.SetLayerVisible(l2, false)
	got := g.QueryRegion(lmath.BBox{MinX: 0, MinY: 0, MaxX: 30, MaxY: 30})
	for _, el := range got {
		if gds.Key(el.Element).Layer == 2 {
			t.Error("hidden layer element returned by query")
		}
	}
	// Membership survives the toggle; only query filtering changes.
	if len(g.Members(l2)) != 1 {
		t.Errorf("Members(layer 2) = %d after hide, want 1", len(g.Members(l2)))
	}
	g.SetLayerVisible(l2, true)
	if len(g.QueryRegion(lmath.BBox{MinX: 0, MinY: 0, MaxX: 30, MaxY: 30})) != 3 {
		t.Error("re-shown layer missing from query")
	}
}

func TestDistinctIDsForRepeatedPlacements(t *testing.T) {
	lib := &gds.Library{
		Structures: []*gds.Structure{
			{Name: "top", Elements: []gds.Element{
				&gds.SRef{StructureName: "cell", Positions: []curve.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
			}},
			{Name: "cell", Elements: []gds.Element{rect(1, 0, 0, 2, 2)}},
		},
	}
	g := Build(lib, "top", Options{})
	if g.Total() != 2 {
		t.Fatalf("Total() = %d, want 2", g.Total())
	}
	got := g.QueryRegion(lmath.BBox{MinX: -1, MinY: -1, MaxX: 20, MaxY: 20})
	if len(got) != 2 {
		t.Fatalf("query = %d elements, want 2", len(got))
	}
	if got[0].Key() == got[1].Key() {
		t.Errorf("repeated placements share key %s", got[0].Key())
	}
}

func TestEmptyScene(t *testing.T) {
	lib := &gds.Library{
		Structures: []*gds.Structure{{Name: "top"}},
	}
	g := Build(lib, "top", Options{})
	if g.Total() != 0 {
		t.Errorf("Total() = %d, want 0", g.Total())
	}
	if g.Bounds() != (lmath.BBox{}) {
		t.Errorf("Bounds() = %+v, want zero box", g.Bounds())
	}
	if got := g.QueryRegion(lmath.BBox{MinX: -1, MinY: -1, MaxX: 1, MaxY: 1}); len(got) != 0 {
		t.Errorf("query on empty scene = %v", got)
	}
}

func TestCyclesReported(t *testing.T) {
	lib := &gds.Library{
		Structures: []*gds.Structure{
			{Name: "a", Elements: []gds.Element{
				rect(1, 0, 0, 1, 1),
				&gds.SRef{StructureName: "b", Positions: []curve.Point{{}}},
			}},
			{Name: "b", Elements: []gds.Element{
				&gds.SRef{StructureName: "a", Positions: []curve.Point{{}}},
			}},
		},
	}
	g := Build(lib, "a", Options{})
	if len(g.Cycles()) != 1 {
		t.Errorf("Cycles() = %v, want one cycle", g.Cycles())
	}
	if g.Total() != 1 {
		t.Errorf("Total() = %d, want 1", g.Total())
	}
}
