package quadtree

import (
	"testing"

	"honnef.co/go/curve"
	"honnef.co/go/layview/lmath"
)

func box(minX, minY, maxX, maxY float64) lmath.BBox {
	return lmath.BBox{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func TestQueryBasic(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 4, 4)
	tr.Insert(1, box(10, 10, 20, 20))
	tr.Insert(2, box(80, 80, 90, 90))

	got := tr.Query(box(0, 0, 50, 50), nil)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Query = %v, want [1]", got)
	}
	got = tr.Query(box(0, 0, 100, 100), nil)
	if len(got) != 2 {
		t.Errorf("full query = %v, want both items", got)
	}
	if got := tr.Query(box(40, 40, 60, 60), nil); len(got) != 0 {
		t.Errorf("empty-region query = %v, want none", got)
	}
}

func TestSubdivision(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 2, 8)
	// Cluster in one quadrant to force subdivision past capacity.
	for i := 0; i < 10; i++ {
		x := float64(i)
		tr.Insert(i, box(x, x, x+1, x+1))
	}
	if tr.Len() != 10 {
		t.Errorf("Len() = %d, want 10", tr.Len())
	}
	s := tr.Stats()
	if s.Nodes == 1 {
		t.Error("tree never subdivided")
	}
	if s.MaxDepth > 8 {
		t.Errorf("MaxDepth = %d exceeds limit", s.MaxDepth)
	}
	// Every item still reachable.
	got := tr.Query(box(0, 0, 100, 100), nil)
	seen := make(map[int]bool)
	for _, v := range got {
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Errorf("full query found %d distinct items, want 10", len(seen))
	}
}

func TestSpanningItemDuplicated(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 1, 8)
	// Force subdivision, then insert an item crossing the center.
	tr.Insert(1, box(1, 1, 2, 2))
	tr.Insert(2, box(97, 97, 98, 98))
	tr.Insert(3, box(40, 40, 60, 60))

	got := tr.Query(box(0, 0, 100, 100), nil)
	count := 0
	for _, v := range got {
		if v == 3 {
			count++
		}
	}
	if count < 1 {
		t.Fatal("spanning item lost")
	}
	// Multi-insertion is allowed to report it more than once but Len counts
	// it once.
	if tr.Len() != 3 {
		t.Errorf("Len() = %d, want 3", tr.Len())
	}
}

func TestQueryPoint(t *testing.T) {
	tr := New[string](box(0, 0, 100, 100), 4, 4)
	tr.Insert("a", box(0, 0, 50, 50))
	tr.Insert("b", box(25, 25, 75, 75))

	got := tr.QueryPoint(curve.Point{X: 30, Y: 30}, nil)
	seen := make(map[string]bool)
	for _, v := range got {
		seen[v] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("QueryPoint(30,30) = %v, want a and b", got)
	}
	got = tr.QueryPoint(curve.Point{X: 60, Y: 60}, nil)
	for _, v := range got {
		if v == "a" {
			t.Error("QueryPoint(60,60) reported item a")
		}
	}
}

func TestOutOfBoundsItem(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 4, 4)
	tr.Insert(1, box(200, 200, 210, 210))
	got := tr.Query(box(190, 190, 220, 220), nil)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("out-of-bounds item not found: %v", got)
	}
}

func TestEmptyBoundsIgnored(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 4, 4)
	tr.Insert(1, lmath.Empty())
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after inserting empty bounds, want 0", tr.Len())
	}
}

func TestClear(t *testing.T) {
	tr := New[int](box(0, 0, 100, 100), 2, 4)
	for i := 0; i < 8; i++ {
		tr.Insert(i, box(float64(i*10), 0, float64(i*10+5), 5))
	}
	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", tr.Len())
	}
	if got := tr.Query(box(0, 0, 100, 100), nil); len(got) != 0 {
		t.Errorf("Query after Clear = %v", got)
	}
	if tr.Bounds() != box(0, 0, 100, 100) {
		t.Error("Clear changed tree bounds")
	}
}
