package spatial

import (
	"testing"

	"github.com/edalab/copperview/pkg/geom"
	"github.com/edalab/copperview/pkg/tess"
)

// testObjects lays out three unit boxes along the x axis at origins 0, 5,
// and 10, plus one degenerate object with empty bounds that the builder
// must skip.
func testObjects() []*tess.ObjectRange {
	objs := make([]*tess.ObjectRange, 0, 4)
	for i, x := range []float32{0, 5, 10} {
		objs = append(objs, &tess.ObjectRange{
			ID:     tess.NewObjectID(0, tess.KindPolyline, i),
			Kind:   tess.KindPolyline,
			Bounds: geom.NewBBox(geom.Vec2{X: x, Y: 0}, geom.Vec2{X: x + 1, Y: 1}),
			Net:    "N" + string(rune('1'+i)),
		})
	}
	objs = append(objs, &tess.ObjectRange{
		ID:     tess.NewObjectID(0, tess.KindPolyline, 3),
		Kind:   tess.KindPolyline,
		Bounds: geom.EmptyBBox(),
	})
	return objs
}

func TestBuildSkipsEmptyBounds(t *testing.T) {
	ix := Build(testObjects())
	if got := ix.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3 (empty bounds skipped)", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	ix := Build(nil)
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
	if hits := ix.At(geom.Vec2{}); len(hits) != 0 {
		t.Errorf("At() on empty index returned %d hits", len(hits))
	}
}

func TestAt(t *testing.T) {
	ix := Build(testObjects())

	hits := ix.At(geom.Vec2{X: 0.5, Y: 0.5})
	if len(hits) != 1 {
		t.Fatalf("At(inside first box) = %d hits, want 1", len(hits))
	}
	if hits[0].Net != "N1" {
		t.Errorf("hit net = %q, want N1", hits[0].Net)
	}

	if hits := ix.At(geom.Vec2{X: 3, Y: 0.5}); len(hits) != 0 {
		t.Errorf("At(gap) = %d hits, want 0", len(hits))
	}

	// Box edges count as contained.
	if hits := ix.At(geom.Vec2{X: 5, Y: 0}); len(hits) != 1 {
		t.Errorf("At(corner) = %d hits, want 1", len(hits))
	}
}

func TestWithin(t *testing.T) {
	ix := Build(testObjects())

	// From the gap at x=3: first box is 2 away, second box is 2 away.
	hits := ix.Within(geom.Vec2{X: 3, Y: 0.5}, 2)
	if len(hits) != 2 {
		t.Fatalf("Within(radius 2) = %d hits, want 2", len(hits))
	}

	hits = ix.Within(geom.Vec2{X: 3, Y: 0.5}, 1)
	if len(hits) != 0 {
		t.Errorf("Within(radius 1) = %d hits, want 0", len(hits))
	}

	// A radius covering everything.
	hits = ix.Within(geom.Vec2{X: 5, Y: 0}, 100)
	if len(hits) != 3 {
		t.Errorf("Within(radius 100) = %d hits, want 3", len(hits))
	}
}

func TestIntersecting(t *testing.T) {
	ix := Build(testObjects())

	// Envelope covering the first two boxes.
	hits := ix.Intersecting(geom.NewBBox(geom.Vec2{X: -1, Y: -1}, geom.Vec2{X: 6, Y: 2}))
	if len(hits) != 2 {
		t.Fatalf("Intersecting = %d hits, want 2", len(hits))
	}

	ids := map[tess.ObjectID]bool{}
	for _, h := range hits {
		ids[h.ID] = true
	}
	if !ids[tess.NewObjectID(0, tess.KindPolyline, 0)] || !ids[tess.NewObjectID(0, tess.KindPolyline, 1)] {
		t.Errorf("Intersecting returned wrong objects: %v", hits)
	}

	if hits := ix.Intersecting(geom.NewBBox(geom.Vec2{X: 20, Y: 20}, geom.Vec2{X: 21, Y: 21})); len(hits) != 0 {
		t.Errorf("disjoint envelope = %d hits, want 0", len(hits))
	}
}

func TestDegenerateObjectBounds(t *testing.T) {
	// Zero-area bounds (a point object) still index and answer queries;
	// the rectangle is padded internally.
	obj := &tess.ObjectRange{
		ID:     tess.NewObjectID(1, tess.KindVia, 0),
		Kind:   tess.KindVia,
		Bounds: geom.NewBBox(geom.Vec2{X: 2, Y: 2}),
	}
	ix := Build([]*tess.ObjectRange{obj})
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ix.Len())
	}
	hits := ix.Within(geom.Vec2{X: 2.5, Y: 2}, 1)
	if len(hits) != 1 {
		t.Errorf("Within near point object = %d hits, want 1", len(hits))
	}
}
