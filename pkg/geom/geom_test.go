package geom

import (
	"math"
	"testing"
)

const epsilon = 1e-5

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < epsilon
}

func TestVec2Basics(t *testing.T) {
	v := Vec2{X: 3, Y: 4}

	if got := v.Length(); !almostEqual(got, 5) {
		t.Errorf("Length() = %v, want 5", got)
	}
	if got := v.LengthSq(); !almostEqual(got, 25) {
		t.Errorf("LengthSq() = %v, want 25", got)
	}

	n := v.Normalize()
	if !almostEqual(n.Length(), 1) {
		t.Errorf("Normalize().Length() = %v, want 1", n.Length())
	}

	if got := (Vec2{}).Normalize(); got != (Vec2{}) {
		t.Errorf("zero vector Normalize() = %v, want zero", got)
	}

	p := Vec2{X: 1, Y: 0}.Perp()
	if !almostEqual(p.Dot(Vec2{X: 1, Y: 0}), 0) {
		t.Errorf("Perp() not perpendicular: %v", p)
	}
}

func TestVec2Rotate(t *testing.T) {
	v := Vec2{X: 1, Y: 0}
	r := v.Rotate(float32(math.Pi / 2))
	if !almostEqual(r.X, 0) || !almostEqual(r.Y, 1) {
		t.Errorf("Rotate(90°) = %v, want (0,1)", r)
	}

	// A full turn is the identity.
	full := v.Rotate(float32(2 * math.Pi))
	if !almostEqual(full.X, 1) || !almostEqual(full.Y, 0) {
		t.Errorf("Rotate(360°) = %v, want (1,0)", full)
	}
}

func TestVec2Lerp(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 10, Y: 20}

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	mid := a.Lerp(b, 0.5)
	if !almostEqual(mid.X, 5) || !almostEqual(mid.Y, 10) {
		t.Errorf("Lerp(0.5) = %v, want (5,10)", mid)
	}
}

func TestBBoxExpand(t *testing.T) {
	b := EmptyBBox()
	if !b.IsEmpty() {
		t.Fatal("EmptyBBox() should be empty")
	}

	b.Expand(Vec2{X: 1, Y: 2})
	b.Expand(Vec2{X: -3, Y: 5})

	if b.IsEmpty() {
		t.Fatal("bbox should not be empty after Expand")
	}
	if b.MinX != -3 || b.MinY != 2 || b.MaxX != 1 || b.MaxY != 5 {
		t.Errorf("bbox = %+v, want min(-3,2) max(1,5)", b)
	}
	if got := b.Width(); !almostEqual(got, 4) {
		t.Errorf("Width() = %v, want 4", got)
	}
	if got := b.Height(); !almostEqual(got, 3) {
		t.Errorf("Height() = %v, want 3", got)
	}
}

func TestBBoxIntersects(t *testing.T) {
	a := NewBBox(Vec2{X: 0, Y: 0}, Vec2{X: 2, Y: 2})
	b := NewBBox(Vec2{X: 1, Y: 1}, Vec2{X: 3, Y: 3})
	c := NewBBox(Vec2{X: 5, Y: 5}, Vec2{X: 6, Y: 6})

	if !a.Intersects(b) {
		t.Error("overlapping boxes should intersect")
	}
	if a.Intersects(c) {
		t.Error("disjoint boxes should not intersect")
	}
	// Touching edges count as intersecting.
	d := NewBBox(Vec2{X: 2, Y: 0}, Vec2{X: 4, Y: 2})
	if !a.Intersects(d) {
		t.Error("edge-touching boxes should intersect")
	}
}

func TestBBoxDistance(t *testing.T) {
	a := NewBBox(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 1})
	b := NewBBox(Vec2{X: 4, Y: 0}, Vec2{X: 5, Y: 1})
	if got := a.Distance(b); !almostEqual(got, 3) {
		t.Errorf("axis-aligned gap Distance() = %v, want 3", got)
	}

	// Diagonal separation: 3 across, 4 up.
	c := NewBBox(Vec2{X: 4, Y: 5}, Vec2{X: 5, Y: 6})
	if got := a.Distance(c); !almostEqual(got, 5) {
		t.Errorf("diagonal Distance() = %v, want 5", got)
	}

	// Overlap yields zero.
	d := NewBBox(Vec2{X: 0.5, Y: 0.5}, Vec2{X: 2, Y: 2})
	if got := a.Distance(d); got != 0 {
		t.Errorf("overlapping Distance() = %v, want 0", got)
	}
}

func TestBBoxInflate(t *testing.T) {
	a := NewBBox(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 1})
	g := a.Inflate(0.5)
	if g.MinX != -0.5 || g.MaxX != 1.5 {
		t.Errorf("Inflate(0.5) = %+v", g)
	}
}

func TestPointSegmentDistance(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 10, Y: 0}

	// Perpendicular projection inside the segment.
	d, closest := PointSegmentDistance(Vec2{X: 5, Y: 3}, a, b)
	if !almostEqual(d, 3) {
		t.Errorf("distance = %v, want 3", d)
	}
	if !almostEqual(closest.X, 5) || !almostEqual(closest.Y, 0) {
		t.Errorf("closest = %v, want (5,0)", closest)
	}

	// Projection clamps to the endpoint.
	d, closest = PointSegmentDistance(Vec2{X: 13, Y: 4}, a, b)
	if !almostEqual(d, 5) {
		t.Errorf("clamped distance = %v, want 5", d)
	}
	if closest != b {
		t.Errorf("clamped closest = %v, want %v", closest, b)
	}

	// Degenerate zero-length segment.
	d, _ = PointSegmentDistance(Vec2{X: 3, Y: 4}, a, a)
	if !almostEqual(d, 5) {
		t.Errorf("degenerate distance = %v, want 5", d)
	}
}

func TestSegmentDistance(t *testing.T) {
	// Parallel horizontal segments 2 apart.
	d, p, q := SegmentDistance(
		Vec2{X: 0, Y: 0}, Vec2{X: 10, Y: 0},
		Vec2{X: 0, Y: 2}, Vec2{X: 10, Y: 2},
	)
	if !almostEqual(d, 2) {
		t.Errorf("parallel distance = %v, want 2", d)
	}
	if !almostEqual(q.Y-p.Y, 2) {
		t.Errorf("closest pair %v %v not 2 apart vertically", p, q)
	}

	// Crossing segments have distance zero.
	d, _, _ = SegmentDistance(
		Vec2{X: 0, Y: 0}, Vec2{X: 2, Y: 2},
		Vec2{X: 0, Y: 2}, Vec2{X: 2, Y: 0},
	)
	if d != 0 {
		t.Errorf("crossing distance = %v, want 0", d)
	}

	// Symmetry.
	d1, _, _ := SegmentDistance(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 0}, Vec2{X: 3, Y: 1}, Vec2{X: 4, Y: 1})
	d2, _, _ := SegmentDistance(Vec2{X: 3, Y: 1}, Vec2{X: 4, Y: 1}, Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 0})
	if !almostEqual(d1, d2) {
		t.Errorf("SegmentDistance not symmetric: %v vs %v", d1, d2)
	}
}

func TestTriangleDistance(t *testing.T) {
	t1 := NewTriangle(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 0}, Vec2{X: 0, Y: 1})
	t2 := t1.Translate(Vec2{X: 3, Y: 0})

	d, _ := TriangleDistance(t1, t2)
	if !almostEqual(d, 2) {
		t.Errorf("distance = %v, want 2", d)
	}

	// Symmetry.
	d2, _ := TriangleDistance(t2, t1)
	if !almostEqual(d, d2) {
		t.Errorf("TriangleDistance not symmetric: %v vs %v", d, d2)
	}
}

func TestTriangleDistanceOverlap(t *testing.T) {
	t1 := NewTriangle(Vec2{X: 0, Y: 0}, Vec2{X: 4, Y: 0}, Vec2{X: 0, Y: 4})
	t2 := NewTriangle(Vec2{X: 1, Y: 1}, Vec2{X: 2, Y: 1}, Vec2{X: 1, Y: 2})

	// t2 is fully contained in t1.
	if d, _ := TriangleDistance(t1, t2); d != 0 {
		t.Errorf("contained distance = %v, want 0", d)
	}
	if d, _ := TriangleDistance(t2, t1); d != 0 {
		t.Errorf("containing distance = %v, want 0", d)
	}

	// Edge-crossing triangles also overlap.
	t3 := NewTriangle(Vec2{X: 2, Y: -1}, Vec2{X: 2, Y: 3}, Vec2{X: 6, Y: 1})
	if d, _ := TriangleDistance(t1, t3); d != 0 {
		t.Errorf("crossing distance = %v, want 0", d)
	}
}

func TestTriangleDistanceWithin(t *testing.T) {
	t1 := NewTriangle(Vec2{X: 0, Y: 0}, Vec2{X: 1, Y: 0}, Vec2{X: 0, Y: 1})
	t2 := t1.Translate(Vec2{X: 3, Y: 0})

	// True distance 2, bbox gap 2: limit above the gap runs the exact test.
	d, _, ok := TriangleDistanceWithin(t1, t2, 2.5)
	if !ok {
		t.Fatal("expected exact computation within limit")
	}
	if !almostEqual(d, 2) {
		t.Errorf("distance = %v, want 2", d)
	}

	// Limit below the bbox gap skips the exact test.
	if _, _, ok := TriangleDistanceWithin(t1, t2, 1); ok {
		t.Error("expected early rejection beyond limit")
	}
}

func TestTriangleTransform(t *testing.T) {
	tri := NewTriangle(Vec2{X: 1, Y: 0}, Vec2{X: 2, Y: 0}, Vec2{X: 1, Y: 1})
	got := tri.Transform(float32(math.Pi), Vec2{X: 5, Y: 5})

	// 180° rotation about the origin, then translate.
	if !almostEqual(got.A.X, 4) || !almostEqual(got.A.Y, 5) {
		t.Errorf("Transform A = %v, want (4,5)", got.A)
	}
	if got.Bounds.IsEmpty() {
		t.Error("Transform should recompute bounds")
	}
}
