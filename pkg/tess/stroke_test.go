package tess

import (
	"math"
	"testing"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

// meshArea sums the unsigned area of every triangle in the mesh.
func meshArea(m Mesh) float32 {
	var area float32
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := m.Vertex(m.Indices[i])
		b := m.Vertex(m.Indices[i+1])
		c := m.Vertex(m.Indices[i+2])
		area += float32(math.Abs(float64(b.Sub(a).Cross(c.Sub(a))))) / 2
	}
	return area
}

func TestStrokeStraightButt(t *testing.T) {
	m := StrokePolyline([]geom.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}}, 2, board.CapButt)

	if got := m.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount() = %d, want 2", got)
	}
	b := m.Bounds()
	if b.MinX != 0 || b.MaxX != 10 || b.MinY != -1 || b.MaxY != 1 {
		t.Errorf("bounds = %+v, want 0..10 x -1..1", b)
	}
	if got, want := meshArea(m), float32(20); math.Abs(float64(got-want)) > 1e-3 {
		t.Errorf("area = %v, want %v", got, want)
	}
}

func TestStrokeStraightRoundCap(t *testing.T) {
	m := StrokePolyline([]geom.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}}, 2, board.CapRound)

	b := m.Bounds()
	if b.MinX > -0.9 || b.MaxX < 10.9 {
		t.Errorf("round caps should extend bounds past the endpoints, got %+v", b)
	}
	// Two semicircles plus the ribbon: 20 + π r².
	want := 20 + math.Pi
	if got := meshArea(m); math.Abs(float64(got)-want) > 0.2 {
		t.Errorf("area = %v, want ~%v", got, want)
	}
}

func TestStrokeSquareCap(t *testing.T) {
	m := StrokePolyline([]geom.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}}, 2, board.CapSquare)

	b := m.Bounds()
	if math.Abs(float64(b.MinX+1)) > 1e-4 || math.Abs(float64(b.MaxX-11)) > 1e-4 {
		t.Errorf("square caps should extend by half width, got %+v", b)
	}
}

func TestStrokeBendHasJoin(t *testing.T) {
	// A right-angle bend: the outer side receives an arc fan, so the mesh
	// must carry more than the two segment quads.
	m := StrokePolyline([]geom.Vec2{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5, Y: 5}}, 1, board.CapButt)

	if m.TriangleCount() <= 4 {
		t.Errorf("TriangleCount() = %d, want join triangles beyond the 4 quad triangles", m.TriangleCount())
	}
	// Area must at least cover the two ribbons minus the shared corner.
	if got := meshArea(m); got < 9 {
		t.Errorf("area = %v, want >= 9", got)
	}
}

func TestStrokeClosedRing(t *testing.T) {
	ring := []geom.Vec2{
		{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}, {X: 0, Y: 0},
	}
	m := StrokePolyline(ring, 0.5, board.CapRound)
	if m.TriangleCount() == 0 {
		t.Fatal("closed ring produced no geometry")
	}

	// Closed strokes have no caps: the bounds stay within the ring
	// inflated by half the width.
	b := m.Bounds()
	if b.MinX < -0.26 || b.MaxX > 4.26 {
		t.Errorf("closed ring bounds = %+v, want within ±0.25 of the ring", b)
	}
}

func TestStrokeDegenerate(t *testing.T) {
	if m := StrokePolyline([]geom.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}}, 0, board.CapButt); m.TriangleCount() != 0 {
		t.Error("zero width should produce an empty mesh")
	}
	if m := StrokePolyline([]geom.Vec2{{X: 1, Y: 1}}, 1, board.CapButt); m.TriangleCount() != 0 {
		t.Error("single point should produce an empty mesh")
	}
	// All points coincident.
	if m := StrokePolyline([]geom.Vec2{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}, 1, board.CapButt); m.TriangleCount() != 0 {
		t.Error("coincident points should produce an empty mesh")
	}
}
