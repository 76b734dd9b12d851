package tess

import (
	"testing"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

func testPrimitives() map[string]board.StandardPrimitive {
	return map[string]board.StandardPrimitive{
		"round-1mm": {Kind: board.PrimCircle, Diameter: 1},
		"rect-2x1":  {Kind: board.PrimRectangle, Width: 2, Height: 1},
	}
}

func TestGroupPads(t *testing.T) {
	pads := []board.PadInstance{
		{PrimitiveID: "round-1mm", Position: geom.Vec2{X: 0, Y: 0}},
		{PrimitiveID: "rect-2x1", Position: geom.Vec2{X: 5, Y: 0}},
		{PrimitiveID: "round-1mm", Position: geom.Vec2{X: 10, Y: 0}},
		{PrimitiveID: "missing", Position: geom.Vec2{X: 15, Y: 0}},
	}

	groups, dropped := GroupPads(pads, testPrimitives())
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	byID := map[string]PadGroup{}
	for _, g := range groups {
		byID[g.PrimitiveID] = g
	}
	round := byID["round-1mm"]
	if len(round.Instances) != 2 {
		t.Errorf("round group has %d instances, want 2", len(round.Instances))
	}
	// Ordinals keep the source-list positions.
	if len(round.Ordinals) != 2 || round.Ordinals[0] != 0 || round.Ordinals[1] != 2 {
		t.Errorf("round ordinals = %v, want [0 2]", round.Ordinals)
	}
	if round.Mesh.TriangleCount() == 0 {
		t.Error("group mesh not tessellated")
	}
}

func TestGroupVias(t *testing.T) {
	vias := []board.ViaInstance{
		{PrimitiveID: "round-1mm", Position: geom.Vec2{X: 0, Y: 0}, HoleDiameter: 0.4},
		{PrimitiveID: "round-1mm", Position: geom.Vec2{X: 2, Y: 0}, HoleDiameter: 0.4},
		// Same shape, different hole: a separate group.
		{PrimitiveID: "round-1mm", Position: geom.Vec2{X: 4, Y: 0}, HoleDiameter: 0.2},
		{PrimitiveID: "missing", Position: geom.Vec2{X: 6, Y: 0}, HoleDiameter: 0.4},
	}

	groups, dropped := GroupVias(vias, testPrimitives())
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}

	for _, g := range groups {
		if g.HoleMesh.TriangleCount() == 0 {
			t.Errorf("group %s has no hole mesh", g.Key)
		}
		if g.SolidMesh.TriangleCount() == 0 {
			t.Errorf("group %s has no solid mesh", g.Key)
		}
		// The solid mesh has no hole, so it covers more area.
		if meshArea(g.SolidMesh) <= meshArea(g.HoleMesh) {
			t.Errorf("group %s solid area should exceed hole area", g.Key)
		}
	}
}

func TestViaLevelMesh(t *testing.T) {
	groups, _ := GroupVias([]board.ViaInstance{
		{PrimitiveID: "round-1mm", HoleDiameter: 0.4},
	}, testPrimitives())
	g := groups[0]
	opts := DefaultViaLOD()

	// Large on screen: hole detail at levels 0 and 1, solid at 2.
	if m := g.LevelMesh(0, 500, opts); m.VertexCount() != g.HoleMesh.VertexCount() {
		t.Error("level 0 at 500px should use the hole mesh")
	}
	if m := g.LevelMesh(1, 500, opts); m.VertexCount() != g.HoleMesh.VertexCount() {
		t.Error("level 1 at 500px should use the hole mesh")
	}
	if m := g.LevelMesh(2, 500, opts); m.VertexCount() != g.SolidMesh.VertexCount() {
		t.Error("level 2 at 500px should use the solid mesh")
	}

	// Mid zoom: level 1 drops to the solid variant.
	if m := g.LevelMesh(1, 200, opts); m.VertexCount() != g.SolidMesh.VertexCount() {
		t.Error("level 1 at 200px should use the solid mesh")
	}

	// Tiny on screen: every level empty.
	for level := range ViaLODCount {
		if m := g.LevelMesh(level, 10, opts); m.VertexCount() != 0 {
			t.Errorf("level %d at 10px should be empty", level)
		}
	}
}

func TestPixelSize(t *testing.T) {
	opts := ViaLODOptions{PixelsPerMM: 100, Zoom: 2}
	if got := opts.PixelSize(0.5); got != 100 {
		t.Errorf("PixelSize(0.5) = %v, want 100", got)
	}
}
