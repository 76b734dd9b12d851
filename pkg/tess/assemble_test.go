package tess

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/geom"
)

func testBoard() *board.Board {
	return &board.Board{
		Primitives: map[string]board.StandardPrimitive{
			"pad-rect": {Kind: board.PrimRectangle, Width: 1, Height: 0.6},
			"via-std":  {Kind: board.PrimCircle, Diameter: 0.6},
		},
		Layers: []board.Layer{
			{
				ID:       "F.Cu",
				Name:     "Front Copper",
				Function: "SIGNAL",
				Polylines: []board.Polyline{
					{Points: []geom.Vec2{{X: 0, Y: 0}, {X: 10, Y: 0}}, Width: 0.2, Net: "N1"},
					// Too thin to survive past level 1.
					{Points: []geom.Vec2{{X: 0, Y: 2}, {X: 10, Y: 2}}, Width: 0.04, Net: "N2"},
					// Malformed: dropped.
					{Points: []geom.Vec2{{X: 0, Y: 4}}, Width: 0.2},
				},
				Polygons: []board.Polygon{
					{
						Outer: []geom.Vec2{{X: 0, Y: 5}, {X: 3, Y: 5}, {X: 3, Y: 8}, {X: 0, Y: 8}},
						Fill:  board.Color{A: 0.8},
						Net:   "GND",
					},
				},
				Pads: []board.PadInstance{
					{PrimitiveID: "pad-rect", Position: geom.Vec2{X: 1, Y: 1}, Net: "N1", Component: "U1", Pin: "1"},
					{PrimitiveID: "pad-rect", Position: geom.Vec2{X: 2, Y: 1}, Rotation: 1.57, Net: "N2", Component: "U1", Pin: "2"},
				},
				Vias: []board.ViaInstance{
					{PrimitiveID: "via-std", Position: geom.Vec2{X: 5, Y: 1}, HoleDiameter: 0.3, Net: "N1"},
				},
			},
			{
				ID:       "Edge.Cuts",
				Function: "MECHANICAL",
				Polylines: []board.Polyline{
					{Points: []geom.Vec2{{X: -1, Y: -1}, {X: 12, Y: -1}}, Width: 0.1},
				},
			},
		},
	}
}

func quietOpts() AssembleOptions {
	return AssembleOptions{Logger: log.New(io.Discard)}
}

func TestAssembleBoard(t *testing.T) {
	layers, objects, err := AssembleBoard(testBoard(), quietOpts())
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	if len(layers) != 2 {
		t.Fatalf("layers = %d, want 2", len(layers))
	}

	// 2 polylines + 1 polygon + 2 pads + 1 via on copper, 1 polyline on
	// the outline layer. The malformed polyline is dropped.
	if len(objects) != 7 {
		t.Errorf("objects = %d, want 7", len(objects))
	}

	cu := layers[0]
	if !cu.IsCopper() {
		t.Error("SIGNAL layer should be copper")
	}
	if layers[1].IsCopper() {
		t.Error("MECHANICAL layer should not be copper")
	}
	if cu.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", cu.Dropped)
	}
}

func TestAssembleObjectIdentity(t *testing.T) {
	layers, _, err := AssembleBoard(testBoard(), quietOpts())
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}

	byID := map[ObjectID]*ObjectRange{}
	for _, obj := range layers[0].Objects {
		byID[obj.ID] = obj
	}

	trace := byID[NewObjectID(0, KindPolyline, 0)]
	if trace == nil {
		t.Fatal("first polyline object missing")
	}
	if trace.Net != "N1" {
		t.Errorf("trace net = %q, want N1", trace.Net)
	}
	if trace.ID.LayerIndex() != 0 || trace.ID.Kind() != KindPolyline || trace.ID.Ordinal() != 0 {
		t.Errorf("id decodes to (%d,%v,%d)", trace.ID.LayerIndex(), trace.ID.Kind(), trace.ID.Ordinal())
	}

	// The via keeps its source ordinal and instanced addressing.
	via := byID[NewObjectID(0, KindVia, 0)]
	if via == nil {
		t.Fatal("via object missing")
	}
	if via.Kind != KindVia || !via.Kind.IsInstanced() {
		t.Error("via must be an instanced kind")
	}
	if !via.Bounds.Contains(geom.Vec2{X: 5, Y: 1}) {
		t.Errorf("via bounds %+v should contain its position", via.Bounds)
	}

	// The second pad's bounds reflect its rotation: a 1x0.6 rectangle
	// turned ~90° is taller than wide.
	pad := byID[NewObjectID(0, KindPad, 1)]
	if pad == nil {
		t.Fatal("second pad object missing")
	}
	if pad.Pin != "2" || pad.Component != "U1" {
		t.Errorf("pad identity = %q/%q, want U1/2", pad.Component, pad.Pin)
	}
	if pad.Bounds.Height() <= pad.Bounds.Width() {
		t.Errorf("rotated pad bounds %+v should be taller than wide", pad.Bounds)
	}
}

func TestAssembleLODRanges(t *testing.T) {
	layers, _, err := AssembleBoard(testBoard(), quietOpts())
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	cu := layers[0]

	byID := map[ObjectID]*ObjectRange{}
	for _, obj := range cu.Objects {
		byID[obj.ID] = obj
	}

	// The wide trace is present at every level.
	wide := byID[NewObjectID(0, KindPolyline, 0)]
	for level := range LODLevels {
		if wide.LODs[level].IsEmpty() {
			t.Errorf("wide trace empty at level %d", level)
		}
	}

	// The thin trace exists only at level 0; later levels cull it.
	thin := byID[NewObjectID(0, KindPolyline, 1)]
	if thin.LODs[0].IsEmpty() {
		t.Error("thin trace should exist at level 0")
	}
	for level := 1; level < LODLevels; level++ {
		if !thin.LODs[level].IsEmpty() {
			t.Errorf("thin trace should be culled at level %d", level)
		}
		if cu.Culled[level] == 0 {
			t.Errorf("Culled[%d] = 0, want at least 1", level)
		}
	}

	// Ranges index into the shared batch buffer.
	batch := cu.Shader.Batch[0]
	if !wide.LODs[0].Contains(wide.LODs[0].VertexOffset) {
		t.Error("range should contain its own first vertex")
	}
	if int(wide.LODs[0].VertexOffset+wide.LODs[0].VertexCount) > batch.VertexCount() {
		t.Error("range exceeds the batch vertex buffer")
	}
}

func TestAssembleShaderClasses(t *testing.T) {
	layers, _, err := AssembleBoard(testBoard(), quietOpts())
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	sh := layers[0].Shader

	if len(sh.Batch) != LODLevels || len(sh.BatchColored) != LODLevels ||
		len(sh.InstancedRot) != LODLevels || len(sh.Instanced) != ViaLODCount {
		t.Fatal("shader classes have wrong level counts")
	}

	// Polygons carry one alpha per vertex.
	colored := sh.BatchColored[0]
	if len(colored.Alphas) != colored.VertexCount() {
		t.Errorf("alphas = %d, vertices = %d", len(colored.Alphas), colored.VertexCount())
	}
	if len(colored.Alphas) > 0 && colored.Alphas[0] != 0.8 {
		t.Errorf("alpha = %v, want 0.8", colored.Alphas[0])
	}

	// Two pads, stride 3 with packed rotation.
	pads := sh.InstancedRot[0]
	if pads.InstanceStride != 3 {
		t.Errorf("pad stride = %d, want 3", pads.InstanceStride)
	}
	if pads.InstanceCount() != 2 {
		t.Errorf("pad instances = %d, want 2", pads.InstanceCount())
	}
	angle, visible, _ := UnpackRotation(pads.Instances[5])
	if !visible {
		t.Error("pad instance should be visible")
	}
	if angle < 1.5 || angle > 1.65 {
		t.Errorf("packed pad rotation = %v, want ~1.57", angle)
	}

	// One via, stride 2.
	vias := sh.Instanced[1]
	if vias.InstanceStride != 2 {
		t.Errorf("via stride = %d, want 2", vias.InstanceStride)
	}
}

func TestAssembleViaLODThresholds(t *testing.T) {
	b := testBoard()

	// At default density a 0.6mm via is 60px: below every hole threshold,
	// above SolidLOD1 and SolidLOD2.
	layers, _, err := AssembleBoard(b, quietOpts())
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	sh := layers[0].Shader
	if sh.Instanced[0].InstanceCount() != 0 {
		t.Error("60px via should not render hole detail at level 0")
	}
	if sh.Instanced[1].InstanceCount() != 1 || sh.Instanced[2].InstanceCount() != 1 {
		t.Error("60px via should render solid at levels 1 and 2")
	}

	// Zoomed in far enough the hole detail appears.
	opts := quietOpts()
	opts.ViaLOD = DefaultViaLOD()
	opts.ViaLOD.Zoom = 10
	layers, _, err = AssembleBoard(b, opts)
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	sh = layers[0].Shader
	if sh.Instanced[0].InstanceCount() != 1 {
		t.Error("600px via should render hole detail at level 0")
	}
	hole := layers[0].ViaGroups[0].HoleMesh
	if sh.Instanced[0].VertexCount() != hole.VertexCount() {
		t.Error("level 0 should carry the hole mesh")
	}
}

func TestAssembleWorkersDeterministic(t *testing.T) {
	b := testBoard()
	one, objsOne, err := AssembleBoard(b, AssembleOptions{Workers: 1, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}
	many, objsMany, err := AssembleBoard(b, AssembleOptions{Workers: 8, Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("AssembleBoard() error: %v", err)
	}

	if len(objsOne) != len(objsMany) {
		t.Fatalf("object counts differ: %d vs %d", len(objsOne), len(objsMany))
	}
	for i := range objsOne {
		if objsOne[i].ID != objsMany[i].ID {
			t.Fatalf("object order differs at %d: %v vs %v", i, objsOne[i].ID, objsMany[i].ID)
		}
	}
	for li := range one {
		x, y := one[li].Shader.Batch[0], many[li].Shader.Batch[0]
		if len(x.Vertices) != len(y.Vertices) || len(x.Indices) != len(y.Indices) {
			t.Fatalf("layer %d batch buffers differ between worker counts", li)
		}
	}
}
