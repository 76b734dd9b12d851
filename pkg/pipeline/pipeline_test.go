package pipeline

import (
	"testing"

	"github.com/edalab/copperview/pkg/tess"
)

func TestOptionsValidateForLoad(t *testing.T) {
	// Missing source and path
	opts := Options{}
	if err := opts.ValidateForLoad(); err == nil {
		t.Error("Missing source/path should fail")
	}

	// Path fills in the display name
	opts = Options{Path: "board.json"}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Path-only options should pass: %v", err)
	}
	if opts.Name != "board.json" {
		t.Errorf("Name should default to path, got %q", opts.Name)
	}

	// Inline source gets a placeholder name
	opts = Options{Source: []byte("{}")}
	if err := opts.ValidateForLoad(); err != nil {
		t.Errorf("Source-only options should pass: %v", err)
	}
	if opts.Name != "inline" {
		t.Errorf("Name should default to inline, got %q", opts.Name)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Source: []byte("{}")}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}

	if opts.Zoom != DefaultZoom {
		t.Errorf("Zoom should be %v, got %v", DefaultZoom, opts.Zoom)
	}
	if opts.PixelsPerMM != DefaultPixelsPerMM {
		t.Errorf("PixelsPerMM should be %v, got %v", DefaultPixelsPerMM, opts.PixelsPerMM)
	}
	if opts.ClearanceMM != DefaultClearanceMM {
		t.Errorf("ClearanceMM should be %v, got %v", DefaultClearanceMM, opts.ClearanceMM)
	}
	if opts.Color != DefaultColor {
		t.Errorf("Color should be the default copper color, got %v", opts.Color)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Source: []byte("{}"), Zoom: 2.5}

	// First call
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}

	originalZoom := opts.Zoom
	originalClearance := opts.ClearanceMM

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}

	if opts.Zoom != originalZoom {
		t.Error("Zoom changed on second call")
	}
	if opts.ClearanceMM != originalClearance {
		t.Error("ClearanceMM changed on second call")
	}
}

func TestOptionsViaLOD(t *testing.T) {
	// Zero options resolve to the stock thresholds.
	opts := Options{}
	if got, want := opts.ViaLODOptions(), tess.DefaultViaLOD(); got != want {
		t.Errorf("ViaLODOptions() = %+v, want %+v", got, want)
	}

	// Zoom and density overrides scale the defaults.
	opts = Options{Zoom: 2, PixelsPerMM: 50}
	lod := opts.ViaLODOptions()
	if lod.Zoom != 2 || lod.PixelsPerMM != 50 {
		t.Errorf("overrides not applied: %+v", lod)
	}
	if lod.HoleLOD0 != tess.DefaultViaLOD().HoleLOD0 {
		t.Error("threshold defaults should survive zoom overrides")
	}

	// An explicit threshold set wins over Zoom/PixelsPerMM.
	full := tess.ViaLODOptions{PixelsPerMM: 10, Zoom: 1, HoleLOD0: 1, HoleLOD1: 2, SolidLOD1: 3, SolidLOD2: 4}
	opts = Options{Zoom: 9, ViaLOD: full}
	if got := opts.ViaLODOptions(); got != full {
		t.Errorf("explicit ViaLOD should win, got %+v", got)
	}
}

func TestOptionsKeyOpts(t *testing.T) {
	opts := Options{Zoom: 2, PixelsPerMM: 120, ClearanceMM: 0.2, Regions: true}

	geom := opts.GeometryKeyOpts()
	if geom.Zoom != 2 || geom.PixelsPerMM != 120 {
		t.Errorf("GeometryKeyOpts() = %+v", geom)
	}

	clr := opts.ClearanceKeyOpts()
	if clr.ClearanceMM != 0.2 || !clr.Regions {
		t.Errorf("ClearanceKeyOpts() = %+v", clr)
	}
}

func TestCountTriangles(t *testing.T) {
	layers := []*tess.LayerGeometry{
		{
			Shader: tess.ShaderGeometry{
				// 2 batched triangles.
				Batch: []tess.GeometryLOD{{Indices: []uint32{0, 1, 2, 0, 2, 3}}},
				// 1 colored triangle.
				BatchColored: []tess.GeometryLOD{{Indices: []uint32{0, 1, 2}}},
				// 1 mesh triangle placed 3 times.
				InstancedRot: []tess.GeometryLOD{{
					Indices:        []uint32{0, 1, 2},
					Instances:      []float32{0, 0, 0, 1, 0, 0, 2, 0, 0},
					InstanceStride: 3,
				}},
				// 2 mesh triangles placed twice.
				Instanced: []tess.GeometryLOD{{
					Indices:        []uint32{0, 1, 2, 0, 2, 3},
					Instances:      []float32{0, 0, 5, 5},
					InstanceStride: 2,
				}},
			},
		},
	}

	if got, want := CountTriangles(layers), 2+1+3+4; got != want {
		t.Errorf("CountTriangles() = %d, want %d", got, want)
	}
}
