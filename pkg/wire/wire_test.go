package wire

import (
	"bytes"
	"encoding/binary"
	"reflect"
	"strings"
	"testing"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/tess"
)

const sampleBoard = `{
  "name": "test-board",
  "layers": [
    {
      "id": "F.Cu",
      "name": "Front Copper",
      "function": "SIGNAL",
      "polylines": [
        {"points": [[0,0],[10,0]], "width": 0.2, "cap": "round", "net": "GND"}
      ],
      "polygons": [
        {"outer": [[0,0],[4,0],[4,4],[0,4]], "fill": [0.8,0.5,0.2,0.5], "net": "VCC"}
      ],
      "pads": [
        {"primitive": "rect-1x2", "position": [5,5], "rotation": 1.5708, "net": "VCC", "component": "U1", "pin": "1"}
      ],
      "vias": [
        {"primitive": "circle-0.6", "position": [2,2], "hole_diameter": 0.3, "net": "GND"}
      ]
    }
  ],
  "primitives": {
    "rect-1x2": {"kind": "rectangle", "width": 1, "height": 2},
    "circle-0.6": {"kind": "circle", "diameter": 0.6}
  }
}`

func TestReadBoard(t *testing.T) {
	b, err := ReadBoard(strings.NewReader(sampleBoard))
	if err != nil {
		t.Fatalf("ReadBoard error: %v", err)
	}

	if len(b.Layers) != 1 {
		t.Fatalf("len(Layers) = %d, want 1", len(b.Layers))
	}
	l := b.Layers[0]
	if l.ID != "F.Cu" || l.Function != "SIGNAL" {
		t.Errorf("layer = %q/%q, want F.Cu/SIGNAL", l.ID, l.Function)
	}
	if !l.IsCopper() {
		t.Error("SIGNAL layer should be copper")
	}
	if len(l.Polylines) != 1 || l.Polylines[0].Cap != board.CapRound {
		t.Errorf("polylines not decoded: %+v", l.Polylines)
	}
	if len(l.Polygons) != 1 || l.Polygons[0].Fill.A != 0.5 {
		t.Errorf("polygons not decoded: %+v", l.Polygons)
	}
	if len(l.Pads) != 1 || l.Pads[0].PrimitiveID != "rect-1x2" || l.Pads[0].Pin != "1" {
		t.Errorf("pads not decoded: %+v", l.Pads)
	}
	if len(l.Vias) != 1 || l.Vias[0].HoleDiameter != 0.3 {
		t.Errorf("vias not decoded: %+v", l.Vias)
	}
	if len(b.Primitives) != 2 {
		t.Errorf("len(Primitives) = %d, want 2", len(b.Primitives))
	}
	if b.Primitives["circle-0.6"].Kind != board.PrimCircle {
		t.Errorf("circle primitive kind = %v", b.Primitives["circle-0.6"].Kind)
	}
}

func TestReadBoardErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed json", `{`},
		{"no layers", `{"layers": [], "primitives": {}}`},
		{"bad layer id", `{"layers": [{"id": "../x"}], "primitives": {}}`},
		{"unknown primitive kind", `{"layers": [{"id": "F.Cu"}], "primitives": {"p": {"kind": "hexagon"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadBoard(strings.NewReader(tt.in)); err == nil {
				t.Error("ReadBoard should fail")
			}
		})
	}
}

// assembleSample tessellates the sample board for framing tests.
func assembleSample(t *testing.T) []*tess.LayerGeometry {
	t.Helper()
	b, err := ReadBoard(strings.NewReader(sampleBoard))
	if err != nil {
		t.Fatalf("ReadBoard error: %v", err)
	}
	layers, _, err := tess.AssembleBoard(b, tess.AssembleOptions{Workers: 1})
	if err != nil {
		t.Fatalf("AssembleBoard error: %v", err)
	}
	return layers
}

func TestEncodeDecodeLayerRoundTrip(t *testing.T) {
	layers := assembleSample(t)
	lg := layers[0]
	color := board.Color{R: 0.2, G: 0.6, B: 0.3, A: 1}

	var buf bytes.Buffer
	if err := EncodeLayer(&buf, lg, color); err != nil {
		t.Fatalf("EncodeLayer error: %v", err)
	}

	lb, err := DecodeLayer(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeLayer error: %v", err)
	}

	if lb.ID != lg.ID || lb.Name != lg.Name {
		t.Errorf("header = %q/%q, want %q/%q", lb.ID, lb.Name, lg.ID, lg.Name)
	}
	if lb.Color != [4]float32{0.2, 0.6, 0.3, 1} {
		t.Errorf("color = %v", lb.Color)
	}

	checkSection := func(name string, got, want []tess.GeometryLOD) {
		if len(got) != len(want) {
			t.Fatalf("%s: lod count = %d, want %d", name, len(got), len(want))
		}
		for i := range want {
			if !reflect.DeepEqual(got[i].Vertices, want[i].Vertices) {
				t.Errorf("%s lod %d: vertices differ", name, i)
			}
			// Positions are interleaved x,y; alphas carry one value per
			// 2D vertex, half the float count.
			if len(got[i].Vertices)%2 != 0 {
				t.Errorf("%s lod %d: odd float count %d", name, i, len(got[i].Vertices))
			}
			if n := len(got[i].Alphas); n > 0 && n != len(got[i].Vertices)/2 {
				t.Errorf("%s lod %d: %d alphas for %d floats", name, i, n, len(got[i].Vertices))
			}
			if !reflect.DeepEqual(got[i].Indices, want[i].Indices) {
				t.Errorf("%s lod %d: indices differ", name, i)
			}
			if !reflect.DeepEqual(got[i].Alphas, want[i].Alphas) {
				t.Errorf("%s lod %d: alphas differ", name, i)
			}
			if !reflect.DeepEqual(got[i].Instances, want[i].Instances) {
				t.Errorf("%s lod %d: instances differ", name, i)
			}
		}
	}
	checkSection("batch", lb.Batch, lg.Shader.Batch)
	checkSection("batch_colored", lb.BatchColored, lg.Shader.BatchColored)
	checkSection("instanced_rot", lb.InstancedRot, lg.Shader.InstancedRot)
	checkSection("instanced", lb.Instanced, lg.Shader.Instanced)
}

func TestEncodeLayerFraming(t *testing.T) {
	layers := assembleSample(t)
	var buf bytes.Buffer
	if err := EncodeLayer(&buf, layers[0], board.Color{}); err != nil {
		t.Fatalf("EncodeLayer error: %v", err)
	}
	raw := buf.Bytes()

	// Magic tag
	if !bytes.Equal(raw[:8], Magic[:]) {
		t.Errorf("magic = %q", raw[:8])
	}

	// Layer id string: length prefix then bytes padded to 4
	idLen := binary.LittleEndian.Uint32(raw[8:12])
	if idLen != uint32(len("F.Cu")) {
		t.Fatalf("id length = %d", idLen)
	}
	if string(raw[12:12+idLen]) != "F.Cu" {
		t.Errorf("id bytes = %q", raw[12:12+idLen])
	}

	// Total length is 4-byte aligned throughout
	if len(raw)%4 != 0 {
		t.Errorf("buffer length %d not 4-byte aligned", len(raw))
	}

	// Encoding is deterministic
	var again bytes.Buffer
	if err := EncodeLayer(&again, layers[0], board.Color{}); err != nil {
		t.Fatalf("EncodeLayer error: %v", err)
	}
	if !bytes.Equal(raw, again.Bytes()) {
		t.Error("encoding is not deterministic")
	}
}

func TestEncodeDecodeGeometry(t *testing.T) {
	layers := assembleSample(t)
	var buf bytes.Buffer
	if err := EncodeGeometry(&buf, layers, board.Color{A: 1}); err != nil {
		t.Fatalf("EncodeGeometry error: %v", err)
	}

	decoded, err := DecodeGeometry(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("DecodeGeometry error: %v", err)
	}
	if len(decoded) != len(layers) {
		t.Fatalf("decoded %d layers, want %d", len(decoded), len(layers))
	}
	if decoded[0].ID != layers[0].ID {
		t.Errorf("layer id = %q, want %q", decoded[0].ID, layers[0].ID)
	}
}

func TestDecodeLayerBadMagic(t *testing.T) {
	raw := append([]byte("NOTGEO00"), make([]byte, 64)...)
	if _, err := DecodeLayer(bytes.NewReader(raw)); err == nil {
		t.Error("DecodeLayer should reject bad magic")
	}
}
