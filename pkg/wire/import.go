package wire

import (
	"encoding/json"
	"io"
	"os"

	"github.com/edalab/copperview/pkg/board"
	"github.com/edalab/copperview/pkg/errors"
	"github.com/edalab/copperview/pkg/geom"
)

var capFromString = map[string]board.CapStyle{
	"round":  board.CapRound,
	"square": board.CapSquare,
	"butt":   board.CapButt,
}

var kindFromString = map[string]board.PrimitiveKind{
	"circle":    board.PrimCircle,
	"rectangle": board.PrimRectangle,
	"oval":      board.PrimOval,
	"roundrect": board.PrimRoundRect,
	"polygon":   board.PrimCustomPolygon,
}

type boardDoc struct {
	Name       string                  `json:"name"`
	Layers     []layerDoc              `json:"layers"`
	Primitives map[string]primitiveDoc `json:"primitives"`
}

type layerDoc struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Function  string        `json:"function"`
	Polylines []polylineDoc `json:"polylines"`
	Polygons  []polygonDoc  `json:"polygons"`
	Pads      []padDoc      `json:"pads"`
	Vias      []viaDoc      `json:"vias"`
}

type polylineDoc struct {
	Points    [][2]float32 `json:"points"`
	Width     float32      `json:"width"`
	Cap       string       `json:"cap,omitempty"`
	Net       string       `json:"net,omitempty"`
	Component string       `json:"component,omitempty"`
}

type polygonDoc struct {
	Outer     [][2]float32   `json:"outer"`
	Holes     [][][2]float32 `json:"holes,omitempty"`
	Fill      [4]float32     `json:"fill"`
	Net       string         `json:"net,omitempty"`
	Component string         `json:"component,omitempty"`
}

type primitiveDoc struct {
	Kind         string       `json:"kind"`
	Diameter     float32      `json:"diameter,omitempty"`
	Width        float32      `json:"width,omitempty"`
	Height       float32      `json:"height,omitempty"`
	CornerRadius float32      `json:"corner_radius,omitempty"`
	Points       [][2]float32 `json:"points,omitempty"`
}

type padDoc struct {
	Primitive string     `json:"primitive"`
	Position  [2]float32 `json:"position"`
	Rotation  float32    `json:"rotation,omitempty"`
	Net       string     `json:"net,omitempty"`
	Component string     `json:"component,omitempty"`
	Pin       string     `json:"pin,omitempty"`
}

type viaDoc struct {
	Primitive    string     `json:"primitive"`
	Position     [2]float32 `json:"position"`
	HoleDiameter float32    `json:"hole_diameter,omitempty"`
	Net          string     `json:"net,omitempty"`
}

// ReadBoard decodes a board JSON document from r.
//
// Structural problems (malformed JSON, no layers, an invalid layer id,
// an unknown primitive kind) are errors. Per-shape problems are not:
// the tessellators skip shapes that cannot produce geometry, so a board
// with a two-point polygon imports fine and drops the polygon later.
//
// The returned board is independent of r. ReadBoard does not close r.
func ReadBoard(r io.Reader) (*board.Board, error) {
	var doc boardDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode board document")
	}

	b := &board.Board{
		Primitives: make(map[string]board.StandardPrimitive, len(doc.Primitives)),
		Layers:     make([]board.Layer, 0, len(doc.Layers)),
	}

	for id, p := range doc.Primitives {
		kind, ok := kindFromString[p.Kind]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidPrimitive, "primitive %s: unknown kind %q", id, p.Kind)
		}
		b.Primitives[id] = board.StandardPrimitive{
			Kind:         kind,
			Diameter:     p.Diameter,
			Width:        p.Width,
			Height:       p.Height,
			CornerRadius: p.CornerRadius,
			Points:       toVecs(p.Points),
		}
	}

	for _, l := range doc.Layers {
		if err := errors.ValidateLayerID(l.ID); err != nil {
			return nil, err
		}
		layer := board.Layer{
			ID:       l.ID,
			Name:     l.Name,
			Function: l.Function,
		}
		for _, pl := range l.Polylines {
			if err := errors.ValidateNetName(pl.Net); err != nil {
				return nil, err
			}
			layer.Polylines = append(layer.Polylines, board.Polyline{
				Points:    toVecs(pl.Points),
				Width:     pl.Width,
				Cap:       capFromString[pl.Cap],
				Net:       pl.Net,
				Component: pl.Component,
			})
		}
		for _, pg := range l.Polygons {
			holes := make([][]geom.Vec2, 0, len(pg.Holes))
			for _, h := range pg.Holes {
				holes = append(holes, toVecs(h))
			}
			if err := errors.ValidateNetName(pg.Net); err != nil {
				return nil, err
			}
			layer.Polygons = append(layer.Polygons, board.Polygon{
				Outer:     toVecs(pg.Outer),
				Holes:     holes,
				Fill:      board.Color{R: pg.Fill[0], G: pg.Fill[1], B: pg.Fill[2], A: pg.Fill[3]},
				Net:       pg.Net,
				Component: pg.Component,
			})
		}
		for _, pd := range l.Pads {
			if err := errors.ValidateNetName(pd.Net); err != nil {
				return nil, err
			}
			layer.Pads = append(layer.Pads, board.PadInstance{
				PrimitiveID: pd.Primitive,
				Position:    geom.Vec2{X: pd.Position[0], Y: pd.Position[1]},
				Rotation:    pd.Rotation,
				Net:         pd.Net,
				Component:   pd.Component,
				Pin:         pd.Pin,
			})
		}
		for _, v := range l.Vias {
			if err := errors.ValidateNetName(v.Net); err != nil {
				return nil, err
			}
			layer.Vias = append(layer.Vias, board.ViaInstance{
				PrimitiveID:  v.Primitive,
				Position:     geom.Vec2{X: v.Position[0], Y: v.Position[1]},
				HoleDiameter: v.HoleDiameter,
				Net:          v.Net,
			})
		}
		b.Layers = append(b.Layers, layer)
	}

	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidBoard, err, "validate board")
	}
	return b, nil
}

// ImportBoard reads a board JSON file at path.
//
// ImportBoard opens the file, decodes it using [ReadBoard], and closes
// the file. Errors wrap the underlying cause with the file path.
func ImportBoard(path string) (*board.Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadBoard(f)
}

func toVecs(pts [][2]float32) []geom.Vec2 {
	if len(pts) == 0 {
		return nil
	}
	out := make([]geom.Vec2, len(pts))
	for i, p := range pts {
		out[i] = geom.Vec2{X: p[0], Y: p[1]}
	}
	return out
}
